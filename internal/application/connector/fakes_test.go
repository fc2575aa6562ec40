package connector

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/affstack/backend/internal/domain/commission"
	"github.com/affstack/backend/internal/domain/network"
)

// ---------------------------------------------------------------------------
// In-memory repositories
// ---------------------------------------------------------------------------

type fakeConnectionRepo struct {
	mu    sync.Mutex
	conns map[string]*network.Connection
	saves int
}

func newFakeConnectionRepo() *fakeConnectionRepo {
	return &fakeConnectionRepo{conns: make(map[string]*network.Connection)}
}

func connKey(userID uuid.UUID, code network.Code) string {
	return userID.String() + ":" + string(code)
}

func (r *fakeConnectionRepo) Save(_ context.Context, conn *network.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *conn
	r.conns[connKey(conn.UserID, conn.NetworkCode)] = &copied
	r.saves++
	return nil
}

func (r *fakeConnectionRepo) FindByUserAndNetwork(_ context.Context, userID uuid.UUID, code network.Code) (*network.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[connKey(userID, code)]
	if !ok {
		return nil, fmt.Errorf("%w: no connection for %s", network.ErrNoActiveConnection, code)
	}
	copied := *conn
	return &copied, nil
}

func (r *fakeConnectionRepo) FindAllForUser(_ context.Context, userID uuid.UUID) ([]network.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []network.Connection
	for _, conn := range r.conns {
		if conn.UserID == userID {
			out = append(out, *conn)
		}
	}
	return out, nil
}

func (r *fakeConnectionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, conn := range r.conns {
		if conn.ID == id {
			delete(r.conns, key)
			return nil
		}
	}
	return nil
}

type fakeCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[string]*commission.Campaign
	creates   int
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: make(map[string]*commission.Campaign)}
}

func (r *fakeCampaignRepo) GetOrCreate(_ context.Context, candidate *commission.Campaign) (*commission.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := string(candidate.NetworkCode) + ":" + candidate.UserID.String() + ":" + candidate.NetworkCampaignID
	if existing, ok := r.campaigns[key]; ok {
		copied := *existing
		return &copied, nil
	}
	copied := *candidate
	r.campaigns[key] = &copied
	r.creates++
	out := copied
	return &out, nil
}

func (r *fakeCampaignRepo) FindByNaturalKey(_ context.Context, code network.Code, userID uuid.UUID, networkCampaignID string) (*commission.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := string(code) + ":" + userID.String() + ":" + networkCampaignID
	if existing, ok := r.campaigns[key]; ok {
		copied := *existing
		return &copied, nil
	}
	return nil, commission.ErrCampaignNotFound
}

func (r *fakeCampaignRepo) FindAllForUser(context.Context, uuid.UUID, network.Code) ([]commission.Campaign, error) {
	return nil, nil
}

type fakeCouponRepo struct {
	mu      sync.Mutex
	coupons map[string]*commission.Coupon
	usage   map[uuid.UUID]int
	creates int
	// purchases, when set, is the row source RecalculateUsage counts from.
	purchases *fakePurchaseRepo
}

func newFakeCouponRepo() *fakeCouponRepo {
	return &fakeCouponRepo{
		coupons: make(map[string]*commission.Coupon),
		usage:   make(map[uuid.UUID]int),
	}
}

func (r *fakeCouponRepo) GetOrCreate(_ context.Context, candidate *commission.Coupon) (*commission.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := candidate.CampaignID.String() + ":" + candidate.Code
	if existing, ok := r.coupons[key]; ok {
		copied := *existing
		return &copied, nil
	}
	copied := *candidate
	r.coupons[key] = &copied
	r.creates++
	out := copied
	return &out, nil
}

func (r *fakeCouponRepo) FindByCampaignAndCode(_ context.Context, campaignID uuid.UUID, code string) (*commission.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.coupons[campaignID.String()+":"+code]; ok {
		copied := *existing
		return &copied, nil
	}
	return nil, commission.ErrCouponNotFound
}

func (r *fakeCouponRepo) RecalculateUsage(_ context.Context, ids []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		count := 0
		if r.purchases != nil {
			count = r.purchases.countForCoupon(id)
		}
		r.usage[id] = count
	}
	return nil
}

type fakeCountryRepo struct {
	byCode map[string]commission.Country
	byName map[string]commission.Country
}

func newFakeCountryRepo() *fakeCountryRepo {
	countries := []commission.Country{
		{Code: "AE", Name: "United Arab Emirates", Currency: "AED"},
		{Code: "SA", Name: "Saudi Arabia", Currency: "SAR"},
		{Code: "US", Name: "United States", Currency: "USD"},
		{Code: commission.FallbackCountryCode, Name: "Not Available"},
	}
	r := &fakeCountryRepo{
		byCode: make(map[string]commission.Country),
		byName: make(map[string]commission.Country),
	}
	for _, c := range countries {
		r.byCode[c.Code] = c
		r.byName[strings.ToLower(c.Name)] = c
	}
	return r
}

func (r *fakeCountryRepo) FindByCode(_ context.Context, code string) (*commission.Country, error) {
	if c, ok := r.byCode[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return &c, nil
	}
	return nil, commission.ErrCountryNotFound
}

func (r *fakeCountryRepo) FindByName(_ context.Context, name string) (*commission.Country, error) {
	if c, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return &c, nil
	}
	return nil, commission.ErrCountryNotFound
}

type fakePurchaseRepo struct {
	mu sync.Mutex
	// byRange holds the current contents of each replaced range
	byRange      map[string][]*commission.Purchase
	replaceCalls int
	replaceErr   error
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{byRange: make(map[string][]*commission.Purchase)}
}

func rangeKey(userID uuid.UUID, code network.Code, dateRange network.DateRange) string {
	return fmt.Sprintf("%s:%s:%s:%s", userID, code,
		dateRange.Start.Format("2006-01-02"), dateRange.End.Format("2006-01-02"))
}

func (r *fakePurchaseRepo) SaveBatch(_ context.Context, purchases []*commission.Purchase) error {
	return nil
}

func (r *fakePurchaseRepo) ReplaceRange(_ context.Context, userID uuid.UUID, code network.Code, dateRange network.DateRange, purchases []*commission.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaceCalls++
	if r.replaceErr != nil {
		return r.replaceErr
	}
	r.byRange[rangeKey(userID, code, dateRange)] = purchases
	return nil
}

func (r *fakePurchaseRepo) DeleteRange(context.Context, uuid.UUID, network.Code, network.DateRange) error {
	return nil
}

func (r *fakePurchaseRepo) FindCouponIDsInRange(_ context.Context, userID uuid.UUID, code network.Code, dateRange network.DateRange) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, p := range r.byRange[rangeKey(userID, code, dateRange)] {
		if p.CouponID == nil {
			continue
		}
		if _, ok := seen[*p.CouponID]; ok {
			continue
		}
		seen[*p.CouponID] = struct{}{}
		ids = append(ids, *p.CouponID)
	}
	return ids, nil
}

// countForCoupon counts stored rows referencing a coupon across all ranges.
func (r *fakePurchaseRepo) countForCoupon(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rows := range r.byRange {
		for _, p := range rows {
			if p.CouponID != nil && *p.CouponID == id {
				n++
			}
		}
	}
	return n
}

func (r *fakePurchaseRepo) CountRange(_ context.Context, userID uuid.UUID, code network.Code, dateRange network.DateRange) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byRange[rangeKey(userID, code, dateRange)])), nil
}

func (r *fakePurchaseRepo) SumRevenueRange(_ context.Context, userID uuid.UUID, code network.Code, dateRange network.DateRange) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, p := range r.byRange[rangeKey(userID, code, dateRange)] {
		sum = sum.Add(p.Revenue)
	}
	return sum, nil
}

type fakeSyncLogRepo struct {
	mu   sync.Mutex
	logs map[uuid.UUID]*network.SyncLog
}

func newFakeSyncLogRepo() *fakeSyncLogRepo {
	return &fakeSyncLogRepo{logs: make(map[uuid.UUID]*network.SyncLog)}
}

func (r *fakeSyncLogRepo) Save(_ context.Context, log *network.SyncLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *log
	r.logs[log.ID] = &copied
	return nil
}

func (r *fakeSyncLogRepo) FindRecent(_ context.Context, userID uuid.UUID, code network.Code, limit int) ([]network.SyncLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []network.SyncLog
	for _, log := range r.logs {
		if log.UserID == userID && log.NetworkCode == code {
			out = append(out, *log)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// only returns the single stored log, failing when there is not exactly one
func (r *fakeSyncLogRepo) only() *network.SyncLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.logs) != 1 {
		return nil
	}
	for _, log := range r.logs {
		return log
	}
	return nil
}

// ---------------------------------------------------------------------------
// Adapter, registry, exchanger, guard, pacer, rates
// ---------------------------------------------------------------------------

type fakeAdapter struct {
	code     network.Code
	pageSize int
	// pages are returned in order; fetching past the end yields empty pages
	pages      []*network.Page
	fetchErr   error
	testErr    error
	fetchCalls int
	testCalls  int
	lastRange  network.DateRange
	authURL    string
}

func (a *fakeAdapter) Code() network.Code { return a.code }

func (a *fakeAdapter) PageSize() int {
	if a.pageSize <= 0 {
		return 100
	}
	return a.pageSize
}

func (a *fakeAdapter) FetchPage(_ context.Context, _ network.Credential, dateRange network.DateRange, page int) (*network.Page, error) {
	a.fetchCalls++
	a.lastRange = dateRange
	if a.fetchErr != nil {
		return nil, a.fetchErr
	}
	if page < 1 || page > len(a.pages) {
		return &network.Page{}, nil
	}
	return a.pages[page-1], nil
}

func (a *fakeAdapter) TestConnection(context.Context, network.Credential) error {
	a.testCalls++
	return a.testErr
}

func (a *fakeAdapter) AuthorizationURL(state string) string {
	return a.authURL + "?state=" + state
}

type fakeExchanger struct {
	exchangeCred network.Credential
	exchangeErr  error
	refreshCred  network.Credential
	refreshErr   error
	refreshCalls int
}

func (e *fakeExchanger) Exchange(context.Context, string) (network.Credential, error) {
	if e.exchangeErr != nil {
		return network.Credential{}, e.exchangeErr
	}
	return e.exchangeCred, nil
}

func (e *fakeExchanger) Refresh(context.Context, string) (network.Credential, error) {
	e.refreshCalls++
	if e.refreshErr != nil {
		return network.Credential{}, e.refreshErr
	}
	return e.refreshCred, nil
}

type fakeRegistry struct {
	adapters   map[network.Code]network.Adapter
	exchangers map[network.Code]network.TokenExchanger
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		adapters:   make(map[network.Code]network.Adapter),
		exchangers: make(map[network.Code]network.TokenExchanger),
	}
}

func (r *fakeRegistry) Get(code network.Code) (network.Adapter, error) {
	adapter, ok := r.adapters[code]
	if !ok {
		return nil, fmt.Errorf("%w: %q", network.ErrUnsupportedNetwork, code)
	}
	return adapter, nil
}

func (r *fakeRegistry) List() []network.Adapter {
	var out []network.Adapter
	for _, adapter := range r.adapters {
		out = append(out, adapter)
	}
	return out
}

func (r *fakeRegistry) TokenExchangerFor(code network.Code) (network.TokenExchanger, bool) {
	exchanger, ok := r.exchangers[code]
	return exchanger, ok
}

type fakeGuard struct {
	mu       sync.Mutex
	held     map[string]bool
	acquires int
	releases int
	denyAll  bool
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{held: make(map[string]bool)}
}

func (g *fakeGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.acquires++
	if g.denyAll || g.held[key] {
		return false, nil
	}
	g.held[key] = true
	return true, nil
}

func (g *fakeGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.releases++
	delete(g.held, key)
	return nil
}

type countingPacer struct {
	waits int
}

func (p *countingPacer) Wait(context.Context) error {
	p.waits++
	return nil
}

type fakeRates struct {
	rates map[string]float64
}

func newFakeRates() *fakeRates {
	return &fakeRates{rates: map[string]float64{
		"USD": 1, "AED": 3.67, "SAR": 3.75,
	}}
}

func (r *fakeRates) RateToUSD(_ context.Context, currency string) (decimal.Decimal, error) {
	rate, ok := r.rates[strings.ToUpper(strings.TrimSpace(currency))]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("no rate for %q", currency)
	}
	return decimal.NewFromFloat(rate), nil
}

type rejectingLimiter struct{}

func (rejectingLimiter) AllowSync(context.Context, uuid.UUID) error {
	return ErrPlanLimit
}
