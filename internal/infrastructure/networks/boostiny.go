package networks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/affstack/backend/internal/domain/network"
)

// ---------------------------------------------------------------------------
// Boostiny Config
// ---------------------------------------------------------------------------

// BoostinyConfig holds endpoint settings for the Boostiny API. The API key
// itself is per-user credential material, not configuration.
type BoostinyConfig struct {
	APIBaseURL     string
	TimeoutSeconds int
	PageLimit      int
}

// Validate applies defaults.
func (c *BoostinyConfig) Validate() error {
	if c.APIBaseURL == "" {
		c.APIBaseURL = "https://api.boostiny.com"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.PageLimit <= 0 {
		c.PageLimit = 100
	}
	return nil
}

// ---------------------------------------------------------------------------
// Boostiny wire types
// ---------------------------------------------------------------------------

type boostinyPerformanceResponse struct {
	Data struct {
		Payload []boostinyRecord `json:"payload"`
		Pagination struct {
			Page       int `json:"page"`
			TotalPages int `json:"totalPages"`
		} `json:"pagination"`
	} `json:"data"`
}

type boostinyRecord struct {
	CampaignID       json.Number `json:"campaign_id"`
	CampaignName     string      `json:"campaign_name"`
	CouponCode       string      `json:"code"`
	Date             string      `json:"date"`
	Conversions      int         `json:"conversions"`
	SalesAmountUSD   float64     `json:"sales_amount_usd"`
	PendingRevenue   float64     `json:"pending_revenue"`
	ValidatedRevenue float64     `json:"validated_revenue"`
	RejectedRevenue  float64     `json:"rejected_revenue"`
	CountryName      string      `json:"country"`
	TrafficSource    string      `json:"traffic_source"`
}

// ---------------------------------------------------------------------------
// Boostiny Adapter
// ---------------------------------------------------------------------------

// BoostinyAdapter implements the network.Adapter port for Boostiny. Boostiny
// authenticates with a static API key, reports performance rows aggregated
// per (campaign, coupon, day), splits revenue into pending/validated/rejected
// components and names countries instead of coding them.
type BoostinyAdapter struct {
	config     *BoostinyConfig
	httpClient *http.Client
}

// NewBoostinyAdapter creates a Boostiny adapter with the given configuration.
func NewBoostinyAdapter(config *BoostinyConfig) (*BoostinyAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &BoostinyAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: timeoutOrDefault(config.TimeoutSeconds)},
	}, nil
}

// Code returns the network code this adapter handles.
func (a *BoostinyAdapter) Code() network.Code {
	return network.CodeBoostiny
}

// PageSize returns the limit requested per page.
func (a *BoostinyAdapter) PageSize() int {
	return a.config.PageLimit
}

// TestConnection issues a one-row performance query to validate the key.
func (a *BoostinyAdapter) TestConnection(ctx context.Context, cred network.Credential) error {
	query := url.Values{}
	query.Set("limit", "1")
	query.Set("page", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.config.APIBaseURL+"/publisher/performance?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("boostiny: building request: %w", err)
	}
	req.Header.Set("x-api-key", cred.AccessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", network.ErrTransport, err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// FetchPage fetches one page of performance rows. Dates are formatted
// YYYY-MM-DD; the pagination block carries an explicit total page count.
func (a *BoostinyAdapter) FetchPage(ctx context.Context, cred network.Credential, dateRange network.DateRange, page int) (*network.Page, error) {
	if page < 1 {
		page = 1
	}
	query := url.Values{}
	query.Set("from", dateRange.Start.Format("2006-01-02"))
	query.Set("to", dateRange.End.Format("2006-01-02"))
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(a.config.PageLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.config.APIBaseURL+"/publisher/performance?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("boostiny: building request: %w", err)
	}
	req.Header.Set("x-api-key", cred.AccessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", network.ErrTransport, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	var parsed boostinyPerformanceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: performance response: %v", network.ErrInvalidResponse, err)
	}

	result := &network.Page{Transactions: make([]network.Transaction, 0, len(parsed.Data.Payload))}
	for _, rec := range parsed.Data.Payload {
		result.Transactions = append(result.Transactions, a.toTransaction(rec))
	}
	result.HasMore = parsed.Data.Pagination.Page < parsed.Data.Pagination.TotalPages
	return result, nil
}

// toTransaction maps one performance row. Boostiny already reports USD, so
// the revenue components just need summing. Rows carry no native transaction
// id; a deterministic one is derived from the aggregation key.
func (a *BoostinyAdapter) toTransaction(rec boostinyRecord) network.Transaction {
	revenue := rec.PendingRevenue + rec.ValidatedRevenue + rec.RejectedRevenue

	status := "PENDING"
	switch {
	case rec.ValidatedRevenue > 0 && rec.PendingRevenue == 0 && rec.RejectedRevenue == 0:
		status = "APPROVED"
	case rec.RejectedRevenue > 0 && rec.PendingRevenue == 0 && rec.ValidatedRevenue == 0:
		status = "REJECTED"
	}

	tx := network.Transaction{
		NetworkOrderID: fmt.Sprintf("%s-%s-%s", rec.CampaignID.String(), rec.CouponCode, rec.Date),
		CampaignID:     rec.CampaignID.String(),
		CampaignName:   rec.CampaignName,
		CouponCode:     rec.CouponCode,
		OrderDate:      parseDate("2006-01-02", rec.Date),
		SalesAmount:    rec.SalesAmountUSD,
		Revenue:        revenue,
		Currency:       "USD",
		Quantity:       rec.Conversions,
		CountryName:    rec.CountryName,
		Status:         status,
		Extras:         map[string]string{},
	}
	if rec.TrafficSource != "" {
		tx.Extras["traffic_source"] = rec.TrafficSource
	}
	if rec.PendingRevenue > 0 {
		tx.Extras["pending_revenue"] = strconv.FormatFloat(rec.PendingRevenue, 'f', -1, 64)
	}
	if rec.RejectedRevenue > 0 {
		tx.Extras["rejected_revenue"] = strconv.FormatFloat(rec.RejectedRevenue, 'f', -1, 64)
	}
	return tx
}

// Ensure BoostinyAdapter implements the port.
var _ network.Adapter = (*BoostinyAdapter)(nil)
