package networks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/affstack/backend/internal/domain/network"
)

// ---------------------------------------------------------------------------
// Platformance Config
// ---------------------------------------------------------------------------

// PlatformanceConfig holds endpoint settings for the Platformance dashboard
// API. The dashboard exposes a JSON data endpoint but only behind the web
// session, so auth is a replayed cookie like the scraped networks.
type PlatformanceConfig struct {
	BaseURL        string
	TimeoutSeconds int
	PageLimit      int
}

// Validate applies defaults.
func (c *PlatformanceConfig) Validate() error {
	if c.BaseURL == "" {
		c.BaseURL = "https://dashboard.platformance.io"
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
// Platformance wire types
// ---------------------------------------------------------------------------

type platformanceReportResponse struct {
	Rows    []platformanceRow `json:"rows"`
	HasNext bool              `json:"has_next"`
}

type platformanceRow struct {
	ID           json.Number `json:"id"`
	CampaignID   json.Number `json:"campaign_id"`
	CampaignName string      `json:"campaign_name"`
	Code         string      `json:"code"`
	Date         string      `json:"date"`
	Conversions  int         `json:"conversions"`
	SaleAmount   float64     `json:"sale_amount"`
	Revenue      float64     `json:"revenue"`
	Currency     string      `json:"currency"`
	Country      string      `json:"country"`
	Status       string      `json:"status"`
	CPC          float64     `json:"cpc"`
	Source       string      `json:"source"`
}

// ---------------------------------------------------------------------------
// Platformance Adapter
// ---------------------------------------------------------------------------

// PlatformanceAdapter implements the network.Adapter port for Platformance.
// Requests replay the captured session cookie against the dashboard's JSON
// report endpoint. Rows missing a country fall back to "US" rather than the
// generic sentinel, matching how the dashboard itself reports.
type PlatformanceAdapter struct {
	config     *PlatformanceConfig
	httpClient *http.Client
}

// NewPlatformanceAdapter creates a Platformance adapter with the given
// configuration.
func NewPlatformanceAdapter(config *PlatformanceConfig) (*PlatformanceAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &PlatformanceAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: timeoutOrDefault(config.TimeoutSeconds)},
	}, nil
}

// Code returns the network code this adapter handles.
func (a *PlatformanceAdapter) Code() network.Code {
	return network.CodePlatformance
}

// PageSize returns the limit requested per page.
func (a *PlatformanceAdapter) PageSize() int {
	return a.config.PageLimit
}

// TestConnection checks the session against the report endpoint.
func (a *PlatformanceAdapter) TestConnection(ctx context.Context, cred network.Credential) error {
	query := url.Values{}
	query.Set("limit", "1")
	query.Set("page", "1")

	req, err := a.newRequest(ctx, cred, query)
	if err != nil {
		return err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", network.ErrTransport, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	// A dead session gets redirected to the login page, which answers 200
	// with HTML instead of JSON.
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "json") {
		return fmt.Errorf("%w: session rejected", network.ErrAuthFailed)
	}
	return nil
}

// FetchPage fetches one page of report rows.
func (a *PlatformanceAdapter) FetchPage(ctx context.Context, cred network.Credential, dateRange network.DateRange, page int) (*network.Page, error) {
	if page < 1 {
		page = 1
	}
	query := url.Values{}
	query.Set("start_date", dateRange.Start.Format("2006-01-02"))
	query.Set("end_date", dateRange.End.Format("2006-01-02"))
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(a.config.PageLimit))

	req, err := a.newRequest(ctx, cred, query)
	if err != nil {
		return nil, err
	}

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

	var parsed platformanceReportResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: report response: %v", network.ErrInvalidResponse, err)
	}

	result := &network.Page{
		Transactions: make([]network.Transaction, 0, len(parsed.Rows)),
		HasMore:      parsed.HasNext,
	}
	for _, row := range parsed.Rows {
		result.Transactions = append(result.Transactions, a.toTransaction(row))
	}
	return result, nil
}

// newRequest builds a cookie-authenticated report request.
func (a *PlatformanceAdapter) newRequest(ctx context.Context, cred network.Credential, query url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.config.BaseURL+"/api/reports/performance?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("platformance: building request: %w", err)
	}
	req.Header.Set("Cookie", cred.Cookie)
	browserHeaders(req, a.config.BaseURL)
	return req, nil
}

// toTransaction maps one report row. Missing countries default to US.
func (a *PlatformanceAdapter) toTransaction(row platformanceRow) network.Transaction {
	country := strings.ToUpper(row.Country)
	if country == "" {
		country = "US"
	}
	tx := network.Transaction{
		NetworkOrderID: row.ID.String(),
		CampaignID:     row.CampaignID.String(),
		CampaignName:   row.CampaignName,
		CouponCode:     row.Code,
		OrderDate:      parseDate("2006-01-02", row.Date),
		SalesAmount:    row.SaleAmount,
		Revenue:        row.Revenue,
		Currency:       strings.ToUpper(row.Currency),
		Quantity:       row.Conversions,
		CountryCode:    country,
		Status:         mapPlatformanceStatus(row.Status),
		Extras:         map[string]string{},
	}
	if row.CPC > 0 {
		tx.Extras["cpc"] = strconv.FormatFloat(row.CPC, 'f', -1, 64)
	}
	if row.Source != "" {
		tx.Extras["traffic_source"] = row.Source
	}
	return tx
}

// mapPlatformanceStatus maps dashboard statuses to the canonical vocabulary.
func mapPlatformanceStatus(status string) string {
	switch strings.ToLower(status) {
	case "approved":
		return "APPROVED"
	case "rejected", "reversed":
		return "REJECTED"
	default:
		return "PENDING"
	}
}

// Ensure PlatformanceAdapter implements the port.
var _ network.Adapter = (*PlatformanceAdapter)(nil)
