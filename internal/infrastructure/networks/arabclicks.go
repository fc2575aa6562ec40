package networks

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/affstack/backend/internal/domain/network"
)

// ---------------------------------------------------------------------------
// ArabClicks Config
// ---------------------------------------------------------------------------

// ArabClicksConfig holds endpoint settings for the ArabClicks report pages.
// ArabClicks has no public API; the adapter replays a captured session cookie
// against the web report and scrapes the results table.
type ArabClicksConfig struct {
	BaseURL        string
	TimeoutSeconds int
	PageSize       int
}

// Validate applies defaults.
func (c *ArabClicksConfig) Validate() error {
	if c.BaseURL == "" {
		c.BaseURL = "https://panel.arabclicks.com"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	return nil
}

// ---------------------------------------------------------------------------
// ArabClicks Adapter
// ---------------------------------------------------------------------------

// ArabClicksAdapter implements the network.Adapter port for ArabClicks by
// scraping the cookie-authenticated conversions report. The report table has
// a fixed 8-column layout; short rows are skipped by the scraper. Dates use
// the DD/MM/YYYY convention of the panel.
type ArabClicksAdapter struct {
	config     *ArabClicksConfig
	httpClient *http.Client
}

// NewArabClicksAdapter creates an ArabClicks adapter with the given
// configuration.
func NewArabClicksAdapter(config *ArabClicksConfig) (*ArabClicksAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ArabClicksAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: timeoutOrDefault(config.TimeoutSeconds)},
	}, nil
}

// Code returns the network code this adapter handles.
func (a *ArabClicksAdapter) Code() network.Code {
	return network.CodeArabClicks
}

// PageSize returns the rows requested per report page.
func (a *ArabClicksAdapter) PageSize() int {
	return a.config.PageSize
}

// TestConnection loads the report page and checks the session is accepted.
// The panel answers login redirects with 302 to the signin page, which the
// client follows; an HTML body without the report table means the cookie is
// dead.
func (a *ArabClicksAdapter) TestConnection(ctx context.Context, cred network.Credential) error {
	body, err := a.fetchReport(ctx, cred, network.DateRange{}, 1, 1)
	if err != nil {
		return err
	}
	if _, err := parseReportTable(body); err != nil {
		return fmt.Errorf("%w: session rejected", network.ErrAuthFailed)
	}
	return nil
}

// FetchPage fetches and scrapes one report page.
func (a *ArabClicksAdapter) FetchPage(ctx context.Context, cred network.Credential, dateRange network.DateRange, page int) (*network.Page, error) {
	if page < 1 {
		page = 1
	}
	body, err := a.fetchReport(ctx, cred, dateRange, page, a.config.PageSize)
	if err != nil {
		return nil, err
	}

	rows, err := parseReportTable(body)
	if err != nil {
		return nil, err
	}

	result := &network.Page{Transactions: make([]network.Transaction, 0, len(rows))}
	for _, row := range rows {
		result.Transactions = append(result.Transactions, a.toTransaction(row))
	}
	return result, nil
}

// fetchReport GETs the conversions report HTML for one page.
func (a *ArabClicksAdapter) fetchReport(ctx context.Context, cred network.Credential, dateRange network.DateRange, page, pageSize int) ([]byte, error) {
	query := url.Values{}
	if !dateRange.Start.IsZero() {
		query.Set("from", dateRange.Start.Format("02/01/2006"))
		query.Set("to", dateRange.End.Format("02/01/2006"))
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.config.BaseURL+"/reports/conversions?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("arabclicks: building request: %w", err)
	}
	req.Header.Set("Cookie", cred.Cookie)
	browserHeaders(req, a.config.BaseURL)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", network.ErrTransport, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return readBody(resp)
}

// toTransaction maps a scraped report row to the neutral shape. Numeric
// cells pass through the decimal sanitizer; the panel quotes USD.
func (a *ArabClicksAdapter) toTransaction(row reportRow) network.Transaction {
	return network.Transaction{
		NetworkOrderID: fmt.Sprintf("%s-%s-%s", row.CampaignID, row.CouponCode, row.CreatedDate),
		CampaignID:     row.CampaignID,
		CampaignName:   row.CampaignName,
		CouponCode:     row.CouponCode,
		OrderDate:      parseDate("02/01/2006", row.CreatedDate),
		SalesAmount:    SanitizeDecimal(row.SaleAmount),
		Revenue:        SanitizeDecimal(row.Payout),
		Currency:       "USD",
		Quantity:       int(SanitizeDecimal(row.Conversions)),
		Status:         mapArabClicksStatus(row.Status),
		Extras:         map[string]string{},
	}
}

// mapArabClicksStatus maps report status wording to the canonical vocabulary.
func mapArabClicksStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "approved", "confirmed":
		return "APPROVED"
	case "rejected", "cancelled":
		return "REJECTED"
	default:
		return "PENDING"
	}
}

// Ensure ArabClicksAdapter implements the port.
var _ network.Adapter = (*ArabClicksAdapter)(nil)
