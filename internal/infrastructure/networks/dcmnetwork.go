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
// DCMnetwork Config
// ---------------------------------------------------------------------------

// DCMnetworkConfig holds endpoint settings for the DCMnetwork API.
type DCMnetworkConfig struct {
	APIBaseURL     string
	TimeoutSeconds int
	PageLimit      int
}

// Validate applies defaults.
func (c *DCMnetworkConfig) Validate() error {
	if c.APIBaseURL == "" {
		c.APIBaseURL = "https://panel.dcmnetwork.com"
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
// DCMnetwork wire types
// ---------------------------------------------------------------------------

type dcmConversionsResponse struct {
	Data  []dcmConversion `json:"data"`
	Page  int             `json:"page"`
	Pages int             `json:"pages"`
	// RetryAfter is present when the panel asks clients to slow down
	RetryAfter int `json:"retry_after"`
}

type dcmConversion struct {
	ConversionID json.Number `json:"conversion_id"`
	OfferID      json.Number `json:"offer_id"`
	OfferName    string      `json:"offer_name"`
	Coupon       string      `json:"coupon"`
	DateTime     string      `json:"datetime"`
	SaleAmount   float64     `json:"sale_amount"`
	Payout       float64     `json:"payout"`
	Currency     string      `json:"currency"`
	Quantity     int         `json:"quantity"`
	GeoCountry   string      `json:"geo_country"`
	Status       string      `json:"status"`
	Clicks       int         `json:"clicks"`
	AffSub       string      `json:"aff_sub"`
}

// ---------------------------------------------------------------------------
// DCMnetwork Adapter
// ---------------------------------------------------------------------------

// DCMnetworkAdapter implements the network.Adapter port for DCMnetwork. The
// panel rejects non-browser clients, so every request carries the full
// browser header set; it also rate limits aggressively and signals it both
// with 429 and a retry_after field, which the adapter surfaces through the
// page's RateLimited flag for the orchestrator to pace on.
type DCMnetworkAdapter struct {
	config     *DCMnetworkConfig
	httpClient *http.Client
}

// NewDCMnetworkAdapter creates a DCMnetwork adapter with the given
// configuration.
func NewDCMnetworkAdapter(config *DCMnetworkConfig) (*DCMnetworkAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &DCMnetworkAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: timeoutOrDefault(config.TimeoutSeconds)},
	}, nil
}

// Code returns the network code this adapter handles.
func (a *DCMnetworkAdapter) Code() network.Code {
	return network.CodeDCMnetwork
}

// PageSize returns the limit requested per page.
func (a *DCMnetworkAdapter) PageSize() int {
	return a.config.PageLimit
}

// TestConnection validates the key against the affiliate profile endpoint.
func (a *DCMnetworkAdapter) TestConnection(ctx context.Context, cred network.Credential) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.config.APIBaseURL+"/api/affiliate/profile", nil)
	if err != nil {
		return fmt.Errorf("dcmnetwork: building request: %w", err)
	}
	a.setHeaders(req, cred)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", network.ErrTransport, err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// FetchPage fetches one page of conversions. Dates are formatted YYYY-MM-DD.
func (a *DCMnetworkAdapter) FetchPage(ctx context.Context, cred network.Credential, dateRange network.DateRange, page int) (*network.Page, error) {
	if page < 1 {
		page = 1
	}
	query := url.Values{}
	query.Set("start_date", dateRange.Start.Format("2006-01-02"))
	query.Set("end_date", dateRange.End.Format("2006-01-02"))
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(a.config.PageLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.config.APIBaseURL+"/api/affiliate/conversions?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("dcmnetwork: building request: %w", err)
	}
	a.setHeaders(req, cred)

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

	var parsed dcmConversionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: conversions response: %v", network.ErrInvalidResponse, err)
	}

	result := &network.Page{
		Transactions: make([]network.Transaction, 0, len(parsed.Data)),
		HasMore:      parsed.Page < parsed.Pages,
		RateLimited:  parsed.RetryAfter > 0,
	}
	for _, conv := range parsed.Data {
		result.Transactions = append(result.Transactions, a.toTransaction(conv))
	}
	return result, nil
}

// setHeaders applies the API key plus the browser header set the panel
// requires.
func (a *DCMnetworkAdapter) setHeaders(req *http.Request, cred network.Credential) {
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	browserHeaders(req, a.config.APIBaseURL)
}

// toTransaction maps one conversion row.
func (a *DCMnetworkAdapter) toTransaction(conv dcmConversion) network.Transaction {
	tx := network.Transaction{
		NetworkOrderID: conv.ConversionID.String(),
		CampaignID:     conv.OfferID.String(),
		CampaignName:   conv.OfferName,
		CouponCode:     conv.Coupon,
		OrderDate:      parseDate("2006-01-02", firstDateField(conv.DateTime)),
		SalesAmount:    conv.SaleAmount,
		Revenue:        conv.Payout,
		Currency:       strings.ToUpper(conv.Currency),
		Quantity:       conv.Quantity,
		CountryCode:    strings.ToUpper(conv.GeoCountry),
		Status:         mapDCMStatus(conv.Status),
		Extras:         map[string]string{},
	}
	if conv.Clicks > 0 {
		tx.Extras["clicks"] = strconv.Itoa(conv.Clicks)
	}
	if conv.AffSub != "" {
		tx.Extras["aff_sub"] = conv.AffSub
	}
	return tx
}

// mapDCMStatus maps DCMnetwork statuses to the canonical vocabulary.
func mapDCMStatus(status string) string {
	switch strings.ToLower(status) {
	case "approved", "confirmed":
		return "APPROVED"
	case "rejected":
		return "REJECTED"
	default:
		return "PENDING"
	}
}

// Ensure DCMnetworkAdapter implements the port.
var _ network.Adapter = (*DCMnetworkAdapter)(nil)
