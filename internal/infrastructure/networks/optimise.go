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
// Optimise Config
// ---------------------------------------------------------------------------

// OptimiseConfig holds endpoint settings for the Optimise reporting API.
type OptimiseConfig struct {
	APIBaseURL     string
	TimeoutSeconds int
	PageLimit      int
}

// Validate applies defaults.
func (c *OptimiseConfig) Validate() error {
	if c.APIBaseURL == "" {
		c.APIBaseURL = "https://api.omgpm.com"
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
// Optimise wire types
// ---------------------------------------------------------------------------

type optimiseConversionsResponse struct {
	Conversions []optimiseConversion `json:"conversions"`
	Total       int                  `json:"total"`
	Offset      int                  `json:"offset"`
}

type optimiseConversion struct {
	TransactionID string  `json:"transaction_id"`
	MerchantID    string  `json:"merchant_id"`
	MerchantName  string  `json:"merchant_name"`
	VoucherCode   string  `json:"voucher_code"`
	TransactionAt string  `json:"transaction_date"`
	OrderValue    float64 `json:"order_value"`
	Commission    float64 `json:"commission"`
	Currency      string  `json:"currency"`
	Quantity      int     `json:"quantity"`
	Country       string  `json:"country_code"`
	Status        string  `json:"status"`
	ClickRef      string  `json:"click_ref"`
	ProductGroup  string  `json:"product_group"`
}

// ---------------------------------------------------------------------------
// Optimise Adapter
// ---------------------------------------------------------------------------

// OptimiseAdapter implements the network.Adapter port for Optimise. Optimise
// requires the composite credential set (API key plus contact and agency
// identifiers) on every request and formats dates DD.MM.YYYY.
type OptimiseAdapter struct {
	config     *OptimiseConfig
	httpClient *http.Client
}

// NewOptimiseAdapter creates an Optimise adapter with the given
// configuration.
func NewOptimiseAdapter(config *OptimiseConfig) (*OptimiseAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &OptimiseAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: timeoutOrDefault(config.TimeoutSeconds)},
	}, nil
}

// Code returns the network code this adapter handles.
func (a *OptimiseAdapter) Code() network.Code {
	return network.CodeOptimise
}

// PageSize returns the limit requested per page.
func (a *OptimiseAdapter) PageSize() int {
	return a.config.PageLimit
}

// TestConnection validates the composite credential against the account
// endpoint.
func (a *OptimiseAdapter) TestConnection(ctx context.Context, cred network.Credential) error {
	req, err := a.newRequest(ctx, cred, "/v2/account", nil)
	if err != nil {
		return err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", network.ErrTransport, err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// FetchPage fetches one offset page of conversions.
func (a *OptimiseAdapter) FetchPage(ctx context.Context, cred network.Credential, dateRange network.DateRange, page int) (*network.Page, error) {
	if page < 1 {
		page = 1
	}
	query := url.Values{}
	query.Set("start", dateRange.Start.Format("02.01.2006"))
	query.Set("end", dateRange.End.Format("02.01.2006"))
	query.Set("limit", strconv.Itoa(a.config.PageLimit))
	query.Set("offset", strconv.Itoa((page-1)*a.config.PageLimit))

	req, err := a.newRequest(ctx, cred, "/v2/conversions", query)
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

	var parsed optimiseConversionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: conversions response: %v", network.ErrInvalidResponse, err)
	}

	result := &network.Page{Transactions: make([]network.Transaction, 0, len(parsed.Conversions))}
	for _, conv := range parsed.Conversions {
		result.Transactions = append(result.Transactions, a.toTransaction(conv))
	}
	result.HasMore = parsed.Offset+len(parsed.Conversions) < parsed.Total
	return result, nil
}

// newRequest builds a request carrying the composite credential headers. All
// three pieces are mandatory; Resolve guarantees their presence before the
// adapter is called.
func (a *OptimiseAdapter) newRequest(ctx context.Context, cred network.Credential, path string, query url.Values) (*http.Request, error) {
	endpoint := a.config.APIBaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("optimise: building request: %w", err)
	}
	req.Header.Set("X-API-Key", cred.AccessToken)
	req.Header.Set("X-Contact-Id", cred.ContactID)
	req.Header.Set("X-Agency-Id", cred.AgencyID)
	return req, nil
}

// toTransaction maps one conversion row.
func (a *OptimiseAdapter) toTransaction(conv optimiseConversion) network.Transaction {
	tx := network.Transaction{
		NetworkOrderID: conv.TransactionID,
		CampaignID:     conv.MerchantID,
		CampaignName:   conv.MerchantName,
		CouponCode:     conv.VoucherCode,
		OrderDate:      parseDate("02.01.2006", firstDateField(conv.TransactionAt)),
		SalesAmount:    conv.OrderValue,
		Revenue:        conv.Commission,
		Currency:       strings.ToUpper(conv.Currency),
		Quantity:       conv.Quantity,
		CountryCode:    strings.ToUpper(conv.Country),
		Status:         mapOptimiseStatus(conv.Status),
		Extras:         map[string]string{},
	}
	if conv.ClickRef != "" {
		tx.Extras["click_ref"] = conv.ClickRef
	}
	if conv.ProductGroup != "" {
		tx.Extras["product_group"] = conv.ProductGroup
	}
	return tx
}

// mapOptimiseStatus maps Optimise statuses to the canonical vocabulary.
func mapOptimiseStatus(status string) string {
	switch strings.ToLower(status) {
	case "validated", "approved", "paid":
		return "APPROVED"
	case "rejected", "declined":
		return "REJECTED"
	default:
		return "PENDING"
	}
}

// Ensure OptimiseAdapter implements the port.
var _ network.Adapter = (*OptimiseAdapter)(nil)
