package networks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/affstack/backend/internal/domain/network"
)

// ---------------------------------------------------------------------------
// Admitad Config
// ---------------------------------------------------------------------------

var (
	ErrAdmitadConfigMissingClientID     = errors.New("admitad: missing client id")
	ErrAdmitadConfigMissingClientSecret = errors.New("admitad: missing client secret")
)

// AdmitadConfig holds the OAuth client settings for the Admitad API.
type AdmitadConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// APIBaseURL overrides the production endpoint in tests
	APIBaseURL string
	// TokenURL overrides the token endpoint in tests
	TokenURL string
	// AuthorizeURL overrides the user-facing authorization endpoint
	AuthorizeURL   string
	TimeoutSeconds int
	PageLimit      int
}

// Validate checks required fields and applies endpoint defaults.
func (c *AdmitadConfig) Validate() error {
	if c.ClientID == "" {
		return ErrAdmitadConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrAdmitadConfigMissingClientSecret
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = "https://api.admitad.com"
	}
	if c.TokenURL == "" {
		c.TokenURL = c.APIBaseURL + "/token/"
	}
	if c.AuthorizeURL == "" {
		c.AuthorizeURL = "https://www.admitad.com/en/authorize/"
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
// Admitad wire types
// ---------------------------------------------------------------------------

type admitadTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

type admitadActionsResponse struct {
	Results []admitadAction `json:"results"`
	Meta    struct {
		Count  int `json:"count"`
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	} `json:"_meta"`
}

type admitadAction struct {
	ActionID       json.Number `json:"action_id"`
	AdvcampaignID  json.Number `json:"advcampaign_id"`
	AdvcampaignN   string      `json:"advcampaign_name"`
	Promocode      string      `json:"promocode"`
	Cart           float64     `json:"cart"`
	Payment        float64     `json:"payment"`
	Currency       string      `json:"currency"`
	ActionDate     string      `json:"action_date"`
	Status         string      `json:"status"`
	Conversions    int         `json:"conversions"`
	ClickDate      string      `json:"click_date"`
	Subid          string      `json:"subid"`
	WebsiteName    string      `json:"website_name"`
	ActionCountry  string      `json:"action_country"`
	PaymentWebmStr string      `json:"payment_webmaster_currency"`
}

// ---------------------------------------------------------------------------
// Admitad Adapter
// ---------------------------------------------------------------------------

// AdmitadAdapter implements the network.Adapter port for Admitad. Admitad
// authenticates with an OAuth authorization-code exchange and reports
// transactions on a JSON actions endpoint paginated by limit/offset. Amounts
// are quoted in the program currency (AED for the programs we track).
type AdmitadAdapter struct {
	config     *AdmitadConfig
	httpClient *http.Client
}

// NewAdmitadAdapter creates an Admitad adapter with the given configuration.
func NewAdmitadAdapter(config *AdmitadConfig) (*AdmitadAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &AdmitadAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: timeoutOrDefault(config.TimeoutSeconds)},
	}, nil
}

// Code returns the network code this adapter handles.
func (a *AdmitadAdapter) Code() network.Code {
	return network.CodeAdmitad
}

// PageSize returns the limit requested per page.
func (a *AdmitadAdapter) PageSize() int {
	return a.config.PageLimit
}

// AuthorizationURL builds the user-facing consent URL that starts the
// authorization-code flow. The state value round-trips through the redirect.
func (a *AdmitadAdapter) AuthorizationURL(state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", a.config.ClientID)
	q.Set("redirect_uri", a.config.RedirectURI)
	q.Set("scope", "statistics advcampaigns")
	if state != "" {
		q.Set("state", state)
	}
	return a.config.AuthorizeURL + "?" + q.Encode()
}

// Exchange posts an authorization code to the token endpoint. A non-2xx
// response or a missing access_token is an auth failure.
func (a *AdmitadAdapter) Exchange(ctx context.Context, authorizationCode string) (network.Credential, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", authorizationCode)
	form.Set("client_id", a.config.ClientID)
	form.Set("client_secret", a.config.ClientSecret)
	form.Set("redirect_uri", a.config.RedirectURI)
	return a.requestToken(ctx, form)
}

// Refresh exchanges a refresh token for a fresh access token.
func (a *AdmitadAdapter) Refresh(ctx context.Context, refreshToken string) (network.Credential, error) {
	if refreshToken == "" {
		return network.Credential{}, fmt.Errorf("%w: refresh token", network.ErrCredentialMissing)
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", a.config.ClientID)
	form.Set("client_secret", a.config.ClientSecret)
	return a.requestToken(ctx, form)
}

func (a *AdmitadAdapter) requestToken(ctx context.Context, form url.Values) (network.Credential, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return network.Credential{}, fmt.Errorf("admitad: building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return network.Credential{}, fmt.Errorf("%w: %v", network.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return network.Credential{}, err
	}

	var tok admitadTokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return network.Credential{}, fmt.Errorf("%w: token response: %v", network.ErrInvalidResponse, err)
	}
	if resp.StatusCode >= 400 || tok.AccessToken == "" {
		msg := tok.ErrorDesc
		if msg == "" {
			msg = tok.Error
		}
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return network.Credential{}, fmt.Errorf("%w: %s", network.ErrAuthFailed, msg)
	}

	cred := network.Credential{
		Method:       network.AuthMethodOAuth,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if tok.ExpiresIn > 0 {
		cred.ExpiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return cred, nil
}

// TestConnection checks the credential against the profile endpoint.
func (a *AdmitadAdapter) TestConnection(ctx context.Context, cred network.Credential) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.APIBaseURL+"/me/", nil)
	if err != nil {
		return fmt.Errorf("admitad: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", network.ErrTransport, err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// FetchPage fetches one limit/offset page of actions. Dates are formatted
// YYYY-MM-DD.
func (a *AdmitadAdapter) FetchPage(ctx context.Context, cred network.Credential, dateRange network.DateRange, page int) (*network.Page, error) {
	if page < 1 {
		page = 1
	}
	query := url.Values{}
	query.Set("date_start", dateRange.Start.Format("2006-01-02"))
	query.Set("date_end", dateRange.End.Format("2006-01-02"))
	query.Set("limit", strconv.Itoa(a.config.PageLimit))
	query.Set("offset", strconv.Itoa((page-1)*a.config.PageLimit))

	endpoint := a.config.APIBaseURL + "/statistics/actions/?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("admitad: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)

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

	var parsed admitadActionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: actions response: %v", network.ErrInvalidResponse, err)
	}

	result := &network.Page{Transactions: make([]network.Transaction, 0, len(parsed.Results))}
	for _, action := range parsed.Results {
		result.Transactions = append(result.Transactions, a.toTransaction(action))
	}
	result.HasMore = parsed.Meta.Offset+len(parsed.Results) < parsed.Meta.Count
	return result, nil
}

// toTransaction maps one Admitad action to the neutral row shape.
func (a *AdmitadAdapter) toTransaction(action admitadAction) network.Transaction {
	quantity := action.Conversions
	if quantity == 0 {
		// Admitad reports one action per row; absent conversions means one.
		quantity = 1
	}
	tx := network.Transaction{
		NetworkOrderID: action.ActionID.String(),
		CampaignID:     action.AdvcampaignID.String(),
		CampaignName:   action.AdvcampaignN,
		CouponCode:     action.Promocode,
		OrderDate:      parseDate("2006-01-02", firstDateField(action.ActionDate)),
		SalesAmount:    action.Cart,
		Revenue:        action.Payment,
		Currency:       strings.ToUpper(action.Currency),
		Quantity:       quantity,
		CountryCode:    strings.ToUpper(action.ActionCountry),
		Status:         mapAdmitadStatus(action.Status),
		Extras:         map[string]string{},
	}
	if action.Subid != "" {
		tx.Extras["subid"] = action.Subid
	}
	if action.WebsiteName != "" {
		tx.Extras["website"] = action.WebsiteName
	}
	if action.ClickDate != "" {
		tx.Extras["click_date"] = action.ClickDate
	}
	return tx
}

// firstDateField strips a trailing time component from "2024-01-05 13:45:00".
func firstDateField(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i]
	}
	return s
}

// mapAdmitadStatus maps Admitad action statuses to the canonical vocabulary.
func mapAdmitadStatus(status string) string {
	switch strings.ToLower(status) {
	case "approved":
		return "APPROVED"
	case "declined", "rejected":
		return "REJECTED"
	default:
		return "PENDING"
	}
}

// Ensure AdmitadAdapter implements the port and the token exchange contract.
var (
	_ network.Adapter        = (*AdmitadAdapter)(nil)
	_ network.TokenExchanger = (*AdmitadAdapter)(nil)
)
