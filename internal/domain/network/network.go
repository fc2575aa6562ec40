package network

import (
	"context"
	"errors"
	"time"
)

// ---------------------------------------------------------------------------
// Network Errors
// ---------------------------------------------------------------------------

var (
	// Auth errors - terminal for the request, connection marked error
	ErrNoActiveConnection  = errors.New("network: no active connection")
	ErrAuthFailed          = errors.New("network: authentication failed")
	ErrCredentialMissing   = errors.New("network: credential material missing")
	ErrCredentialExpired   = errors.New("network: credential expired")
	ErrReconnectRequired   = errors.New("network: reconnect required")
	ErrRefreshNotSupported = errors.New("network: credential refresh not supported")

	// Transport errors - abort the current sync
	ErrTransport       = errors.New("network: transport failure")
	ErrInvalidResponse = errors.New("network: invalid response")
	ErrRateLimited     = errors.New("network: rate limited by partner")

	// Row-level errors - the offending row is skipped, sync continues
	ErrRowParse   = errors.New("network: row parse failure")
	ErrRowInvalid = errors.New("network: row missing mandatory field")

	// Registry errors
	ErrUnsupportedNetwork = errors.New("network: unsupported network code")
)

// ---------------------------------------------------------------------------
// Code identifies a partner affiliate network
// ---------------------------------------------------------------------------

// Code identifies a partner affiliate network
type Code string

const (
	// CodeAdmitad represents the Admitad network (OAuth bearer tokens)
	CodeAdmitad Code = "ADMITAD"
	// CodeBoostiny represents the Boostiny network (static API key)
	CodeBoostiny Code = "BOOSTINY"
	// CodeArabClicks represents the ArabClicks network (cookie auth, HTML report)
	CodeArabClicks Code = "ARABCLICKS"
	// CodeOptimise represents the Optimise network (composite credentials)
	CodeOptimise Code = "OPTIMISE"
	// CodeDCMnetwork represents the DCMnetwork network (static API key)
	CodeDCMnetwork Code = "DCMNETWORK"
	// CodePlatformance represents the Platformance network (cookie auth)
	CodePlatformance Code = "PLATFORMANCE"
)

// AllCodes lists every supported network code in a stable order.
func AllCodes() []Code {
	return []Code{
		CodeAdmitad, CodeBoostiny, CodeArabClicks,
		CodeOptimise, CodeDCMnetwork, CodePlatformance,
	}
}

// IsValid returns true if the network code is supported
func (c Code) IsValid() bool {
	switch c {
	case CodeAdmitad, CodeBoostiny, CodeArabClicks,
		CodeOptimise, CodeDCMnetwork, CodePlatformance:
		return true
	default:
		return false
	}
}

// String returns the string representation of Code
func (c Code) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the network
func (c Code) DisplayName() string {
	switch c {
	case CodeAdmitad:
		return "Admitad"
	case CodeBoostiny:
		return "Boostiny"
	case CodeArabClicks:
		return "ArabClicks"
	case CodeOptimise:
		return "Optimise"
	case CodeDCMnetwork:
		return "DCMnetwork"
	case CodePlatformance:
		return "Platformance"
	default:
		return string(c)
	}
}

// ---------------------------------------------------------------------------
// DateRange
// ---------------------------------------------------------------------------

// DateRange is an inclusive calendar date range for a sync run.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a validated date range. Times are truncated to dates.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.IsZero() || end.IsZero() {
		return DateRange{}, errors.New("network: start and end dates are required")
	}
	start = start.Truncate(24 * time.Hour)
	end = end.Truncate(24 * time.Hour)
	if start.After(end) {
		return DateRange{}, errors.New("network: start date must not be after end date")
	}
	return DateRange{Start: start, End: end}, nil
}

// Contains reports whether t falls within the range (date precision).
func (r DateRange) Contains(t time.Time) bool {
	d := t.Truncate(24 * time.Hour)
	return !d.Before(r.Start) && !d.After(r.End)
}

// ---------------------------------------------------------------------------
// Raw transaction rows
// ---------------------------------------------------------------------------

// Transaction is one partner-reported transaction in network-neutral shape.
// Adapters fill what the wire payload carries; absent numerics stay zero and
// absent strings stay empty. Monetary amounts are still in the source
// currency at this stage.
type Transaction struct {
	// NetworkOrderID is the partner's native transaction/action identifier
	NetworkOrderID string
	// CampaignID is the partner's native campaign/advertiser identifier
	CampaignID string
	// CampaignName is the partner-reported campaign display name
	CampaignName string
	// CouponCode is the promo/voucher code, empty when the row carries none
	CouponCode string
	// OrderDate is the partner-reported transaction date
	OrderDate time.Time
	// SalesAmount is the cart/sale value in the source currency
	SalesAmount float64
	// Revenue is the commission payout in the source currency
	Revenue float64
	// Currency is the ISO currency code the amounts are quoted in
	Currency string
	// Quantity is the conversion count for the row
	Quantity int
	// CountryCode is the ISO country code when the network reports codes
	CountryCode string
	// CountryName is the country name when the network reports names instead
	CountryName string
	// Status is the partner-reported approval status, already mapped to the
	// canonical approved/pending/rejected vocabulary
	Status string
	// Extras carries non-canonical fields (clicks, sub-IDs, traffic source)
	Extras map[string]string
}

// Page is one fetched page of partner transactions.
type Page struct {
	// Transactions are the rows of this page
	Transactions []Transaction
	// HasMore is set when the partner signals further pages explicitly
	HasMore bool
	// RateLimited is set when the partner asked us to slow down; the
	// orchestrator paces before the next page
	RateLimited bool
}

// ---------------------------------------------------------------------------
// Adapter Port Interface
// ---------------------------------------------------------------------------

// Adapter is the port every partner network implements. Implementations fix
// the endpoint set, request shape, date formatting and header requirements of
// one network. Adapters never retry; transport failures surface wrapped in
// ErrTransport for the orchestrator to abort on.
type Adapter interface {
	// Code returns the network this adapter handles
	Code() Code

	// FetchPage fetches one page of transactions for the date range.
	// Page numbering is 1-based. The page size is fixed by the adapter's
	// PageSize; a returned page shorter than PageSize with HasMore unset
	// means exhaustion.
	FetchPage(ctx context.Context, cred Credential, dateRange DateRange, page int) (*Page, error)

	// TestConnection verifies the credential against a cheap endpoint
	TestConnection(ctx context.Context, cred Credential) error

	// PageSize returns the page size the adapter requests from the partner
	PageSize() int
}

// Registry resolves adapters by network code.
type Registry interface {
	// Get returns the adapter for the code, ErrUnsupportedNetwork otherwise
	Get(code Code) (Adapter, error)

	// List returns all registered adapters
	List() []Adapter
}

// ---------------------------------------------------------------------------
// Pacer
// ---------------------------------------------------------------------------

// Pacer throttles page requests against a partner. The production wiring is
// token-bucket based; tests inject a no-op implementation so sync logic can
// be exercised without wall-clock waits.
type Pacer interface {
	// Wait blocks until the next page request may be issued, or until the
	// context is done
	Wait(ctx context.Context) error
}
