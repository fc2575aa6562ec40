package dto

import (
	"errors"
	"net/http"

	"github.com/affstack/backend/internal/application/connector"
	"github.com/affstack/backend/internal/domain/commission"
	"github.com/affstack/backend/internal/domain/network"
)

// Error code constants
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input and validation error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
)

// API authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
)

// Resource error codes
const (
	ErrCodeNotFound = "ERR_NOT_FOUND"
	ErrCodeConflict = "ERR_CONFLICT"
)

// Partner network error codes
const (
	// ErrCodeUnsupportedNetwork is used when the network code is unknown
	ErrCodeUnsupportedNetwork = "ERR_UNSUPPORTED_NETWORK"
	// ErrCodeNotConnected is used when no usable connection exists
	ErrCodeNotConnected = "ERR_NOT_CONNECTED"
	// ErrCodeNetworkAuth is used when the partner rejected our credential
	ErrCodeNetworkAuth = "ERR_NETWORK_AUTH"
	// ErrCodeReconnectRequired is used when the stored credential can only
	// be replaced by the user
	ErrCodeReconnectRequired = "ERR_RECONNECT_REQUIRED"
	// ErrCodeSyncInProgress is used when a sync already holds the run guard
	ErrCodeSyncInProgress = "ERR_SYNC_IN_PROGRESS"
	// ErrCodePartnerUpstream is used for partner transport failures
	ErrCodePartnerUpstream = "ERR_PARTNER_UPSTREAM"
	// ErrCodeRateLimited is used when the partner throttled us
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodePlanLimit is used when the user's plan blocks the operation
	ErrCodePlanLimit = "ERR_PLAN_LIMIT"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,

	ErrCodeNotFound: http.StatusNotFound,
	ErrCodeConflict: http.StatusConflict,

	ErrCodeUnsupportedNetwork: http.StatusNotFound,
	ErrCodeNotConnected:       http.StatusConflict,
	ErrCodeNetworkAuth:        http.StatusUnprocessableEntity,
	ErrCodeReconnectRequired:  http.StatusUnprocessableEntity,
	ErrCodeSyncInProgress:     http.StatusConflict,
	ErrCodePartnerUpstream:    http.StatusBadGateway,
	ErrCodeRateLimited:        http.StatusTooManyRequests,
	ErrCodePlanLimit:          http.StatusForbidden,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// MapError translates a service error into an API error code. Sentinels from
// the domain packages map to stable codes; anything unexpected is internal.
func MapError(err error) string {
	switch {
	case errors.Is(err, network.ErrUnsupportedNetwork):
		return ErrCodeUnsupportedNetwork
	case errors.Is(err, network.ErrNoActiveConnection):
		return ErrCodeNotConnected
	case errors.Is(err, network.ErrReconnectRequired):
		return ErrCodeReconnectRequired
	case errors.Is(err, network.ErrAuthFailed),
		errors.Is(err, network.ErrCredentialMissing),
		errors.Is(err, network.ErrCredentialExpired),
		errors.Is(err, network.ErrRefreshNotSupported):
		return ErrCodeNetworkAuth
	case errors.Is(err, network.ErrRateLimited):
		return ErrCodeRateLimited
	case errors.Is(err, network.ErrTransport),
		errors.Is(err, network.ErrInvalidResponse):
		return ErrCodePartnerUpstream
	case errors.Is(err, connector.ErrSyncInProgress):
		return ErrCodeSyncInProgress
	case errors.Is(err, connector.ErrOAuthOnly),
		errors.Is(err, connector.ErrManualOnly):
		return ErrCodeInvalidInput
	case errors.Is(err, connector.ErrPlanLimit):
		return ErrCodePlanLimit
	case errors.Is(err, commission.ErrCampaignNotFound),
		errors.Is(err, commission.ErrCouponNotFound),
		errors.Is(err, commission.ErrCountryNotFound):
		return ErrCodeNotFound
	default:
		return ErrCodeInternal
	}
}
