package network

import (
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// AuthMethod
// ---------------------------------------------------------------------------

// AuthMethod identifies how a network authenticates requests
type AuthMethod string

const (
	// AuthMethodOAuth is an authorization-code exchange yielding a bearer
	// access token with optional refresh token and expiry
	AuthMethodOAuth AuthMethod = "OAUTH"
	// AuthMethodAPIKey is a caller-supplied static key, treated as
	// non-expiring
	AuthMethodAPIKey AuthMethod = "API_KEY"
	// AuthMethodCookie is a raw cookie header captured out-of-band from the
	// partner's web UI, replayed verbatim
	AuthMethodCookie AuthMethod = "COOKIE"
	// AuthMethodComposite is a bearer-like key plus auxiliary identifiers
	// that must all be present together
	AuthMethodComposite AuthMethod = "COMPOSITE"
)

// IsValid returns true if the auth method is valid
func (m AuthMethod) IsValid() bool {
	switch m {
	case AuthMethodOAuth, AuthMethodAPIKey, AuthMethodCookie, AuthMethodComposite:
		return true
	default:
		return false
	}
}

// String returns the string representation of AuthMethod
func (m AuthMethod) String() string {
	return string(m)
}

// AuthMethodFor returns the auth method a network uses.
func AuthMethodFor(code Code) AuthMethod {
	switch code {
	case CodeAdmitad:
		return AuthMethodOAuth
	case CodeBoostiny, CodeDCMnetwork:
		return AuthMethodAPIKey
	case CodeArabClicks, CodePlatformance:
		return AuthMethodCookie
	case CodeOptimise:
		return AuthMethodComposite
	default:
		return ""
	}
}

// cookieValidity is how long a captured cookie session is assumed to stay
// valid before the user has to reconnect manually.
const cookieValidity = 30 * 24 * time.Hour

// apiKeyValidity is the sentinel expiry for static keys.
const apiKeyValidity = 10 * 365 * 24 * time.Hour

// ---------------------------------------------------------------------------
// Credential
// ---------------------------------------------------------------------------

// Credential is the resolved auth material an adapter needs for one request.
// Exactly the fields relevant to Method are populated.
type Credential struct {
	// Method selects which fields below are meaningful
	Method AuthMethod
	// AccessToken is the bearer token (OAuth), static key (APIKey) or
	// composite primary key
	AccessToken string
	// RefreshToken is set for OAuth connections that support refresh
	RefreshToken string
	// ExpiresAt is when the material stops being usable
	ExpiresAt time.Time
	// Cookie is the raw Cookie header value for cookie-auth networks
	Cookie string
	// ContactID is the auxiliary contact identifier (composite only)
	ContactID string
	// AgencyID is the auxiliary agency identifier (composite only)
	AgencyID string
}

// Validate checks that all material the method requires is present.
func (c Credential) Validate() error {
	switch c.Method {
	case AuthMethodOAuth:
		if c.AccessToken == "" {
			return fmt.Errorf("%w: access token", ErrCredentialMissing)
		}
	case AuthMethodAPIKey:
		if c.AccessToken == "" {
			return fmt.Errorf("%w: api key", ErrCredentialMissing)
		}
	case AuthMethodCookie:
		if c.Cookie == "" {
			return fmt.Errorf("%w: cookie", ErrCredentialMissing)
		}
	case AuthMethodComposite:
		if c.AccessToken == "" {
			return fmt.Errorf("%w: api key", ErrCredentialMissing)
		}
		if c.ContactID == "" {
			return fmt.Errorf("%w: contact id", ErrCredentialMissing)
		}
		if c.AgencyID == "" {
			return fmt.Errorf("%w: agency id", ErrCredentialMissing)
		}
	default:
		return fmt.Errorf("%w: unknown auth method %q", ErrCredentialMissing, c.Method)
	}
	return nil
}

// Expired reports whether the material is past its expiry at the given time.
// A zero ExpiresAt never expires.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
