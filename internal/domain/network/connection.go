package network

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// ConnectionStatus
// ---------------------------------------------------------------------------

// ConnectionStatus is the lifecycle state of a user's network connection
type ConnectionStatus string

const (
	// ConnectionStatusDisconnected indicates no usable credential is stored
	ConnectionStatusDisconnected ConnectionStatus = "DISCONNECTED"
	// ConnectionStatusPending indicates a connect flow started but has not
	// produced a usable credential yet (e.g. OAuth redirect in flight)
	ConnectionStatusPending ConnectionStatus = "PENDING"
	// ConnectionStatusConnected indicates the credential was accepted
	ConnectionStatusConnected ConnectionStatus = "CONNECTED"
	// ConnectionStatusError indicates the last connect or sync attempt
	// failed with an auth problem
	ConnectionStatusError ConnectionStatus = "ERROR"
)

// IsValid returns true if the status is valid
func (s ConnectionStatus) IsValid() bool {
	switch s {
	case ConnectionStatusDisconnected, ConnectionStatusPending,
		ConnectionStatusConnected, ConnectionStatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of ConnectionStatus
func (s ConnectionStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Connection Entity
// ---------------------------------------------------------------------------

// Connection is the persisted (user, network) credential record. It is owned
// by the user and mutated only by the connect, callback, disconnect and sync
// paths.
type Connection struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	NetworkCode Code
	Status      ConnectionStatus

	// Credential material; which fields are used depends on the network's
	// auth method.
	AccessToken  string
	RefreshToken string
	Cookie       string
	ContactID    string
	AgencyID     string
	ExpiresAt    *time.Time

	// ErrorMessage holds the last auth failure, cleared on success
	ErrorMessage string
	// LastSyncAt is when the last successful sync finished
	LastSyncAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewConnection creates a pending connection for a user and network.
func NewConnection(userID uuid.UUID, code Code) (*Connection, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("network: user id is required")
	}
	if !code.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedNetwork, code)
	}
	now := time.Now()
	return &Connection{
		ID:          uuid.New(),
		UserID:      userID,
		NetworkCode: code,
		Status:      ConnectionStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AuthMethod returns the auth method of the connection's network.
func (c *Connection) AuthMethod() AuthMethod {
	return AuthMethodFor(c.NetworkCode)
}

// Activate stores accepted credential material and marks the connection
// connected. The expiry follows the auth method: OAuth uses the partner
// expiry, static keys get the long sentinel and cookies the fixed manual
// refresh window.
func (c *Connection) Activate(cred Credential, now time.Time) error {
	if err := cred.Validate(); err != nil {
		return err
	}
	c.AccessToken = cred.AccessToken
	c.RefreshToken = cred.RefreshToken
	c.Cookie = cred.Cookie
	c.ContactID = cred.ContactID
	c.AgencyID = cred.AgencyID

	var expiry time.Time
	switch cred.Method {
	case AuthMethodOAuth:
		expiry = cred.ExpiresAt
	case AuthMethodCookie:
		expiry = now.Add(cookieValidity)
	default:
		expiry = now.Add(apiKeyValidity)
	}
	if expiry.IsZero() {
		expiry = now.Add(apiKeyValidity)
	}
	c.ExpiresAt = &expiry
	c.Status = ConnectionStatusConnected
	c.ErrorMessage = ""
	c.UpdatedAt = now
	return nil
}

// MarkPending moves the connection into the pending state while an
// authorization flow is in flight.
func (c *Connection) MarkPending(now time.Time) {
	c.Status = ConnectionStatusPending
	c.UpdatedAt = now
}

// Fail marks the connection errored with a message.
func (c *Connection) Fail(message string, now time.Time) {
	c.Status = ConnectionStatusError
	c.ErrorMessage = message
	c.UpdatedAt = now
}

// Disconnect clears stored credential material.
func (c *Connection) Disconnect(now time.Time) {
	c.Status = ConnectionStatusDisconnected
	c.AccessToken = ""
	c.RefreshToken = ""
	c.Cookie = ""
	c.ContactID = ""
	c.AgencyID = ""
	c.ExpiresAt = nil
	c.ErrorMessage = ""
	c.UpdatedAt = now
}

// MarkSynced records a successful sync completion time.
func (c *Connection) MarkSynced(now time.Time) {
	c.LastSyncAt = &now
	c.UpdatedAt = now
}

// Resolve returns the credential for an adapter call. It fails with an auth
// error when the connection is not connected, material is missing, or the
// material is expired.
func (c *Connection) Resolve(now time.Time) (Credential, error) {
	if c.Status != ConnectionStatusConnected {
		return Credential{}, fmt.Errorf("%w: connection status is %s", ErrNoActiveConnection, c.Status)
	}
	cred := Credential{
		Method:       c.AuthMethod(),
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		Cookie:       c.Cookie,
		ContactID:    c.ContactID,
		AgencyID:     c.AgencyID,
	}
	if c.ExpiresAt != nil {
		cred.ExpiresAt = *c.ExpiresAt
	}
	if err := cred.Validate(); err != nil {
		return Credential{}, err
	}
	if cred.Expired(now) {
		if cred.Method == AuthMethodOAuth && cred.RefreshToken != "" {
			return Credential{}, fmt.Errorf("%w: access token", ErrCredentialExpired)
		}
		// Non-refreshable material can only be replaced by the user.
		return Credential{}, fmt.Errorf("%w: %s credential expired", ErrReconnectRequired, cred.Method)
	}
	return cred, nil
}

// ---------------------------------------------------------------------------
// Repository Interface
// ---------------------------------------------------------------------------

// ConnectionRepository persists network connections.
type ConnectionRepository interface {
	// Save creates or updates a connection
	Save(ctx context.Context, conn *Connection) error

	// FindByUserAndNetwork finds the connection for a (user, network) pair,
	// ErrNoActiveConnection when none exists
	FindByUserAndNetwork(ctx context.Context, userID uuid.UUID, code Code) (*Connection, error)

	// FindAllForUser lists all of a user's connections
	FindAllForUser(ctx context.Context, userID uuid.UUID) ([]Connection, error)

	// Delete removes a connection
	Delete(ctx context.Context, id uuid.UUID) error
}

// TokenExchanger swaps an OAuth authorization code for bearer material, and
// refreshes it once expired. Only OAuth networks have a real implementation;
// the contract mirrors the per-network token endpoints.
type TokenExchanger interface {
	// Exchange posts the authorization code to the token endpoint
	Exchange(ctx context.Context, authorizationCode string) (Credential, error)

	// Refresh exchanges a refresh token for fresh bearer material.
	// Non-OAuth implementations return ErrRefreshNotSupported, which callers
	// surface as "reconnect required".
	Refresh(ctx context.Context, refreshToken string) (Credential, error)
}
