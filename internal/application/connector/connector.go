// Package connector implements the application services around partner
// network connections: connecting and disconnecting networks, exchanging
// OAuth codes, and running commission syncs through the adapter registry.
package connector

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/affstack/backend/internal/domain/network"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// ErrSyncInProgress indicates another sync already holds the run guard
	// for the same user and network
	ErrSyncInProgress = errors.New("connector: sync already in progress")

	// ErrOAuthOnly indicates manual credentials were posted for a network
	// that connects through the authorization flow
	ErrOAuthOnly = errors.New("connector: network connects via oauth flow")

	// ErrManualOnly indicates the oauth flow was invoked for a network that
	// takes manually supplied credentials
	ErrManualOnly = errors.New("connector: network takes manual credentials")

	// ErrPlanLimit indicates the user's plan does not allow the operation
	ErrPlanLimit = errors.New("connector: plan limit reached")
)

// ---------------------------------------------------------------------------
// Collaborator ports
// ---------------------------------------------------------------------------

// Registry resolves adapters and, where a network supports it, OAuth token
// exchangers. Satisfied by the infrastructure adapter registry.
type Registry interface {
	network.Registry

	// TokenExchangerFor returns the token exchanger for OAuth networks,
	// false for every other auth method
	TokenExchangerFor(code network.Code) (network.TokenExchanger, bool)
}

// OAuthStarter is implemented by adapters whose networks begin with a
// user-facing consent redirect.
type OAuthStarter interface {
	// AuthorizationURL builds the consent URL carrying the state value
	AuthorizationURL(state string) string
}

// RunGuard serializes sync runs per (user, network) key. The production
// implementation is a redis SetNX lock with a TTL.
type RunGuard interface {
	// Acquire takes the guard, false when another run holds it
	Acquire(ctx context.Context, key string) (bool, error)

	// Release frees the guard
	Release(ctx context.Context, key string) error
}

// PlanLimiter gates sync starts on the user's subscription plan. The default
// wiring allows everything; a billing integration can plug in here.
type PlanLimiter interface {
	// AllowSync reports whether the user may start a sync now
	AllowSync(ctx context.Context, userID uuid.UUID) error
}

// allowAllLimiter is the default PlanLimiter.
type allowAllLimiter struct{}

func (allowAllLimiter) AllowSync(context.Context, uuid.UUID) error { return nil }

// AllowAllPlanLimiter returns a limiter that never rejects.
func AllowAllPlanLimiter() PlanLimiter { return allowAllLimiter{} }
