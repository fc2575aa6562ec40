package connector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/affstack/backend/internal/domain/network"
)

// ---------------------------------------------------------------------------
// Inputs and views
// ---------------------------------------------------------------------------

// ConnectInput carries the manually supplied credential material for
// non-OAuth networks. Which fields matter depends on the network's auth
// method; Credential.Validate enforces completeness.
type ConnectInput struct {
	APIKey    string
	Cookie    string
	ContactID string
	AgencyID  string
}

// NetworkOverview is one row of the supported-networks listing: static
// network facts plus the user's connection state.
type NetworkOverview struct {
	Code        network.Code
	DisplayName string
	AuthMethod  network.AuthMethod
	Status      network.ConnectionStatus
	LastSyncAt  *time.Time
	ExpiresAt   *time.Time
}

// ---------------------------------------------------------------------------
// ConnectionService
// ---------------------------------------------------------------------------

// ConnectionService manages the lifecycle of a user's network connections.
type ConnectionService struct {
	connections network.ConnectionRepository
	registry    Registry
	logger      *zap.Logger
}

// NewConnectionService creates a ConnectionService.
func NewConnectionService(connections network.ConnectionRepository, registry Registry, logger *zap.Logger) *ConnectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionService{
		connections: connections,
		registry:    registry,
		logger:      logger,
	}
}

// Connect stores manually supplied credentials for a non-OAuth network. The
// credential is verified against the partner before it is persisted; a
// rejected credential leaves the connection in the error state.
func (s *ConnectionService) Connect(ctx context.Context, userID uuid.UUID, code network.Code, input ConnectInput) (*network.Connection, error) {
	adapter, err := s.registry.Get(code)
	if err != nil {
		return nil, err
	}
	method := network.AuthMethodFor(code)
	if method == network.AuthMethodOAuth {
		return nil, fmt.Errorf("%w: %s", ErrOAuthOnly, code)
	}

	cred := network.Credential{
		Method:      method,
		AccessToken: input.APIKey,
		Cookie:      input.Cookie,
		ContactID:   input.ContactID,
		AgencyID:    input.AgencyID,
	}
	if err := cred.Validate(); err != nil {
		return nil, err
	}

	conn, err := s.loadOrCreate(ctx, userID, code)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := adapter.TestConnection(ctx, cred); err != nil {
		conn.Fail(err.Error(), now)
		if saveErr := s.connections.Save(ctx, conn); saveErr != nil {
			s.logger.Error("saving failed connection state",
				zap.String("network", code.String()), zap.Error(saveErr))
		}
		return nil, fmt.Errorf("verifying %s credentials: %w", code, err)
	}

	if err := conn.Activate(cred, now); err != nil {
		return nil, err
	}
	if err := s.connections.Save(ctx, conn); err != nil {
		return nil, fmt.Errorf("saving connection: %w", err)
	}
	s.logger.Info("network connected",
		zap.String("network", code.String()),
		zap.String("user_id", userID.String()))
	return conn, nil
}

// BeginOAuth starts the authorization-code flow: it creates (or resets to
// pending) the connection and returns the consent URL to redirect the user
// to. The connection id rides along as the state value.
func (s *ConnectionService) BeginOAuth(ctx context.Context, userID uuid.UUID, code network.Code) (string, error) {
	adapter, err := s.registry.Get(code)
	if err != nil {
		return "", err
	}
	starter, ok := adapter.(OAuthStarter)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrManualOnly, code)
	}

	conn, err := s.loadOrCreate(ctx, userID, code)
	if err != nil {
		return "", err
	}
	conn.MarkPending(time.Now())
	if err := s.connections.Save(ctx, conn); err != nil {
		return "", fmt.Errorf("saving pending connection: %w", err)
	}
	return starter.AuthorizationURL(conn.ID.String()), nil
}

// CompleteOAuth finishes the authorization-code flow by exchanging the code
// for bearer material and activating the connection.
func (s *ConnectionService) CompleteOAuth(ctx context.Context, userID uuid.UUID, code network.Code, authorizationCode string) (*network.Connection, error) {
	exchanger, ok := s.registry.TokenExchangerFor(code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrManualOnly, code)
	}
	conn, err := s.loadOrCreate(ctx, userID, code)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	cred, err := exchanger.Exchange(ctx, authorizationCode)
	if err != nil {
		conn.Fail(err.Error(), now)
		if saveErr := s.connections.Save(ctx, conn); saveErr != nil {
			s.logger.Error("saving failed connection state",
				zap.String("network", code.String()), zap.Error(saveErr))
		}
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	if err := conn.Activate(cred, now); err != nil {
		return nil, err
	}
	if err := s.connections.Save(ctx, conn); err != nil {
		return nil, fmt.Errorf("saving connection: %w", err)
	}
	s.logger.Info("oauth connection completed",
		zap.String("network", code.String()),
		zap.String("user_id", userID.String()))
	return conn, nil
}

// Disconnect clears the stored credential material. The connection row stays
// so history remains attached.
func (s *ConnectionService) Disconnect(ctx context.Context, userID uuid.UUID, code network.Code) error {
	conn, err := s.connections.FindByUserAndNetwork(ctx, userID, code)
	if err != nil {
		return err
	}
	conn.Disconnect(time.Now())
	return s.connections.Save(ctx, conn)
}

// Test resolves the stored credential and verifies it against the partner.
// Expired OAuth material is refreshed transparently before the check.
func (s *ConnectionService) Test(ctx context.Context, userID uuid.UUID, code network.Code) error {
	adapter, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	conn, err := s.connections.FindByUserAndNetwork(ctx, userID, code)
	if err != nil {
		return err
	}
	cred, err := s.ResolveCredential(ctx, conn)
	if err != nil {
		return err
	}

	if err := adapter.TestConnection(ctx, cred); err != nil {
		if errors.Is(err, network.ErrAuthFailed) {
			conn.Fail(err.Error(), time.Now())
			if saveErr := s.connections.Save(ctx, conn); saveErr != nil {
				s.logger.Error("saving failed connection state",
					zap.String("network", code.String()), zap.Error(saveErr))
			}
		}
		return err
	}
	return nil
}

// Overview lists every supported network with the user's connection state,
// disconnected when no row exists yet.
func (s *ConnectionService) Overview(ctx context.Context, userID uuid.UUID) ([]NetworkOverview, error) {
	existing, err := s.connections.FindAllForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byCode := make(map[network.Code]*network.Connection, len(existing))
	for i := range existing {
		byCode[existing[i].NetworkCode] = &existing[i]
	}

	codes := network.AllCodes()
	overview := make([]NetworkOverview, 0, len(codes))
	for _, code := range codes {
		row := NetworkOverview{
			Code:        code,
			DisplayName: code.DisplayName(),
			AuthMethod:  network.AuthMethodFor(code),
			Status:      network.ConnectionStatusDisconnected,
		}
		if conn, ok := byCode[code]; ok {
			row.Status = conn.Status
			row.LastSyncAt = conn.LastSyncAt
			row.ExpiresAt = conn.ExpiresAt
		}
		overview = append(overview, row)
	}
	return overview, nil
}

// ---------------------------------------------------------------------------
// Internals
// ---------------------------------------------------------------------------

// loadOrCreate returns the user's connection for the network, creating a
// pending one when none exists.
func (s *ConnectionService) loadOrCreate(ctx context.Context, userID uuid.UUID, code network.Code) (*network.Connection, error) {
	conn, err := s.connections.FindByUserAndNetwork(ctx, userID, code)
	if err == nil {
		return conn, nil
	}
	if !errors.Is(err, network.ErrNoActiveConnection) {
		return nil, err
	}
	return network.NewConnection(userID, code)
}

// ResolveCredential resolves the connection's credential, refreshing expired
// OAuth material through the network's token exchanger.
func (s *ConnectionService) ResolveCredential(ctx context.Context, conn *network.Connection) (network.Credential, error) {
	now := time.Now()
	cred, err := conn.Resolve(now)
	if err == nil {
		return cred, nil
	}
	if !errors.Is(err, network.ErrCredentialExpired) {
		return network.Credential{}, err
	}

	exchanger, ok := s.registry.TokenExchangerFor(conn.NetworkCode)
	if !ok {
		return network.Credential{}, fmt.Errorf("%w: %s", network.ErrReconnectRequired, conn.NetworkCode)
	}
	refreshed, err := exchanger.Refresh(ctx, conn.RefreshToken)
	if err != nil {
		conn.Fail(err.Error(), now)
		if saveErr := s.connections.Save(ctx, conn); saveErr != nil {
			s.logger.Error("saving failed connection state",
				zap.String("network", conn.NetworkCode.String()), zap.Error(saveErr))
		}
		return network.Credential{}, fmt.Errorf("refreshing %s token: %w", conn.NetworkCode, err)
	}
	if err := conn.Activate(refreshed, now); err != nil {
		return network.Credential{}, err
	}
	if err := s.connections.Save(ctx, conn); err != nil {
		return network.Credential{}, fmt.Errorf("saving refreshed connection: %w", err)
	}
	s.logger.Info("oauth token refreshed",
		zap.String("network", conn.NetworkCode.String()))
	return refreshed, nil
}
