package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/affstack/backend/internal/domain/network"
)

// ---------------------------------------------------------------------------
// Campaign
// ---------------------------------------------------------------------------

// CampaignType classifies how a campaign drives traffic
type CampaignType string

const (
	// CampaignTypeLink indicates tracked-link campaigns
	CampaignTypeLink CampaignType = "LINK"
	// CampaignTypeCoupon indicates coupon-code campaigns
	CampaignTypeCoupon CampaignType = "COUPON"
	// CampaignTypePerformance indicates performance/CPA campaigns
	CampaignTypePerformance CampaignType = "PERFORMANCE"
)

// IsValid returns true if the campaign type is valid
func (t CampaignType) IsValid() bool {
	switch t {
	case CampaignTypeLink, CampaignTypeCoupon, CampaignTypePerformance:
		return true
	default:
		return false
	}
}

// CampaignStatus is the lifecycle state of a campaign
type CampaignStatus string

const (
	// CampaignStatusActive indicates the campaign accepts new transactions
	CampaignStatusActive CampaignStatus = "ACTIVE"
	// CampaignStatusInactive indicates the campaign is paused or ended
	CampaignStatusInactive CampaignStatus = "INACTIVE"
)

// Campaign is an advertiser program observed on a partner network. Campaigns
// are created lazily the first time a transaction references them and are
// never deleted by the sync path. Natural key:
// (network code, user, network campaign id).
type Campaign struct {
	ID                uuid.UUID
	NetworkCode       network.Code
	UserID            uuid.UUID
	NetworkCampaignID string
	Name              string
	Type              CampaignType
	Status            CampaignStatus
	// AdvertiserName is optional partner-reported advertiser metadata
	AdvertiserName string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// sentinelCampaignName is used when the source omits the campaign name.
const sentinelCampaignName = "Unknown Campaign"

// NewCampaign creates a campaign for its natural key. An empty name gets the
// sentinel default.
func NewCampaign(code network.Code, userID uuid.UUID, networkCampaignID, name string) (*Campaign, error) {
	if !code.IsValid() {
		return nil, fmt.Errorf("%w: %q", network.ErrUnsupportedNetwork, code)
	}
	if userID == uuid.Nil {
		return nil, fmt.Errorf("commission: user id is required")
	}
	if networkCampaignID == "" {
		return nil, fmt.Errorf("commission: network campaign id is required")
	}
	if name == "" {
		name = sentinelCampaignName
	}
	now := time.Now()
	return &Campaign{
		ID:                uuid.New(),
		NetworkCode:       code,
		UserID:            userID,
		NetworkCampaignID: networkCampaignID,
		Name:              name,
		Type:              CampaignTypePerformance,
		Status:            CampaignStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// CampaignRepository persists campaigns.
type CampaignRepository interface {
	// GetOrCreate returns the campaign for its natural key, creating it when
	// absent. Implementations must never produce duplicates for the same
	// key.
	GetOrCreate(ctx context.Context, candidate *Campaign) (*Campaign, error)

	// FindByNaturalKey finds a campaign by (network, user, native id)
	FindByNaturalKey(ctx context.Context, code network.Code, userID uuid.UUID, networkCampaignID string) (*Campaign, error)

	// FindAllForUser lists a user's campaigns on a network
	FindAllForUser(ctx context.Context, userID uuid.UUID, code network.Code) ([]Campaign, error)
}
