package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Coupon
// ---------------------------------------------------------------------------

// CouponStatus is the lifecycle state of a coupon
type CouponStatus string

const (
	// CouponStatusActive indicates the coupon is usable
	CouponStatusActive CouponStatus = "ACTIVE"
	// CouponStatusExpired indicates the coupon is past its expiry
	CouponStatusExpired CouponStatus = "EXPIRED"
)

// Coupon is a promo code observed on transactions of a campaign. Created
// lazily when a transaction carries a code; transactions without one get a
// sentinel code derived from the campaign name so the (campaign, code)
// natural key stays total.
type Coupon struct {
	ID         uuid.UUID
	CampaignID uuid.UUID
	Code       string
	Status     CouponStatus
	// UsageCount counts transactions observed with this code
	UsageCount int
	// DiscountTerms is optional partner-reported discount wording
	DiscountTerms string
	ExpiresAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SentinelCouponCode builds the placeholder code for transactions without a
// promo code.
func SentinelCouponCode(campaignName string) string {
	if campaignName == "" {
		campaignName = sentinelCampaignName
	}
	return "NA-" + campaignName
}

// NewCoupon creates a coupon for a campaign. An empty code is replaced with
// the sentinel for the campaign name.
func NewCoupon(campaignID uuid.UUID, code, campaignName string) (*Coupon, error) {
	if campaignID == uuid.Nil {
		return nil, fmt.Errorf("commission: campaign id is required")
	}
	if code == "" {
		code = SentinelCouponCode(campaignName)
	}
	now := time.Now()
	return &Coupon{
		ID:         uuid.New(),
		CampaignID: campaignID,
		Code:       code,
		Status:     CouponStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// CouponRepository persists coupons.
type CouponRepository interface {
	// GetOrCreate returns the coupon for (campaign, code), creating it when
	// absent. Never produces duplicates for the same key.
	GetOrCreate(ctx context.Context, candidate *Coupon) (*Coupon, error)

	// FindByCampaignAndCode finds a coupon by its natural key
	FindByCampaignAndCode(ctx context.Context, campaignID uuid.UUID, code string) (*Coupon, error)

	// RecalculateUsage resets each coupon's usage counter to the number of
	// persisted purchases referencing it. Recomputing from stored rows keeps
	// the counter stable when a range is replaced, no matter how many times
	// the same window is synced.
	RecalculateUsage(ctx context.Context, ids []uuid.UUID) error
}
