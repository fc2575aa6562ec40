package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/affstack/backend/internal/domain/commission"
	"github.com/affstack/backend/internal/infrastructure/persistence/models"
)

// GormCouponRepository implements commission.CouponRepository using GORM
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository creates a new GormCouponRepository
func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// GetOrCreate returns the coupon for (campaign, code), creating it when
// absent. Same race resolution as campaigns: the unique index decides, the
// loser re-reads.
func (r *GormCouponRepository) GetOrCreate(ctx context.Context, candidate *commission.Coupon) (*commission.Coupon, error) {
	existing, err := r.FindByCampaignAndCode(ctx, candidate.CampaignID, candidate.Code)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, commission.ErrCouponNotFound) {
		return nil, err
	}

	model := &models.CouponModel{}
	model.FromDomain(candidate)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.FindByCampaignAndCode(ctx, candidate.CampaignID, candidate.Code)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCampaignAndCode finds a coupon by its natural key
func (r *GormCouponRepository) FindByCampaignAndCode(ctx context.Context, campaignID uuid.UUID, code string) (*commission.Coupon, error) {
	var model models.CouponModel
	if err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND code = ?", campaignID, code).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %q", commission.ErrCouponNotFound, code)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// RecalculateUsage resets usage_count to the number of purchases currently
// referencing each coupon. Counting the persisted rows instead of adding a
// delta keeps the counter correct when a date range is replaced.
func (r *GormCouponRepository) RecalculateUsage(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.CouponModel{}).
		Where("id IN ?", ids).
		UpdateColumn("usage_count",
			gorm.Expr("(SELECT COUNT(*) FROM purchases WHERE purchases.coupon_id = coupons.id)")).Error
}

// Ensure GormCouponRepository implements the repository interface
var _ commission.CouponRepository = (*GormCouponRepository)(nil)
