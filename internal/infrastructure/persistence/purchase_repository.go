package persistence

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/affstack/backend/internal/domain/commission"
	"github.com/affstack/backend/internal/domain/network"
	"github.com/affstack/backend/internal/infrastructure/persistence/models"
)

// purchaseInsertBatchSize bounds one multi-row insert statement.
const purchaseInsertBatchSize = 200

// GormPurchaseRepository implements commission.PurchaseRepository using GORM
type GormPurchaseRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRepository creates a new GormPurchaseRepository
func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

// SaveBatch inserts purchases
func (r *GormPurchaseRepository) SaveBatch(ctx context.Context, purchases []*commission.Purchase) error {
	if len(purchases) == 0 {
		return nil
	}
	rows := make([]models.PurchaseModel, 0, len(purchases))
	for _, p := range purchases {
		model := models.PurchaseModel{}
		model.FromDomain(p)
		rows = append(rows, model)
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, purchaseInsertBatchSize).Error
}

// ReplaceRange deletes and reinserts a (user, network, range) slice in one
// transaction. Re-running the same range is a no-op in effect: the deletion
// clears the previous run's rows before the new batch lands.
func (r *GormPurchaseRepository) ReplaceRange(ctx context.Context, userID uuid.UUID, code network.Code, dateRange network.DateRange, purchases []*commission.Purchase) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scoped := &GormPurchaseRepository{db: tx}
		if err := scoped.DeleteRange(ctx, userID, code, dateRange); err != nil {
			return err
		}
		return scoped.SaveBatch(ctx, purchases)
	})
}

// DeleteRange removes a user's purchases on a network inside the range
func (r *GormPurchaseRepository) DeleteRange(ctx context.Context, userID uuid.UUID, code network.Code, dateRange network.DateRange) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND network_code = ? AND order_date >= ? AND order_date <= ?",
			userID, code, dateRange.Start, dateRange.End).
		Delete(&models.PurchaseModel{}).Error
}

// FindCouponIDsInRange lists the distinct coupons referenced inside the range
func (r *GormPurchaseRepository) FindCouponIDsInRange(ctx context.Context, userID uuid.UUID, code network.Code, dateRange network.DateRange) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.PurchaseModel{}).
		Where("user_id = ? AND network_code = ? AND order_date >= ? AND order_date <= ?",
			userID, code, dateRange.Start, dateRange.End).
		Where("coupon_id IS NOT NULL").
		Distinct().
		Pluck("coupon_id", &ids).Error
	return ids, err
}

// CountRange counts purchases in a range
func (r *GormPurchaseRepository) CountRange(ctx context.Context, userID uuid.UUID, code network.Code, dateRange network.DateRange) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PurchaseModel{}).
		Where("user_id = ? AND network_code = ? AND order_date >= ? AND order_date <= ?",
			userID, code, dateRange.Start, dateRange.End).
		Count(&count).Error
	return count, err
}

// SumRevenueRange sums USD revenue in a range
func (r *GormPurchaseRepository) SumRevenueRange(ctx context.Context, userID uuid.UUID, code network.Code, dateRange network.DateRange) (decimal.Decimal, error) {
	var total sql.NullString
	err := r.db.WithContext(ctx).
		Model(&models.PurchaseModel{}).
		Where("user_id = ? AND network_code = ? AND order_date >= ? AND order_date <= ?",
			userID, code, dateRange.Start, dateRange.End).
		Select("SUM(revenue)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid || total.String == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(total.String)
}

// Ensure GormPurchaseRepository implements the repository interface
var _ commission.PurchaseRepository = (*GormPurchaseRepository)(nil)
