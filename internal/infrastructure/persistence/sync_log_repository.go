package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/affstack/backend/internal/domain/network"
	"github.com/affstack/backend/internal/infrastructure/persistence/models"
)

// defaultSyncLogLimit caps FindRecent when the caller passes no limit.
const defaultSyncLogLimit = 20

// GormSyncLogRepository implements network.SyncLogRepository using GORM
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GormSyncLogRepository
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

// Save creates or updates a sync log. Logs are written once as RUNNING and
// updated in place when the run finishes.
func (r *GormSyncLogRepository) Save(ctx context.Context, log *network.SyncLog) error {
	model := models.SyncLogModelFromDomain(log)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// FindRecent lists the most recent runs for a (user, network) pair
func (r *GormSyncLogRepository) FindRecent(ctx context.Context, userID uuid.UUID, code network.Code, limit int) ([]network.SyncLog, error) {
	if limit <= 0 {
		limit = defaultSyncLogLimit
	}
	var rows []models.SyncLogModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND network_code = ?", userID, code).
		Order("started_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	logs := make([]network.SyncLog, 0, len(rows))
	for i := range rows {
		logs = append(logs, *rows[i].ToDomain())
	}
	return logs, nil
}

// Ensure GormSyncLogRepository implements the repository interface
var _ network.SyncLogRepository = (*GormSyncLogRepository)(nil)
