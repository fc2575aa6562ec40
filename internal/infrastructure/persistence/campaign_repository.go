package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/affstack/backend/internal/domain/commission"
	"github.com/affstack/backend/internal/domain/network"
	"github.com/affstack/backend/internal/infrastructure/persistence/models"
)

// GormCampaignRepository implements commission.CampaignRepository using GORM
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewGormCampaignRepository creates a new GormCampaignRepository
func NewGormCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

// GetOrCreate returns the campaign for its natural key, creating it when
// absent. A unique index backs the key; losing a concurrent insert race is
// resolved by re-reading.
func (r *GormCampaignRepository) GetOrCreate(ctx context.Context, candidate *commission.Campaign) (*commission.Campaign, error) {
	existing, err := r.FindByNaturalKey(ctx, candidate.NetworkCode, candidate.UserID, candidate.NetworkCampaignID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, commission.ErrCampaignNotFound) {
		return nil, err
	}

	model := &models.CampaignModel{}
	model.FromDomain(candidate)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.FindByNaturalKey(ctx, candidate.NetworkCode, candidate.UserID, candidate.NetworkCampaignID)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNaturalKey finds a campaign by (network, user, native id)
func (r *GormCampaignRepository) FindByNaturalKey(ctx context.Context, code network.Code, userID uuid.UUID, networkCampaignID string) (*commission.Campaign, error) {
	var model models.CampaignModel
	if err := r.db.WithContext(ctx).
		Where("network_code = ? AND user_id = ? AND network_campaign_id = ?", code, userID, networkCampaignID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", commission.ErrCampaignNotFound, code, networkCampaignID)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForUser lists a user's campaigns on a network
func (r *GormCampaignRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, code network.Code) ([]commission.Campaign, error) {
	var rows []models.CampaignModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND network_code = ?", userID, code).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	campaigns := make([]commission.Campaign, 0, len(rows))
	for i := range rows {
		campaigns = append(campaigns, *rows[i].ToDomain())
	}
	return campaigns, nil
}

// Ensure GormCampaignRepository implements the repository interface
var _ commission.CampaignRepository = (*GormCampaignRepository)(nil)
