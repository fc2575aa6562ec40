package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/affstack/backend/internal/domain/network"
	"github.com/affstack/backend/internal/infrastructure/persistence/models"
)

// GormConnectionRepository implements network.ConnectionRepository using GORM
type GormConnectionRepository struct {
	db *gorm.DB
}

// NewGormConnectionRepository creates a new GormConnectionRepository
func NewGormConnectionRepository(db *gorm.DB) *GormConnectionRepository {
	return &GormConnectionRepository{db: db}
}

// Save creates or updates a connection. The (user, network) pair is unique;
// an upsert keeps concurrent connect flows from racing into duplicates.
func (r *GormConnectionRepository) Save(ctx context.Context, conn *network.Connection) error {
	model := models.ConnectionModelFromDomain(conn)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "network_code"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// FindByUserAndNetwork finds the connection for a (user, network) pair
func (r *GormConnectionRepository) FindByUserAndNetwork(ctx context.Context, userID uuid.UUID, code network.Code) (*network.Connection, error) {
	var model models.ConnectionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND network_code = ?", userID, code).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no connection for %s", network.ErrNoActiveConnection, code)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForUser lists all of a user's connections
func (r *GormConnectionRepository) FindAllForUser(ctx context.Context, userID uuid.UUID) ([]network.Connection, error) {
	var rows []models.ConnectionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("network_code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	connections := make([]network.Connection, 0, len(rows))
	for i := range rows {
		connections = append(connections, *rows[i].ToDomain())
	}
	return connections, nil
}

// Delete removes a connection
func (r *GormConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.ConnectionModel{}, "id = ?", id).Error
}

// Ensure GormConnectionRepository implements the repository interface
var _ network.ConnectionRepository = (*GormConnectionRepository)(nil)
