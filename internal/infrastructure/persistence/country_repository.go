package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/affstack/backend/internal/domain/commission"
	"github.com/affstack/backend/internal/infrastructure/persistence/models"
)

// GormCountryRepository implements commission.CountryRepository using GORM
type GormCountryRepository struct {
	db *gorm.DB
}

// NewGormCountryRepository creates a new GormCountryRepository
func NewGormCountryRepository(db *gorm.DB) *GormCountryRepository {
	return &GormCountryRepository{db: db}
}

// FindByCode finds a country by ISO code (case-insensitive)
func (r *GormCountryRepository) FindByCode(ctx context.Context, code string) (*commission.Country, error) {
	var model models.CountryModel
	if err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: code %q", commission.ErrCountryNotFound, code)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByName finds a country by English name (case-insensitive)
func (r *GormCountryRepository) FindByName(ctx context.Context, name string) (*commission.Country, error) {
	var model models.CountryModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: name %q", commission.ErrCountryNotFound, name)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormCountryRepository implements the repository interface
var _ commission.CountryRepository = (*GormCountryRepository)(nil)
