package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/affstack/backend/internal/domain/commission"
)

func TestGormCountryRepository_FindByCode(t *testing.T) {
	t.Run("normalizes the code before querying", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCountryRepository(gormDB)

		rows := sqlmock.NewRows([]string{"code", "name", "currency"}).
			AddRow("AE", "United Arab Emirates", "AED")

		mock.ExpectQuery(`SELECT \* FROM "countries" WHERE code = \$1`).
			WithArgs("AE", 1).
			WillReturnRows(rows)

		country, err := repo.FindByCode(context.Background(), " ae ")
		require.NoError(t, err)
		assert.Equal(t, "AE", country.Code)
		assert.Equal(t, "AED", country.Currency)
	})

	t.Run("unknown code", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCountryRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "countries"`).
			WithArgs("XX", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByCode(context.Background(), "XX")
		assert.ErrorIs(t, err, commission.ErrCountryNotFound)
	})

	t.Run("fallback sentinel row", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCountryRepository(gormDB)

		rows := sqlmock.NewRows([]string{"code", "name", "currency"}).
			AddRow("NA", "Not Available", "USD")

		mock.ExpectQuery(`SELECT \* FROM "countries" WHERE code = \$1`).
			WithArgs(commission.FallbackCountryCode, 1).
			WillReturnRows(rows)

		country, err := repo.FindByCode(context.Background(), commission.FallbackCountryCode)
		require.NoError(t, err)
		assert.Equal(t, "NA", country.Code)
	})
}

func TestGormCountryRepository_FindByName(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormCountryRepository(gormDB)

	rows := sqlmock.NewRows([]string{"code", "name", "currency"}).
		AddRow("SA", "Saudi Arabia", "SAR")

	mock.ExpectQuery(`SELECT \* FROM "countries" WHERE LOWER\(name\) = \$1`).
		WithArgs("saudi arabia", 1).
		WillReturnRows(rows)

	country, err := repo.FindByName(context.Background(), "Saudi Arabia")
	require.NoError(t, err)
	assert.Equal(t, "SA", country.Code)
}
