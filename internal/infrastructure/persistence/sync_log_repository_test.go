package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/affstack/backend/internal/domain/network"
)

func testSyncRange(t *testing.T) network.DateRange {
	t.Helper()
	dateRange, err := network.NewDateRange(
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return dateRange
}

func TestGormSyncLogRepository_SaveUpserts(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormSyncLogRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	log := network.NewSyncLog(userID, network.CodeBoostiny, testSyncRange(t))
	require.NoError(t, repo.Save(ctx, log))

	// Finishing the run saves the same ID again and must update in place.
	log.Complete(42, 3, decimal.RequireFromString("99.50"), time.Now())
	require.NoError(t, repo.Save(ctx, log))

	recent, err := repo.FindRecent(ctx, userID, network.CodeBoostiny, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, network.SyncStatusCompleted, recent[0].Status)
	assert.Equal(t, 42, recent[0].RecordsProcessed)
	assert.Equal(t, 3, recent[0].RecordsSkipped)
	assert.True(t, recent[0].TotalRevenue.Equal(decimal.RequireFromString("99.50")))
}

func TestGormSyncLogRepository_FindRecentOrderAndLimit(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormSyncLogRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	base := time.Now().Add(-time.Hour)

	var newest uuid.UUID
	for i := 0; i < 5; i++ {
		log := network.NewSyncLog(userID, network.CodeAdmitad, testSyncRange(t))
		log.StartedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Save(ctx, log))
		newest = log.ID
	}

	recent, err := repo.FindRecent(ctx, userID, network.CodeAdmitad, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, newest, recent[0].ID)
	assert.True(t, recent[0].StartedAt.After(recent[1].StartedAt))
}

func TestGormSyncLogRepository_FindRecentScopesUserAndNetwork(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormSyncLogRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	mine := network.NewSyncLog(userID, network.CodeBoostiny, testSyncRange(t))
	require.NoError(t, repo.Save(ctx, mine))
	otherNetwork := network.NewSyncLog(userID, network.CodeAdmitad, testSyncRange(t))
	require.NoError(t, repo.Save(ctx, otherNetwork))
	otherUser := network.NewSyncLog(uuid.New(), network.CodeBoostiny, testSyncRange(t))
	require.NoError(t, repo.Save(ctx, otherUser))

	recent, err := repo.FindRecent(ctx, userID, network.CodeBoostiny, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, mine.ID, recent[0].ID)
}
