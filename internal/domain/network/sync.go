package network

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Sync Run Types
// ---------------------------------------------------------------------------

// SyncStatus is the state of one sync invocation
type SyncStatus string

const (
	// SyncStatusRunning indicates the sync is in flight
	SyncStatusRunning SyncStatus = "RUNNING"
	// SyncStatusCompleted indicates the sync finished and committed
	SyncStatusCompleted SyncStatus = "COMPLETED"
	// SyncStatusFailed indicates the sync aborted
	SyncStatusFailed SyncStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusRunning, SyncStatusCompleted, SyncStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncStatus
func (s SyncStatus) String() string {
	return string(s)
}

// SyncLog is the audit record of one sync run.
type SyncLog struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	NetworkCode      Code
	StartDate        time.Time
	EndDate          time.Time
	Status           SyncStatus
	RecordsProcessed int
	RecordsSkipped   int
	TotalRevenue     decimal.Decimal
	ErrorMessage     string
	StartedAt        time.Time
	FinishedAt       *time.Time
}

// NewSyncLog starts a running sync log for a user, network and range.
func NewSyncLog(userID uuid.UUID, code Code, dateRange DateRange) *SyncLog {
	return &SyncLog{
		ID:           uuid.New(),
		UserID:       userID,
		NetworkCode:  code,
		StartDate:    dateRange.Start,
		EndDate:      dateRange.End,
		Status:       SyncStatusRunning,
		TotalRevenue: decimal.Zero,
		StartedAt:    time.Now(),
	}
}

// Complete marks the run committed with its aggregates.
func (l *SyncLog) Complete(processed, skipped int, revenue decimal.Decimal, now time.Time) {
	l.Status = SyncStatusCompleted
	l.RecordsProcessed = processed
	l.RecordsSkipped = skipped
	l.TotalRevenue = revenue
	l.FinishedAt = &now
}

// Fail marks the run aborted with the terminal error.
func (l *SyncLog) Fail(message string, now time.Time) {
	l.Status = SyncStatusFailed
	l.ErrorMessage = message
	l.FinishedAt = &now
}

// Report is the caller-facing aggregate of a finished sync.
type Report struct {
	// Success is false when the sync aborted
	Success bool
	// RecordsProcessed counts persisted purchases
	RecordsProcessed int
	// RecordsSkipped counts rows dropped by validation or parse failures
	RecordsSkipped int
	// TotalRevenue is the USD revenue sum of processed rows
	TotalRevenue decimal.Decimal
	// Message is a short human-readable summary
	Message string
}

// ---------------------------------------------------------------------------
// SyncLog Repository
// ---------------------------------------------------------------------------

// SyncLogRepository persists sync run audit records.
type SyncLogRepository interface {
	// Save creates or updates a sync log
	Save(ctx context.Context, log *SyncLog) error

	// FindRecent lists the most recent runs for a (user, network) pair
	FindRecent(ctx context.Context, userID uuid.UUID, code Code, limit int) ([]SyncLog, error)
}
