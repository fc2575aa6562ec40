package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/affstack/backend/internal/domain/network"
)

// ConnectionModel is the persistence model for the network Connection entity.
type ConnectionModel struct {
	ID          uuid.UUID                `gorm:"type:uuid;primary_key"`
	UserID      uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_connections_user_network,priority:1"`
	NetworkCode network.Code             `gorm:"type:varchar(20);not null;uniqueIndex:idx_connections_user_network,priority:2"`
	Status      network.ConnectionStatus `gorm:"type:varchar(20);not null;default:'DISCONNECTED'"`

	AccessToken  string     `gorm:"type:text"`
	RefreshToken string     `gorm:"type:text"`
	Cookie       string     `gorm:"type:text"`
	ContactID    string     `gorm:"type:varchar(100)"`
	AgencyID     string     `gorm:"type:varchar(100)"`
	ExpiresAt    *time.Time `gorm:""`

	ErrorMessage string     `gorm:"type:text"`
	LastSyncAt   *time.Time `gorm:"index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ConnectionModel) TableName() string {
	return "network_connections"
}

// ToDomain converts the persistence model to a domain Connection entity.
func (m *ConnectionModel) ToDomain() *network.Connection {
	return &network.Connection{
		ID:           m.ID,
		UserID:       m.UserID,
		NetworkCode:  m.NetworkCode,
		Status:       m.Status,
		AccessToken:  m.AccessToken,
		RefreshToken: m.RefreshToken,
		Cookie:       m.Cookie,
		ContactID:    m.ContactID,
		AgencyID:     m.AgencyID,
		ExpiresAt:    m.ExpiresAt,
		ErrorMessage: m.ErrorMessage,
		LastSyncAt:   m.LastSyncAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Connection entity.
func (m *ConnectionModel) FromDomain(c *network.Connection) {
	m.ID = c.ID
	m.UserID = c.UserID
	m.NetworkCode = c.NetworkCode
	m.Status = c.Status
	m.AccessToken = c.AccessToken
	m.RefreshToken = c.RefreshToken
	m.Cookie = c.Cookie
	m.ContactID = c.ContactID
	m.AgencyID = c.AgencyID
	m.ExpiresAt = c.ExpiresAt
	m.ErrorMessage = c.ErrorMessage
	m.LastSyncAt = c.LastSyncAt
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// ConnectionModelFromDomain creates a new persistence model from a domain
// Connection entity.
func ConnectionModelFromDomain(c *network.Connection) *ConnectionModel {
	m := &ConnectionModel{}
	m.FromDomain(c)
	return m
}

// SyncLogModel is the persistence model for the SyncLog audit entity.
type SyncLogModel struct {
	ID          uuid.UUID          `gorm:"type:uuid;primary_key"`
	UserID      uuid.UUID          `gorm:"type:uuid;not null;index:idx_sync_logs_user_network,priority:1"`
	NetworkCode network.Code       `gorm:"type:varchar(20);not null;index:idx_sync_logs_user_network,priority:2"`
	StartDate   time.Time          `gorm:"not null"`
	EndDate     time.Time          `gorm:"not null"`
	Status      network.SyncStatus `gorm:"type:varchar(20);not null;default:'RUNNING'"`

	RecordsProcessed int             `gorm:"not null;default:0"`
	RecordsSkipped   int             `gorm:"not null;default:0"`
	TotalRevenue     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	ErrorMessage     string          `gorm:"type:text"`

	StartedAt  time.Time  `gorm:"not null;index"`
	FinishedAt *time.Time `gorm:""`
}

// TableName returns the table name for GORM
func (SyncLogModel) TableName() string {
	return "sync_logs"
}

// ToDomain converts the persistence model to a domain SyncLog entity.
func (m *SyncLogModel) ToDomain() *network.SyncLog {
	return &network.SyncLog{
		ID:               m.ID,
		UserID:           m.UserID,
		NetworkCode:      m.NetworkCode,
		StartDate:        m.StartDate,
		EndDate:          m.EndDate,
		Status:           m.Status,
		RecordsProcessed: m.RecordsProcessed,
		RecordsSkipped:   m.RecordsSkipped,
		TotalRevenue:     m.TotalRevenue,
		ErrorMessage:     m.ErrorMessage,
		StartedAt:        m.StartedAt,
		FinishedAt:       m.FinishedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncLog entity.
func (m *SyncLogModel) FromDomain(l *network.SyncLog) {
	m.ID = l.ID
	m.UserID = l.UserID
	m.NetworkCode = l.NetworkCode
	m.StartDate = l.StartDate
	m.EndDate = l.EndDate
	m.Status = l.Status
	m.RecordsProcessed = l.RecordsProcessed
	m.RecordsSkipped = l.RecordsSkipped
	m.TotalRevenue = l.TotalRevenue
	m.ErrorMessage = l.ErrorMessage
	m.StartedAt = l.StartedAt
	m.FinishedAt = l.FinishedAt
}

// SyncLogModelFromDomain creates a new persistence model from a domain
// SyncLog entity.
func SyncLogModelFromDomain(l *network.SyncLog) *SyncLogModel {
	m := &SyncLogModel{}
	m.FromDomain(l)
	return m
}
