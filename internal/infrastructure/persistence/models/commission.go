package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/affstack/backend/internal/domain/commission"
	"github.com/affstack/backend/internal/domain/network"
)

// CampaignModel is the persistence model for the Campaign domain entity.
type CampaignModel struct {
	ID                uuid.UUID                 `gorm:"type:uuid;primary_key"`
	NetworkCode       network.Code              `gorm:"type:varchar(20);not null;uniqueIndex:idx_campaigns_natural_key,priority:1"`
	UserID            uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex:idx_campaigns_natural_key,priority:2"`
	NetworkCampaignID string                    `gorm:"type:varchar(100);not null;uniqueIndex:idx_campaigns_natural_key,priority:3"`
	Name              string                    `gorm:"type:varchar(255);not null"`
	Type              commission.CampaignType   `gorm:"type:varchar(20);not null;default:'PERFORMANCE'"`
	Status            commission.CampaignStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	AdvertiserName    string                    `gorm:"type:varchar(255)"`
	CreatedAt         time.Time                 `gorm:"not null"`
	UpdatedAt         time.Time                 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CampaignModel) TableName() string {
	return "campaigns"
}

// ToDomain converts the persistence model to a domain Campaign entity.
func (m *CampaignModel) ToDomain() *commission.Campaign {
	return &commission.Campaign{
		ID:                m.ID,
		NetworkCode:       m.NetworkCode,
		UserID:            m.UserID,
		NetworkCampaignID: m.NetworkCampaignID,
		Name:              m.Name,
		Type:              m.Type,
		Status:            m.Status,
		AdvertiserName:    m.AdvertiserName,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Campaign entity.
func (m *CampaignModel) FromDomain(c *commission.Campaign) {
	m.ID = c.ID
	m.NetworkCode = c.NetworkCode
	m.UserID = c.UserID
	m.NetworkCampaignID = c.NetworkCampaignID
	m.Name = c.Name
	m.Type = c.Type
	m.Status = c.Status
	m.AdvertiserName = c.AdvertiserName
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// CouponModel is the persistence model for the Coupon domain entity.
type CouponModel struct {
	ID            uuid.UUID               `gorm:"type:uuid;primary_key"`
	CampaignID    uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_coupons_campaign_code,priority:1"`
	Code          string                  `gorm:"type:varchar(255);not null;uniqueIndex:idx_coupons_campaign_code,priority:2"`
	Status        commission.CouponStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	UsageCount    int                     `gorm:"not null;default:0"`
	DiscountTerms string                  `gorm:"type:varchar(255)"`
	ExpiresAt     *time.Time              `gorm:""`
	CreatedAt     time.Time               `gorm:"not null"`
	UpdatedAt     time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CouponModel) TableName() string {
	return "coupons"
}

// ToDomain converts the persistence model to a domain Coupon entity.
func (m *CouponModel) ToDomain() *commission.Coupon {
	return &commission.Coupon{
		ID:            m.ID,
		CampaignID:    m.CampaignID,
		Code:          m.Code,
		Status:        m.Status,
		UsageCount:    m.UsageCount,
		DiscountTerms: m.DiscountTerms,
		ExpiresAt:     m.ExpiresAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Coupon entity.
func (m *CouponModel) FromDomain(c *commission.Coupon) {
	m.ID = c.ID
	m.CampaignID = c.CampaignID
	m.Code = c.Code
	m.Status = c.Status
	m.UsageCount = c.UsageCount
	m.DiscountTerms = c.DiscountTerms
	m.ExpiresAt = c.ExpiresAt
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// PurchaseModel is the persistence model for the Purchase domain entity.
type PurchaseModel struct {
	ID          uuid.UUID    `gorm:"type:uuid;primary_key"`
	UserID      uuid.UUID    `gorm:"type:uuid;not null;index:idx_purchases_user_network_date,priority:1"`
	NetworkCode network.Code `gorm:"type:varchar(20);not null;index:idx_purchases_user_network_date,priority:2"`
	CampaignID  uuid.UUID    `gorm:"type:uuid;not null;index"`
	CouponID    *uuid.UUID   `gorm:"type:uuid;index"`

	OrderID        string `gorm:"type:varchar(100);not null"`
	NetworkOrderID string `gorm:"type:varchar(255);not null;index"`

	SalesAmount decimal.Decimal           `gorm:"type:numeric(14,2);not null;default:0"`
	Revenue     decimal.Decimal           `gorm:"type:numeric(14,2);not null;default:0"`
	Currency    string                    `gorm:"type:varchar(3);not null;default:'USD'"`
	Quantity    int                       `gorm:"not null;default:1"`
	CountryCode string                    `gorm:"type:varchar(2);not null"`
	Status      commission.PurchaseStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`

	OrderDate    time.Time `gorm:"not null;index:idx_purchases_user_network_date,priority:3"`
	PurchaseDate time.Time `gorm:"not null"`

	MetadataJSON string `gorm:"type:jsonb;column:metadata"`

	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PurchaseModel) TableName() string {
	return "purchases"
}

// ToDomain converts the persistence model to a domain Purchase entity.
func (m *PurchaseModel) ToDomain() *commission.Purchase {
	p := &commission.Purchase{
		ID:             m.ID,
		UserID:         m.UserID,
		NetworkCode:    m.NetworkCode,
		CampaignID:     m.CampaignID,
		CouponID:       m.CouponID,
		OrderID:        m.OrderID,
		NetworkOrderID: m.NetworkOrderID,
		SalesAmount:    m.SalesAmount,
		Revenue:        m.Revenue,
		Currency:       m.Currency,
		Quantity:       m.Quantity,
		CountryCode:    m.CountryCode,
		Status:         m.Status,
		OrderDate:      m.OrderDate,
		PurchaseDate:   m.PurchaseDate,
		Metadata:       map[string]string{},
		CreatedAt:      m.CreatedAt,
	}
	if m.MetadataJSON != "" {
		var metadata map[string]string
		if err := json.Unmarshal([]byte(m.MetadataJSON), &metadata); err == nil {
			p.Metadata = metadata
		}
	}
	return p
}

// FromDomain populates the persistence model from a domain Purchase entity.
func (m *PurchaseModel) FromDomain(p *commission.Purchase) {
	m.ID = p.ID
	m.UserID = p.UserID
	m.NetworkCode = p.NetworkCode
	m.CampaignID = p.CampaignID
	m.CouponID = p.CouponID
	m.OrderID = p.OrderID
	m.NetworkOrderID = p.NetworkOrderID
	m.SalesAmount = p.SalesAmount
	m.Revenue = p.Revenue
	m.Currency = p.Currency
	m.Quantity = p.Quantity
	m.CountryCode = p.CountryCode
	m.Status = p.Status
	m.OrderDate = p.OrderDate
	m.PurchaseDate = p.PurchaseDate
	m.CreatedAt = p.CreatedAt

	if len(p.Metadata) > 0 {
		if jsonBytes, err := json.Marshal(p.Metadata); err == nil {
			m.MetadataJSON = string(jsonBytes)
		}
	} else {
		m.MetadataJSON = "{}"
	}
}

// PurchaseModelFromDomain creates a new persistence model from a domain
// Purchase entity.
func PurchaseModelFromDomain(p *commission.Purchase) *PurchaseModel {
	m := &PurchaseModel{}
	m.FromDomain(p)
	return m
}

// CountryModel is the persistence model for the country reference table.
type CountryModel struct {
	Code     string `gorm:"type:varchar(2);primary_key"`
	Name     string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Currency string `gorm:"type:varchar(3);not null"`
}

// TableName returns the table name for GORM
func (CountryModel) TableName() string {
	return "countries"
}

// ToDomain converts the persistence model to a domain Country value.
func (m *CountryModel) ToDomain() *commission.Country {
	return &commission.Country{Code: m.Code, Name: m.Name, Currency: m.Currency}
}
