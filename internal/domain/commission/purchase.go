package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/affstack/backend/internal/domain/network"
)

// ---------------------------------------------------------------------------
// Purchase
// ---------------------------------------------------------------------------

// PurchaseStatus is the approval state of a partner transaction
type PurchaseStatus string

const (
	// PurchaseStatusApproved indicates the partner validated the commission
	PurchaseStatusApproved PurchaseStatus = "APPROVED"
	// PurchaseStatusPending indicates the commission awaits validation
	PurchaseStatusPending PurchaseStatus = "PENDING"
	// PurchaseStatusRejected indicates the partner rejected the commission
	PurchaseStatusRejected PurchaseStatus = "REJECTED"
)

// IsValid returns true if the status is valid
func (s PurchaseStatus) IsValid() bool {
	switch s {
	case PurchaseStatusApproved, PurchaseStatusPending, PurchaseStatusRejected:
		return true
	default:
		return false
	}
}

// ParsePurchaseStatus maps arbitrary partner status wording onto the
// canonical vocabulary, defaulting to pending.
func ParsePurchaseStatus(s string) PurchaseStatus {
	switch PurchaseStatus(s) {
	case PurchaseStatusApproved, PurchaseStatusPending, PurchaseStatusRejected:
		return PurchaseStatus(s)
	default:
		return PurchaseStatusPending
	}
}

// Purchase is one canonical partner transaction. Monetary fields are always
// USD by the time a purchase is persisted; currency conversion happens at
// ingestion.
type Purchase struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	NetworkCode network.Code
	CampaignID  uuid.UUID
	CouponID    *uuid.UUID

	// OrderID is our local order identifier
	OrderID string
	// NetworkOrderID is the partner's native transaction identifier
	NetworkOrderID string

	SalesAmount decimal.Decimal
	Revenue     decimal.Decimal
	Currency    string
	Quantity    int
	CountryCode string
	Status      PurchaseStatus

	OrderDate    time.Time
	PurchaseDate time.Time

	// Metadata carries network-specific extras (clicks, sub-IDs, traffic
	// source) that have no canonical column
	Metadata map[string]string

	CreatedAt time.Time
}

// Validate enforces the canonical invariants before persistence.
func (p *Purchase) Validate() error {
	if p.UserID == uuid.Nil {
		return fmt.Errorf("%w: user id", ErrPurchaseInvalid)
	}
	if !p.NetworkCode.IsValid() {
		return fmt.Errorf("%w: network code %q", ErrPurchaseInvalid, p.NetworkCode)
	}
	if p.CampaignID == uuid.Nil {
		return fmt.Errorf("%w: campaign id", ErrPurchaseInvalid)
	}
	if p.NetworkOrderID == "" {
		return fmt.Errorf("%w: network order id", ErrPurchaseInvalid)
	}
	if p.OrderDate.IsZero() {
		return fmt.Errorf("%w: order date", ErrPurchaseInvalid)
	}
	if p.Currency != "USD" {
		return fmt.Errorf("%w: currency %q not normalized to USD", ErrPurchaseInvalid, p.Currency)
	}
	if p.CountryCode == "" {
		return fmt.Errorf("%w: country code", ErrPurchaseInvalid)
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("%w: quantity", ErrPurchaseInvalid)
	}
	return nil
}

// PurchaseRepository persists canonical purchases.
type PurchaseRepository interface {
	// SaveBatch inserts purchases
	SaveBatch(ctx context.Context, purchases []*Purchase) error

	// ReplaceRange atomically deletes a user's purchases on a network inside
	// the range and inserts the replacement batch. Either both steps commit
	// or neither does, so a re-run of the same range never loses or
	// duplicates rows.
	ReplaceRange(ctx context.Context, userID uuid.UUID, code network.Code, dateRange network.DateRange, purchases []*Purchase) error

	// DeleteRange removes a user's purchases on a network whose order date
	// falls inside the range. This is the idempotent-replace step; callers
	// run it in the same transaction as the reinsert.
	DeleteRange(ctx context.Context, userID uuid.UUID, code network.Code, dateRange network.DateRange) error

	// FindCouponIDsInRange lists the distinct coupons referenced by a user's
	// purchases on a network inside the range.
	FindCouponIDsInRange(ctx context.Context, userID uuid.UUID, code network.Code, dateRange network.DateRange) ([]uuid.UUID, error)

	// CountRange counts purchases in a range
	CountRange(ctx context.Context, userID uuid.UUID, code network.Code, dateRange network.DateRange) (int64, error)

	// SumRevenueRange sums USD revenue in a range
	SumRevenueRange(ctx context.Context, userID uuid.UUID, code network.Code, dateRange network.DateRange) (decimal.Decimal, error)
}
