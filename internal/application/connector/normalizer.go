package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/affstack/backend/internal/domain/commission"
	"github.com/affstack/backend/internal/domain/fx"
	"github.com/affstack/backend/internal/domain/network"
)

// usdAmountScale is the fractional precision canonical amounts are stored at.
const usdAmountScale = 2

// Normalizer turns partner-shaped transaction rows into canonical purchases:
// it resolves campaigns and coupons lazily, resolves the country, converts
// amounts to USD and rejects rows that cannot form a valid purchase.
type Normalizer struct {
	campaigns commission.CampaignRepository
	coupons   commission.CouponRepository
	countries commission.CountryRepository
	rates     fx.RateProvider
	logger    *zap.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(
	campaigns commission.CampaignRepository,
	coupons commission.CouponRepository,
	countries commission.CountryRepository,
	rates fx.RateProvider,
	logger *zap.Logger,
) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{
		campaigns: campaigns,
		coupons:   coupons,
		countries: countries,
		rates:     rates,
		logger:    logger,
	}
}

// ToCanonical converts one partner row into a purchase owned by the user.
// A nil purchase with a non-nil error means the row is skipped, never that
// the batch fails; callers count these as skipped rows.
func (n *Normalizer) ToCanonical(ctx context.Context, userID uuid.UUID, code network.Code, tx network.Transaction) (*commission.Purchase, error) {
	if tx.Quantity <= 0 {
		return nil, fmt.Errorf("%w: zero quantity", network.ErrRowInvalid)
	}
	if tx.NetworkOrderID == "" {
		return nil, fmt.Errorf("%w: missing transaction id", network.ErrRowInvalid)
	}
	if tx.CampaignID == "" {
		return nil, fmt.Errorf("%w: missing campaign id", network.ErrRowInvalid)
	}
	if tx.OrderDate.IsZero() {
		return nil, fmt.Errorf("%w: missing or unparsable order date", network.ErrRowInvalid)
	}

	campaign, err := n.resolveCampaign(ctx, userID, code, tx)
	if err != nil {
		return nil, err
	}
	coupon, err := n.resolveCoupon(ctx, campaign, tx.CouponCode)
	if err != nil {
		return nil, err
	}
	countryCode := n.resolveCountry(ctx, tx)

	salesAmount, revenue, err := n.toUSD(ctx, tx)
	if err != nil {
		return nil, err
	}

	purchase := &commission.Purchase{
		ID:             uuid.New(),
		UserID:         userID,
		NetworkCode:    code,
		CampaignID:     campaign.ID,
		CouponID:       &coupon.ID,
		OrderID:        fmt.Sprintf("%s-%s", code, tx.NetworkOrderID),
		NetworkOrderID: tx.NetworkOrderID,
		SalesAmount:    salesAmount,
		Revenue:        revenue,
		Currency:       "USD",
		Quantity:       tx.Quantity,
		CountryCode:    countryCode,
		Status:         commission.ParsePurchaseStatus(tx.Status),
		OrderDate:      tx.OrderDate,
		PurchaseDate:   time.Now(),
		Metadata:       tx.Extras,
		CreatedAt:      time.Now(),
	}
	if purchase.Metadata == nil {
		purchase.Metadata = map[string]string{}
	}
	if err := purchase.Validate(); err != nil {
		return nil, err
	}
	return purchase, nil
}

// resolveCampaign gets or creates the campaign referenced by the row.
func (n *Normalizer) resolveCampaign(ctx context.Context, userID uuid.UUID, code network.Code, tx network.Transaction) (*commission.Campaign, error) {
	candidate, err := commission.NewCampaign(code, userID, tx.CampaignID, tx.CampaignName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", network.ErrRowInvalid, err)
	}
	campaign, err := n.campaigns.GetOrCreate(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("resolving campaign %q: %w", tx.CampaignID, err)
	}
	return campaign, nil
}

// resolveCoupon gets or creates the coupon. Rows without a code resolve to
// the campaign's sentinel coupon so every purchase links to one.
func (n *Normalizer) resolveCoupon(ctx context.Context, campaign *commission.Campaign, code string) (*commission.Coupon, error) {
	candidate, err := commission.NewCoupon(campaign.ID, code, campaign.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", network.ErrRowInvalid, err)
	}
	coupon, err := n.coupons.GetOrCreate(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("resolving coupon %q: %w", candidate.Code, err)
	}
	return coupon, nil
}

// resolveCountry maps the row's country to a reference-table code. Unknown
// or missing countries fall back to the sentinel row rather than failing
// the row.
func (n *Normalizer) resolveCountry(ctx context.Context, tx network.Transaction) string {
	if tx.CountryCode != "" {
		if country, err := n.countries.FindByCode(ctx, tx.CountryCode); err == nil {
			return country.Code
		}
		n.logger.Debug("unknown country code, using fallback",
			zap.String("country_code", tx.CountryCode))
	}
	if tx.CountryName != "" {
		if country, err := n.countries.FindByName(ctx, tx.CountryName); err == nil {
			return country.Code
		}
		n.logger.Debug("unknown country name, using fallback",
			zap.String("country_name", tx.CountryName))
	}
	return commission.FallbackCountryCode
}

// toUSD converts the row's monetary amounts to USD with the divisor rate for
// its currency. Rows in a currency without a rate are invalid.
func (n *Normalizer) toUSD(ctx context.Context, tx network.Transaction) (decimal.Decimal, decimal.Decimal, error) {
	salesAmount := decimal.NewFromFloat(tx.SalesAmount)
	revenue := decimal.NewFromFloat(tx.Revenue)

	if tx.Currency != "" && tx.Currency != "USD" {
		rate, err := n.rates.RateToUSD(ctx, tx.Currency)
		if err != nil || rate.IsZero() {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: currency %q", network.ErrRowInvalid, tx.Currency)
		}
		salesAmount = salesAmount.Div(rate)
		revenue = revenue.Div(rate)
	}
	return salesAmount.Round(usdAmountScale), revenue.Round(usdAmountScale), nil
}
