// Package fx provides the currency conversion implementations behind the
// fx.RateProvider port.
package fx

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	domainfx "github.com/affstack/backend/internal/domain/fx"
)

// StaticRateProvider serves a fixed table of USD divisors for the pegged
// currencies the partner networks report in. Rates are divisors: one USD
// costs this many units of the currency.
type StaticRateProvider struct {
	rates map[string]decimal.Decimal
}

// NewStaticRateProvider builds the provider with the built-in table plus any
// overrides (currency code to divisor).
func NewStaticRateProvider(overrides map[string]float64) *StaticRateProvider {
	rates := map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(1),
		"AED": decimal.NewFromFloat(3.67),
		"SAR": decimal.NewFromFloat(3.75),
		"KWD": decimal.NewFromFloat(0.305),
		"EGP": decimal.NewFromFloat(30.9),
	}
	for currency, rate := range overrides {
		if rate > 0 {
			rates[strings.ToUpper(currency)] = decimal.NewFromFloat(rate)
		}
	}
	return &StaticRateProvider{rates: rates}
}

// RateToUSD returns the divisor for a currency code.
func (p *StaticRateProvider) RateToUSD(_ context.Context, currency string) (decimal.Decimal, error) {
	rate, ok := p.rates[strings.ToUpper(strings.TrimSpace(currency))]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", domainfx.ErrUnknownCurrency, currency)
	}
	return rate, nil
}

// Ensure StaticRateProvider implements the port.
var _ domainfx.RateProvider = (*StaticRateProvider)(nil)
