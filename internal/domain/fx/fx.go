// Package fx defines the currency-conversion port the ingestion pipeline
// uses to normalize partner amounts to USD. The port exists so the shipped
// static-rate table can later be swapped for a live provider without touching
// the normalizer.
package fx

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrUnknownCurrency indicates no rate is available for a currency.
var ErrUnknownCurrency = errors.New("fx: unknown currency")

// RateProvider resolves conversion divisors to USD.
type RateProvider interface {
	// RateToUSD returns how many units of currency equal one USD. Callers
	// divide source amounts by the returned rate. USD itself returns 1.
	RateToUSD(ctx context.Context, currency string) (decimal.Decimal, error)
}
