package commission

import (
	"context"
)

// Country is a reference-table row. The table always contains the "NA"
// fallback row purchases resolve to when no code or name matches.
type Country struct {
	// Code is the ISO 3166-1 alpha-2 code, or the "NA" sentinel
	Code string
	// Name is the English short name
	Name string
	// Currency is the ISO 4217 currency the country predominantly settles in
	Currency string
}

// CountryRepository reads the country reference table.
type CountryRepository interface {
	// FindByCode finds a country by ISO code (case-insensitive)
	FindByCode(ctx context.Context, code string) (*Country, error)

	// FindByName finds a country by English name (case-insensitive), for
	// networks that report names instead of codes
	FindByName(ctx context.Context, name string) (*Country, error)
}
