// Package commission holds the canonical data model every partner network is
// normalized into: Campaign, Coupon, Purchase and the Country reference
// table. Records enter exclusively through the ingestion pipeline; nothing in
// this package talks to a partner.
package commission

import (
	"errors"
)

var (
	ErrCampaignNotFound = errors.New("commission: campaign not found")
	ErrCouponNotFound   = errors.New("commission: coupon not found")
	ErrCountryNotFound  = errors.New("commission: country not found")
	ErrPurchaseInvalid  = errors.New("commission: invalid purchase")
)

// FallbackCountryCode is the sentinel code every unresolvable country maps
// to. The countries table always carries this row.
const FallbackCountryCode = "NA"
