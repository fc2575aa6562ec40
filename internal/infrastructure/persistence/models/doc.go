// Package models contains GORM-specific persistence models that map to
// database tables. They are kept separate from domain entities so the domain
// layer stays free of ORM concerns.
//
// Key principles:
// 1. Domain entities carry no GORM tags or infrastructure concerns
// 2. Persistence models hold all GORM annotations and table mappings
// 3. ToDomain/FromDomain mappers convert between the two
// 4. Repositories only ever touch persistence models
//
// Structure:
// - network.go: network connection and sync log models
// - commission.go: campaign, coupon, country and purchase models
package models
