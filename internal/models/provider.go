package models

import "time"

type Provider struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	DisplayName string `gorm:"size:80;not null" json:"display_name"`
	Phone       string `gorm:"size:20" json:"phone"`

	BaseZip         string `gorm:"size:10" json:"base_zip"`
	TravelRateCents int64  `json:"travel_rate_cents"`
	MaxTravelMiles  int64  `json:"max_travel_miles"`

	Active      bool   `gorm:"default:true" json:"active"`
	AccessToken string `gorm:"size:64;uniqueIndex" json:"-"`

	ExternalAccountID string `gorm:"size:255;index" json:"-"`
	ChargesEnabled    bool   `json:"charges_enabled"`
	PayoutsEnabled    bool   `json:"payouts_enabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasPayoutDestination reports whether charges can be split to the provider.
func (p *Provider) HasPayoutDestination() bool {
	return p != nil && p.ExternalAccountID != ""
}
