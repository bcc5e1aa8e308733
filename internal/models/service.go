package models

import "time"

type Service struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	ProviderID string `gorm:"size:36;not null;index" json:"provider_id"`

	Name        string `gorm:"size:100;not null" json:"name"`
	PriceCents  int64  `gorm:"not null" json:"price_cents"`
	DurationMin int    `json:"duration_min"`
	Active      bool   `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
