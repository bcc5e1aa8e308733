package models

import "time"

type Affiliate struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	Code         string `gorm:"size:32;uniqueIndex;not null" json:"code"`
	BalanceCents int64  `gorm:"not null;default:0" json:"balance_cents"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
