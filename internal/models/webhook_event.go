package models

import "time"

// WebhookEvent is the dedup record for processor notifications. The external
// event id is the primary key, so a second insert of the same id conflicts.
type WebhookEvent struct {
	ID          string    `gorm:"primaryKey;size:255" json:"id"`
	Type        string    `gorm:"size:100;not null" json:"type"`
	ProcessedAt time.Time `gorm:"not null" json:"processed_at"`
}
