package models

import "time"

type AuditLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	BookingID string `gorm:"size:36;index" json:"booking_id"`
	Actor     string `gorm:"size:60;not null" json:"actor"`
	Action    string `gorm:"size:50;not null" json:"action"`
	Metadata  string `gorm:"type:text" json:"metadata"`

	CreatedAt time.Time `json:"created_at"`
}
