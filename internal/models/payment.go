package models

import "time"

type Payment struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	BookingID string `gorm:"size:36;not null;index" json:"booking_id"`

	Type        string `gorm:"size:20;not null" json:"type"`
	Status      string `gorm:"size:20;not null" json:"status"`
	AmountCents int64  `gorm:"not null" json:"amount_cents"`
	Currency    string `gorm:"size:3;not null;default:'USD'" json:"currency"`

	ExternalRef         string `gorm:"size:255;index" json:"external_ref"`
	ExternalCheckoutRef string `gorm:"size:255" json:"external_checkout_ref"`
	ExternalChargeRef   string `gorm:"size:255" json:"external_charge_ref"`

	ReceiptSentAt *time.Time `json:"receipt_sent_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
