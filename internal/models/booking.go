package models

import "time"

type Booking struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`

	ProviderID string `gorm:"size:36;not null;index" json:"provider_id"`
	CustomerID string `gorm:"size:36;not null;index" json:"customer_id"`
	ServiceID  string `gorm:"size:36;not null" json:"service_id"`

	StartAt time.Time `gorm:"not null" json:"start_at"`
	Status  string    `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	Notes   string    `gorm:"size:500" json:"notes"`

	IsMobile       bool   `json:"is_mobile"`
	CustomerZip    string `gorm:"size:10" json:"customer_zip"`
	EstimatedMiles int64  `json:"estimated_miles"`

	ServicePriceCents  int64 `json:"service_price_cents"`
	TravelFeeCents     int64 `json:"travel_fee_cents"`
	DiscountCents      int64 `json:"discount_cents"`
	DiscountPctApplied int   `json:"discount_pct_applied"`
	PlatformFeeCents   int64 `json:"platform_fee_cents"`
	ProcessingFeeCents int64 `json:"processing_fee_cents"`
	DepositCents       int64 `json:"deposit_cents"`
	TotalCents         int64 `json:"total_cents"`

	// Deposit split recorded at creation so the remainder never has to be
	// reconstructed from DepositCents.
	DepositBaseCents           int64 `json:"deposit_base_cents"`
	DepositFeeCents            int64 `json:"deposit_fee_cents"`
	ProcessingFeeBps           int64 `json:"processing_fee_bps"`
	DepositApplicationFeeCents int64 `json:"deposit_application_fee_cents"`

	AffiliateID              *string `gorm:"size:36" json:"affiliate_id"`
	AffiliateCommissionCents int64   `json:"affiliate_commission_cents"`

	ProviderConfirmedAt *time.Time `json:"provider_confirmed_at"`
	CustomerConfirmedAt *time.Time `json:"customer_confirmed_at"`
	IssueReportedAt     *time.Time `json:"issue_reported_at"`
	CompletedAt         *time.Time `json:"completed_at"`
	AutoChargeAt        *time.Time `gorm:"index" json:"auto_charge_at"`
	ReviewRequestedAt   *time.Time `json:"review_requested_at"`

	ExternalCustomerID      string `gorm:"size:255" json:"-"`
	ExternalPaymentMethodID string `gorm:"size:255" json:"-"`

	CustomerConfirmToken string `gorm:"size:64;uniqueIndex" json:"-"`
	CustomerCancelToken  string `gorm:"size:64;uniqueIndex" json:"-"`
	CustomerIssueToken   string `gorm:"size:64;uniqueIndex" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubtotalCents is what the provider's work is worth to the customer before
// processing fees.
func (b *Booking) SubtotalCents() int64 {
	return b.ServicePriceCents + b.TravelFeeCents - b.DiscountCents
}

func (b *Booking) HasSavedPaymentMethod() bool {
	return b.ExternalCustomerID != "" && b.ExternalPaymentMethodID != ""
}
