package models

import "time"

type Customer struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	Phone    string `gorm:"size:20;uniqueIndex;not null" json:"phone"`
	FullName string `gorm:"size:100;not null" json:"full_name"`

	ReferralCode         string  `gorm:"size:16;uniqueIndex;not null" json:"referral_code"`
	ReferredByCustomerID *string `gorm:"size:36" json:"referred_by_customer_id"`

	NextBookingDiscountPct int  `gorm:"not null;default:0" json:"next_booking_discount_pct"`
	ReferralRewardGranted  bool `gorm:"not null;default:false" json:"referral_reward_granted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
