package dto

import (
	"time"

	"github.com/BruksfildServices01/beauty-meet/internal/models"
	"github.com/BruksfildServices01/beauty-meet/internal/pricing"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/booking"
)

type BookingDTO struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"provider_id"`
	StartAt    time.Time `json:"start_at"`
	Status     string    `json:"status"`
	IsMobile   bool      `json:"is_mobile"`

	DepositCents int64 `json:"deposit_cents"`
	TotalCents   int64 `json:"total_cents"`

	ProviderConfirmedAt *time.Time `json:"provider_confirmed_at,omitempty"`
	CustomerConfirmedAt *time.Time `json:"customer_confirmed_at,omitempty"`
	IssueReportedAt     *time.Time `json:"issue_reported_at,omitempty"`
	AutoChargeAt        *time.Time `json:"auto_charge_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
}

func Booking(b *models.Booking) BookingDTO {
	return BookingDTO{
		ID:                  b.ID,
		ProviderID:          b.ProviderID,
		StartAt:             b.StartAt,
		Status:              b.Status,
		IsMobile:            b.IsMobile,
		DepositCents:        b.DepositCents,
		TotalCents:          b.TotalCents,
		ProviderConfirmedAt: b.ProviderConfirmedAt,
		CustomerConfirmedAt: b.CustomerConfirmedAt,
		IssueReportedAt:     b.IssueReportedAt,
		AutoChargeAt:        b.AutoChargeAt,
		CompletedAt:         b.CompletedAt,
	}
}

type ChargeDTO struct {
	Attempted bool   `json:"attempted"`
	Charged   bool   `json:"charged"`
	Error     string `json:"error,omitempty"`
}

type ResultDTO struct {
	Booking BookingDTO `json:"booking"`
	Policy  string     `json:"policy,omitempty"`
	Charge  *ChargeDTO `json:"charge,omitempty"`
}

func Result(res *booking.Result) ResultDTO {
	out := ResultDTO{
		Booking: Booking(res.Booking),
		Policy:  string(res.Policy),
	}
	if ch := res.Charge; ch != nil {
		out.Charge = &ChargeDTO{Attempted: ch.Attempted, Charged: ch.Charged}
		if ch.Err != nil {
			out.Charge.Error = ch.Err.Error()
		}
	}
	return out
}

type QuoteDTO struct {
	ServicePriceCents  int64 `json:"service_price_cents"`
	TravelFeeCents     int64 `json:"travel_fee_cents"`
	DiscountCents      int64 `json:"discount_cents"`
	ProcessingFeeCents int64 `json:"processing_fee_cents"`
	DepositCents       int64 `json:"deposit_cents"`
	RemainderCents     int64 `json:"remainder_cents"`
	TotalCents         int64 `json:"total_cents"`
}

func Quote(q pricing.Quote) QuoteDTO {
	return QuoteDTO{
		ServicePriceCents:  q.ServicePriceCents,
		TravelFeeCents:     q.TravelFeeCents,
		DiscountCents:      q.DiscountCents,
		ProcessingFeeCents: q.ProcessingFeeCents,
		DepositCents:       q.DepositCents,
		RemainderCents:     q.RemainderCents,
		TotalCents:         q.TotalCents,
	}
}
