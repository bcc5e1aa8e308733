// Package pricing turns a service price into the deposit/remainder split
// charged to the customer. Amounts are integer cents, rates are basis points
// and every division rounds half up.
package pricing

import "github.com/BruksfildServices01/beauty-meet/internal/httperr"

const bpsScale = 10000

type Rates struct {
	DepositBps             int64
	ProcessingFeeBps       int64
	PlatformFeeBps         int64
	AffiliateCommissionBps int64
}

func DefaultRates() Rates {
	return Rates{
		DepositBps:             2500,
		ProcessingFeeBps:       300,
		PlatformFeeBps:         500,
		AffiliateCommissionBps: 1000,
	}
}

func (r Rates) Validate() error {
	if r.DepositBps <= 0 || r.DepositBps > bpsScale {
		return httperr.Validation("invalid_deposit_rate")
	}
	if r.ProcessingFeeBps < 0 || r.PlatformFeeBps < 0 || r.AffiliateCommissionBps < 0 {
		return httperr.Validation("invalid_fee_rate")
	}
	return nil
}

type Input struct {
	ServicePriceCents int64
	TravelFeeCents    int64
	DiscountPct       int
	HasAffiliate      bool
	// HasPayoutDestination is true when the provider receives the charge
	// directly and the platform keeps an application fee.
	HasPayoutDestination bool
}

type Quote struct {
	ServicePriceCents int64
	TravelFeeCents    int64
	DiscountCents     int64
	DiscountPct       int
	SubtotalCents     int64

	PlatformFeeCents         int64
	AffiliateCommissionCents int64

	DepositBaseCents int64
	DepositFeeCents  int64
	DepositCents     int64

	RemainingBaseCents int64
	RemainderFeeCents  int64
	RemainderCents     int64

	ProcessingFeeCents int64
	ProcessingFeeBps   int64
	TotalCents         int64

	DepositApplicationFeeCents int64
}

// Calculate prices a booking. The platform fee and affiliate commission are
// taken from the undiscounted service price.
func Calculate(in Input, r Rates) (Quote, error) {
	if err := r.Validate(); err != nil {
		return Quote{}, err
	}
	if in.ServicePriceCents <= 0 || in.TravelFeeCents < 0 {
		return Quote{}, httperr.Validation("invalid_amount")
	}
	if in.DiscountPct < 0 || in.DiscountPct > 100 {
		return Quote{}, httperr.Validation("invalid_discount")
	}

	q := Quote{
		ServicePriceCents: in.ServicePriceCents,
		TravelFeeCents:    in.TravelFeeCents,
		DiscountPct:       in.DiscountPct,
		ProcessingFeeBps:  r.ProcessingFeeBps,
	}

	q.DiscountCents = roundDiv(in.ServicePriceCents*int64(in.DiscountPct), 100)
	q.SubtotalCents = in.ServicePriceCents + in.TravelFeeCents - q.DiscountCents

	q.PlatformFeeCents = ApplyBps(in.ServicePriceCents, r.PlatformFeeBps)
	if in.HasAffiliate {
		q.AffiliateCommissionCents = ApplyBps(in.ServicePriceCents, r.AffiliateCommissionBps)
	}

	q.DepositBaseCents = max(1, ApplyBps(q.SubtotalCents, r.DepositBps))
	q.DepositFeeCents = ApplyBps(q.DepositBaseCents, r.ProcessingFeeBps)
	q.DepositCents = q.DepositBaseCents + q.DepositFeeCents

	q.RemainingBaseCents, q.RemainderFeeCents = Remainder(q.SubtotalCents, q.DepositBaseCents, r.ProcessingFeeBps)
	q.RemainderCents = q.RemainingBaseCents + q.RemainderFeeCents

	q.ProcessingFeeCents = q.DepositFeeCents + q.RemainderFeeCents
	q.TotalCents = q.SubtotalCents + q.ProcessingFeeCents

	if in.HasPayoutDestination {
		q.DepositApplicationFeeCents = ApplyBps(q.PlatformFeeCents+q.AffiliateCommissionCents, r.DepositBps)
	}

	return q, nil
}

// Remainder returns what is left of the subtotal after the deposit base and
// the processing fee on it.
func Remainder(subtotalCents, depositBaseCents, feeBps int64) (base, fee int64) {
	base = max(0, subtotalCents-depositBaseCents)
	fee = ApplyBps(base, feeBps)
	return base, fee
}

// ReconstructDepositBase inverts a forward-applied processing fee. It only
// serves rows created before the deposit split was stored.
func ReconstructDepositBase(depositCents, feeBps int64) int64 {
	return roundDiv(depositCents*bpsScale, bpsScale+feeBps)
}

// RemainderApplicationFee is the platform's share still owed after the
// deposit, clamped to what the remainder charge can carry.
func RemainderApplicationFee(platformFeeCents, affiliateCommissionCents, depositAppFeeCents, remainderCents int64) int64 {
	fee := platformFeeCents + affiliateCommissionCents - depositAppFeeCents
	return min(max(fee, 0), max(remainderCents, 0))
}

func ApplyBps(amount, bps int64) int64 {
	return roundDiv(amount*bps, bpsScale)
}

// roundDiv divides rounding half away from zero.
func roundDiv(n, d int64) int64 {
	if n < 0 {
		return -roundDiv(-n, d)
	}
	return (n + d/2) / d
}
