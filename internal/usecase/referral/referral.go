// Package referral attributes new customers to the customer who referred
// them and grants the referrer a one-time discount once the referred
// customer completes a first booking.
package referral

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/beauty-meet/internal/domain/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
)

// RewardPct is the discount queued for the referrer's next booking.
const RewardPct = 10

// NewCode returns an eight character upper-case referral code.
func NewCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Attach links c to the owner of code. Only a customer with no bookings yet
// can be attributed, a customer cannot refer themselves, and an existing
// referrer is never replaced. Unknown codes are ignored.
func Attach(ctx context.Context, tx domain.Repository, c *models.Customer, code string) (bool, error) {
	code = NormalizeCode(code)
	if code == "" || c.ReferredByCustomerID != nil {
		return false, nil
	}

	count, err := tx.CountBookings(ctx, c.ID)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	referrer, err := tx.FindCustomerByReferralCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if referrer.ID == c.ID {
		return false, nil
	}

	c.ReferredByCustomerID = &referrer.ID
	if err := tx.SaveCustomer(ctx, c); err != nil {
		return false, err
	}
	return true, nil
}

// Accrue runs inside the transaction that completes a booking of
// customerID. It grants the referral reward when this is the customer's
// first completed booking and reports whether it did.
func Accrue(ctx context.Context, tx domain.Repository, customerID string) (bool, error) {
	c, err := tx.GetCustomerForUpdate(ctx, customerID)
	if err != nil {
		return false, err
	}
	if c.ReferredByCustomerID == nil || c.ReferralRewardGranted {
		return false, nil
	}

	completed, err := tx.CountCompletedBookings(ctx, customerID)
	if err != nil {
		return false, err
	}
	if completed != 1 {
		return false, nil
	}

	granted, err := tx.GrantReferralReward(ctx, customerID)
	if err != nil || !granted {
		return false, err
	}

	// A discount the referrer has not used yet is kept as is.
	if _, err := tx.SetReferrerDiscountIfZero(ctx, *c.ReferredByCustomerID, RewardPct); err != nil {
		return false, err
	}
	return true, nil
}
