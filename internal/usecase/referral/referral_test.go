package referral

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/BruksfildServices01/beauty-meet/internal/domain/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/infra/memory"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
)

func completedBooking(s *memory.Store, customerID string) models.Booking {
	now := time.Now()
	return s.PutBooking(models.Booking{
		CustomerID:  customerID,
		Status:      string(domain.StatusCompleted),
		CompletedAt: &now,
	})
}

func TestAttach(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	referrer := s.PutCustomer(models.Customer{Phone: "1", ReferralCode: "FRIEND01"})
	newbie := s.PutCustomer(models.Customer{Phone: "2", ReferralCode: "NEWBIE01"})

	ok, err := Attach(ctx, s, &newbie, " friend01 ")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, newbie.ReferredByCustomerID)
	assert.Equal(t, referrer.ID, *newbie.ReferredByCustomerID)

	ok, err = Attach(ctx, s, &newbie, "FRIEND01")
	require.NoError(t, err)
	assert.False(t, ok, "referrer is set once")
}

func TestAttachRejects(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	s.PutCustomer(models.Customer{Phone: "1", ReferralCode: "FRIEND01"})
	self := s.PutCustomer(models.Customer{Phone: "2", ReferralCode: "SELF0001"})
	returning := s.PutCustomer(models.Customer{Phone: "3", ReferralCode: "BACK0001"})
	s.PutBooking(models.Booking{CustomerID: returning.ID, Status: string(domain.StatusPending)})

	for name, tc := range map[string]struct {
		c    models.Customer
		code string
	}{
		"self referral": {self, "SELF0001"},
		"unknown code":  {self, "NOPE"},
		"empty code":    {self, ""},
		"has a booking": {returning, "FRIEND01"},
	} {
		t.Run(name, func(t *testing.T) {
			c := tc.c
			ok, err := Attach(ctx, s, &c, tc.code)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, c.ReferredByCustomerID)
		})
	}
}

func TestAccrueGrantsOnce(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	referrer := s.PutCustomer(models.Customer{Phone: "1", ReferralCode: "FRIEND01"})
	referred := s.PutCustomer(models.Customer{Phone: "2", ReferralCode: "NEWBIE01", ReferredByCustomerID: &referrer.ID})

	completedBooking(s, referred.ID)
	granted, err := Accrue(ctx, s, referred.ID)
	require.NoError(t, err)
	assert.True(t, granted)

	got, err := s.GetCustomer(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, RewardPct, got.NextBookingDiscountPct)

	// The referrer spends the reward, then the referred customer completes
	// a second booking.
	got.NextBookingDiscountPct = 0
	require.NoError(t, s.SaveCustomer(ctx, got))
	completedBooking(s, referred.ID)

	granted, err = Accrue(ctx, s, referred.ID)
	require.NoError(t, err)
	assert.False(t, granted)

	got, err = s.GetCustomer(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.NextBookingDiscountPct)
}

func TestAccrueKeepsExistingDiscount(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	referrer := s.PutCustomer(models.Customer{Phone: "1", ReferralCode: "FRIEND01", NextBookingDiscountPct: 25})
	referred := s.PutCustomer(models.Customer{Phone: "2", ReferralCode: "NEWBIE01", ReferredByCustomerID: &referrer.ID})
	completedBooking(s, referred.ID)

	granted, err := Accrue(ctx, s, referred.ID)
	require.NoError(t, err)
	assert.True(t, granted)

	got, err := s.GetCustomer(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.NextBookingDiscountPct)

	c, err := s.GetCustomer(ctx, referred.ID)
	require.NoError(t, err)
	assert.True(t, c.ReferralRewardGranted)
}

func TestNewCode(t *testing.T) {
	code := NewCode()
	assert.Len(t, code, 8)
	assert.Equal(t, NormalizeCode(code), code)
}
