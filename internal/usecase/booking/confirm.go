package booking

import (
	"context"

	domain "github.com/BruksfildServices01/beauty-meet/internal/domain/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
)

// MarkProviderDone records that the service was delivered and arms the
// auto-charge deadline. When the customer already confirmed, the remainder
// is charged right away.
func (e *Engine) MarkProviderDone(ctx context.Context, a Actor, bookingID string) (*Result, error) {
	if err := allow(a, ActorProvider, ActorAdmin); err != nil {
		return nil, err
	}

	now := e.now()
	b, err := e.mutate(ctx, a, bookingID, func(b *models.Booking) error {
		return domain.MarkProviderDone(b, now)
	})
	if err != nil {
		return nil, err
	}

	e.record(a, b, "booking.provider_done", map[string]any{"auto_charge_at": b.AutoChargeAt})
	return &Result{Booking: b, Charge: e.opportunistic(ctx, b)}, nil
}

func (e *Engine) CustomerConfirm(ctx context.Context, token string) (*Result, error) {
	found, err := e.repo.GetBookingByToken(ctx, domain.TokenConfirm, token)
	if err != nil {
		return nil, notFound(err, "invalid_link")
	}
	a := Customer(found.CustomerID)

	now := e.now()
	b, err := e.mutate(ctx, a, found.ID, func(b *models.Booking) error {
		return domain.ConfirmByCustomer(b, now)
	})
	if err != nil {
		return nil, err
	}

	e.record(a, b, "booking.customer_confirmed", nil)
	return &Result{Booking: b, Charge: e.opportunistic(ctx, b)}, nil
}
