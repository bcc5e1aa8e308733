package booking

import (
	"context"

	domain "github.com/BruksfildServices01/beauty-meet/internal/domain/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
)

func (e *Engine) Approve(ctx context.Context, a Actor, bookingID string) (*Result, error) {
	if err := allow(a, ActorProvider, ActorAdmin); err != nil {
		return nil, err
	}

	b, err := e.mutate(ctx, a, bookingID, domain.Approve)
	if err != nil {
		return nil, err
	}

	e.record(a, b, "booking.approved", nil)
	e.notifyCustomer(ctx, b, e.templates.Approved(e.providerName(ctx, b.ProviderID), b.StartAt))
	return &Result{Booking: b}, nil
}

// Decline refunds the deposit in full before the booking is marked
// DECLINED, so a refund failure leaves the request pending.
func (e *Engine) Decline(ctx context.Context, a Actor, bookingID string) (*Result, error) {
	if err := allow(a, ActorProvider, ActorAdmin); err != nil {
		return nil, err
	}

	current, err := e.getBooking(ctx, a, bookingID)
	if err != nil {
		return nil, err
	}
	if err := domain.CanDecline(domain.Status(current.Status)); err != nil {
		return nil, err
	}

	deposit, to, err := e.releaseDeposit(ctx, bookingID, true)
	if err != nil {
		return nil, err
	}

	var b *models.Booking
	err = e.repo.Transaction(ctx, func(tx domain.Repository) error {
		locked, err := e.lockBooking(ctx, tx, a, bookingID)
		if err != nil {
			return err
		}
		if err := domain.Decline(locked); err != nil {
			return err
		}
		if err := tx.SaveBooking(ctx, locked); err != nil {
			return err
		}
		b = locked
		return settleDeposit(ctx, tx, deposit, to)
	})
	if err != nil {
		return nil, err
	}

	e.record(a, b, "booking.declined", map[string]any{"deposit_status": to})
	e.notifyCustomer(ctx, b, e.templates.Declined(e.providerName(ctx, b.ProviderID)))
	return &Result{Booking: b, Policy: domain.PolicyTechFault}, nil
}
