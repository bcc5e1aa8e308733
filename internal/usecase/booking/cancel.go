package booking

import (
	"context"

	domain "github.com/BruksfildServices01/beauty-meet/internal/domain/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/domain/payment"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
)

// Cancel applies the cancellation policy of the actor: customers get EARLY
// or LATE depending on how close the appointment is, providers and admins
// always refund in full.
func (e *Engine) Cancel(ctx context.Context, a Actor, bookingID string) (*Result, error) {
	if err := allow(a, ActorCustomer, ActorProvider, ActorAdmin); err != nil {
		return nil, err
	}

	current, err := e.getBooking(ctx, a, bookingID)
	if err != nil {
		return nil, err
	}
	// Reject before any money moves.
	check := *current
	if changed, err := domain.Cancel(&check); err != nil || !changed {
		if err != nil {
			return nil, err
		}
		return &Result{Booking: current}, nil
	}

	policy := domain.PolicyTechFault
	if a.Kind == ActorCustomer {
		policy = domain.CustomerCancelPolicy(current.StartAt, e.now())
	}

	remainder, remainderTo, err := e.releaseRemainder(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	deposit, to, err := e.releaseDeposit(ctx, bookingID, policy.Refunds())
	if err != nil {
		return nil, err
	}

	var (
		b       *models.Booking
		changed bool
	)
	err = e.repo.Transaction(ctx, func(tx domain.Repository) error {
		locked, err := e.lockBooking(ctx, tx, a, bookingID)
		if err != nil {
			return err
		}
		b = locked
		changed, err = domain.Cancel(locked)
		if err != nil || !changed {
			return err
		}
		if err := tx.SaveBooking(ctx, locked); err != nil {
			return err
		}
		if err := settleDeposit(ctx, tx, remainder, remainderTo); err != nil {
			return err
		}
		return settleDeposit(ctx, tx, deposit, to)
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return &Result{Booking: b}, nil
	}

	refunded := to == payment.StatusRefunded
	e.record(a, b, "booking.cancelled", map[string]any{"policy": policy, "deposit_status": to})
	e.notifyCustomer(ctx, b, e.templates.Cancelled(b.ID, refunded))
	return &Result{Booking: b, Policy: policy}, nil
}

func (e *Engine) CancelByToken(ctx context.Context, token string) (*Result, error) {
	b, err := e.repo.GetBookingByToken(ctx, domain.TokenCancel, token)
	if err != nil {
		return nil, notFound(err, "invalid_link")
	}
	return e.Cancel(ctx, Customer(b.CustomerID), b.ID)
}

// MarkNoShow keeps the deposit. It can only be claimed once the appointment
// time has passed. A remainder still settling is stopped.
func (e *Engine) MarkNoShow(ctx context.Context, a Actor, bookingID string) (*Result, error) {
	if err := allow(a, ActorProvider, ActorAdmin); err != nil {
		return nil, err
	}

	current, err := e.getBooking(ctx, a, bookingID)
	if err != nil {
		return nil, err
	}
	check := *current
	if changed, err := domain.MarkNoShow(&check, e.now()); err != nil || !changed {
		if err != nil {
			return nil, err
		}
		return &Result{Booking: current}, nil
	}

	remainder, remainderTo, err := e.releaseRemainder(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var (
		b       *models.Booking
		changed bool
	)
	err = e.repo.Transaction(ctx, func(tx domain.Repository) error {
		locked, err := e.lockBooking(ctx, tx, a, bookingID)
		if err != nil {
			return err
		}
		b = locked
		changed, err = domain.MarkNoShow(locked, e.now())
		if err != nil || !changed {
			return err
		}
		if err := tx.SaveBooking(ctx, locked); err != nil {
			return err
		}
		return settleDeposit(ctx, tx, remainder, remainderTo)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		e.record(a, b, "booking.no_show", nil)
	}
	return &Result{Booking: b}, nil
}
