package booking

import (
	"context"

	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/beauty-meet/internal/domain/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
)

// ReportIssue pauses every remainder charge until an admin clears or
// resolves the issue.
func (e *Engine) ReportIssue(ctx context.Context, a Actor, bookingID string) (*Result, error) {
	if err := allow(a, ActorCustomer, ActorAdmin); err != nil {
		return nil, err
	}

	now := e.now()
	b, err := e.mutate(ctx, a, bookingID, func(b *models.Booking) error {
		return domain.ReportIssue(b, now)
	})
	if err != nil {
		return nil, err
	}

	e.record(a, b, "booking.issue_reported", nil)
	return &Result{Booking: b}, nil
}

func (e *Engine) ReportIssueByToken(ctx context.Context, token string) (*Result, error) {
	b, err := e.repo.GetBookingByToken(ctx, domain.TokenIssue, token)
	if err != nil {
		return nil, notFound(err, "invalid_link")
	}
	return e.ReportIssue(ctx, Customer(b.CustomerID), b.ID)
}

func (e *Engine) ClearIssue(ctx context.Context, a Actor, bookingID string) (*Result, error) {
	if err := allow(a, ActorAdmin); err != nil {
		return nil, err
	}

	b, err := e.mutate(ctx, a, bookingID, func(b *models.Booking) error {
		domain.ClearIssue(b)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.record(a, b, "booking.issue_cleared", nil)
	return &Result{Booking: b}, nil
}

// ResolveIssue clears the issue and, when the provider already marked the
// booking done, tries the remainder charge once.
func (e *Engine) ResolveIssue(ctx context.Context, a Actor, bookingID string) (*Result, error) {
	res, err := e.ClearIssue(ctx, a, bookingID)
	if err != nil {
		return nil, err
	}
	b := res.Booking
	if b.ProviderConfirmedAt == nil || b.CompletedAt != nil {
		return res, nil
	}

	out, err := e.ChargeRemainder(ctx, a, b.ID)
	if err != nil {
		e.log.Info("remainder charge after issue resolution deferred", zap.String("booking_id", b.ID), zap.Error(err))
		res.Charge = &ChargeAttempt{Attempted: true, Err: err}
		return res, nil
	}
	return out, nil
}
