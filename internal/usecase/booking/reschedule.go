package booking

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/beauty-meet/internal/domain/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
)

// Reschedule moves the booking to startAt and sends it back to the provider
// for approval.
func (e *Engine) Reschedule(ctx context.Context, a Actor, bookingID string, startAt time.Time) (*Result, error) {
	if err := allow(a, ActorAdmin); err != nil {
		return nil, err
	}
	if startAt.IsZero() {
		return nil, httperr.Validation("invalid_start_at")
	}
	if !startAt.After(e.now()) {
		return nil, httperr.Validation("start_in_past")
	}

	b, err := e.mutate(ctx, a, bookingID, func(b *models.Booking) error {
		return domain.Reschedule(b, startAt)
	})
	if err != nil {
		return nil, err
	}

	e.record(a, b, "booking.rescheduled", map[string]any{"start_at": startAt})
	e.notifyProvider(ctx, b, e.templates.Rescheduled(b.ID, startAt))
	return &Result{Booking: b}, nil
}
