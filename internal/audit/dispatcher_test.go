package audit

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BruksfildServices01/beauty-meet/internal/models"
)

type recorder struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (r *recorder) Write(_ context.Context, e *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func TestDispatcherWritesEntries(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, zaptest.NewLogger(t))

	d.Dispatch(Event{BookingID: "b1", Actor: "provider:p1", Action: "booking.approved"})
	d.Dispatch(Event{BookingID: "b1", Actor: "admin", Action: "booking.rescheduled", Metadata: map[string]string{"start_at": "2026-03-10T14:00:00Z"}})
	d.Close()

	require.Len(t, rec.entries, 2)
	assert.Equal(t, "booking.approved", rec.entries[0].Action)
	assert.Equal(t, "", rec.entries[0].Metadata)
	assert.JSONEq(t, `{"start_at":"2026-03-10T14:00:00Z"}`, rec.entries[1].Metadata)
}

func TestNilDispatcherIsSafe(t *testing.T) {
	var d *Dispatcher
	assert.NotPanics(t, func() {
		d.Dispatch(Event{Action: "ignored"})
		d.Close()
	})
}
