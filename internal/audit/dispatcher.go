package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Event struct {
	BookingID string
	Actor     string
	Action    string
	Metadata  any
}

type Dispatcher struct {
	writer Writer
	log    *zap.Logger
	queue  chan Event
	done   chan struct{}
}

func NewDispatcher(writer Writer, log *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		writer: writer,
		log:    log.Named("audit"),
		queue:  make(chan Event, 100),
		done:   make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.writer.Write(ctx, entryFor(ev)); err != nil {
			d.log.Error("audit write failed",
				zap.String("booking_id", ev.BookingID),
				zap.String("action", ev.Action),
				zap.Error(err),
			)
		}
		cancel()
	}
}

// Dispatch queues ev without blocking. A full queue drops the event; a nil
// dispatcher ignores it.
func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}
	select {
	case d.queue <- ev:
	default:
		d.log.Warn("audit queue full, dropping event", zap.String("action", ev.Action))
	}
}

// Close drains queued events. Dispatch must not be called afterwards.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	close(d.queue)
	<-d.done
}
