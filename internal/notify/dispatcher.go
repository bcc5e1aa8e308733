package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type message struct {
	to   string
	body string
}

// Dispatcher hands messages to a Notifier on a background worker. Delivery
// failures are logged and never reach the caller.
type Dispatcher struct {
	notifier Notifier
	log      *zap.Logger
	queue    chan message
	done     chan struct{}
}

func NewDispatcher(n Notifier, log *zap.Logger, size int) *Dispatcher {
	if size <= 0 {
		size = 100
	}
	d := &Dispatcher{
		notifier: n,
		log:      log.Named("notify"),
		queue:    make(chan message, size),
		done:     make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for m := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := d.notifier.Send(ctx, m.to, m.body); err != nil {
			d.log.Warn("notification failed", zap.String("to", m.to), zap.Error(err))
		}
		cancel()
	}
}

// Notify queues a message. Empty recipients and a full queue drop it.
func (d *Dispatcher) Notify(to, body string) {
	if d == nil || to == "" {
		return
	}
	select {
	case d.queue <- message{to: to, body: body}:
	default:
		d.log.Warn("notify queue full, dropping message", zap.String("to", to))
	}
}

func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	close(d.queue)
	<-d.done
}
