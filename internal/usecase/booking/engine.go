// Package booking is the booking payment lifecycle: it moves bookings
// through their states and keeps the deposit and remainder payments in step
// with each move.
package booking

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/beauty-meet/internal/audit"
	domain "github.com/BruksfildServices01/beauty-meet/internal/domain/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/gateway"
	"github.com/BruksfildServices01/beauty-meet/internal/geo"
	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
	"github.com/BruksfildServices01/beauty-meet/internal/notify"
	"github.com/BruksfildServices01/beauty-meet/internal/pricing"
)

type ActorKind string

const (
	ActorCustomer ActorKind = "customer"
	ActorProvider ActorKind = "provider"
	ActorAdmin    ActorKind = "admin"
	ActorSystem   ActorKind = "system"
)

// Actor is whoever triggers an operation. Provider and customer actors only
// see their own bookings.
type Actor struct {
	Kind ActorKind
	ID   string
}

func Customer(id string) Actor { return Actor{Kind: ActorCustomer, ID: id} }
func Provider(id string) Actor { return Actor{Kind: ActorProvider, ID: id} }
func Admin() Actor             { return Actor{Kind: ActorAdmin} }
func System() Actor            { return Actor{Kind: ActorSystem} }

func (a Actor) String() string {
	if a.ID == "" {
		return string(a.Kind)
	}
	return string(a.Kind) + ":" + a.ID
}

// ChargeAttempt reports an opportunistic remainder charge. Its failure is
// recorded here and never turned into the triggering operation's error.
type ChargeAttempt struct {
	Attempted bool
	Charged   bool
	Err       error
}

type Result struct {
	Booking *models.Booking
	Policy  domain.CancelPolicy
	// Charge is nil when the operation did not try to charge the remainder.
	Charge *ChargeAttempt
}

type Config struct {
	Rates      pricing.Rates
	Currency   string
	BaseURL    string
	Production bool
}

type Deps struct {
	Repo      domain.Repository
	Gateway   gateway.Gateway // nil when payments are not configured
	Geo       geo.Estimator
	Notifier  *notify.Dispatcher
	Templates notify.Templates
	Audit     *audit.Dispatcher
	Log       *zap.Logger
	Now       func() time.Time
}

type Engine struct {
	repo      domain.Repository
	gateway   gateway.Gateway
	geo       geo.Estimator
	notifier  *notify.Dispatcher
	templates notify.Templates
	audit     *audit.Dispatcher
	log       *zap.Logger
	now       func() time.Time
	cfg       Config
}

func NewEngine(d Deps, cfg Config) *Engine {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Geo == nil {
		d.Geo = geo.NewZipTable(nil)
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return &Engine{
		repo:      d.Repo,
		gateway:   d.Gateway,
		geo:       d.Geo,
		notifier:  d.Notifier,
		templates: d.Templates,
		audit:     d.Audit,
		log:       d.Log.Named("booking"),
		now:       d.Now,
		cfg:       cfg,
	}
}

func allow(a Actor, kinds ...ActorKind) error {
	for _, k := range kinds {
		if a.Kind == k {
			return nil
		}
	}
	return httperr.New(httperr.KindForbidden, "actor_not_allowed")
}

func notFound(err error, code string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return httperr.NotFound(code)
	}
	return err
}

// owns hides bookings from providers and customers they do not belong to.
func owns(a Actor, b *models.Booking) bool {
	switch a.Kind {
	case ActorProvider:
		return b.ProviderID == a.ID
	case ActorCustomer:
		return b.CustomerID == a.ID
	default:
		return true
	}
}

// lockBooking loads the booking row for update inside tx.
func (e *Engine) lockBooking(ctx context.Context, tx domain.Repository, a Actor, id string) (*models.Booking, error) {
	b, err := tx.GetBookingForUpdate(ctx, id)
	if err != nil {
		return nil, notFound(err, "booking_not_found")
	}
	if !owns(a, b) {
		return nil, httperr.NotFound("booking_not_found")
	}
	return b, nil
}

func (e *Engine) getBooking(ctx context.Context, a Actor, id string) (*models.Booking, error) {
	b, err := e.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, notFound(err, "booking_not_found")
	}
	if !owns(a, b) {
		return nil, httperr.NotFound("booking_not_found")
	}
	return b, nil
}

// mutate applies fn to the locked booking and saves it in one transaction.
func (e *Engine) mutate(ctx context.Context, a Actor, id string, fn func(b *models.Booking) error) (*models.Booking, error) {
	var out *models.Booking
	err := e.repo.Transaction(ctx, func(tx domain.Repository) error {
		b, err := e.lockBooking(ctx, tx, a, id)
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
		if err := tx.SaveBooking(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}

func (e *Engine) record(a Actor, b *models.Booking, action string, meta any) {
	e.audit.Dispatch(audit.Event{
		BookingID: b.ID,
		Actor:     a.String(),
		Action:    action,
		Metadata:  meta,
	})
}

func (e *Engine) notifyCustomer(ctx context.Context, b *models.Booking, body string) {
	c, err := e.repo.GetCustomer(ctx, b.CustomerID)
	if err != nil {
		e.log.Warn("customer lookup for notification failed", zap.String("booking_id", b.ID), zap.Error(err))
		return
	}
	e.notifier.Notify(c.Phone, body)
}

func (e *Engine) notifyProvider(ctx context.Context, b *models.Booking, body string) {
	p, err := e.repo.GetProvider(ctx, b.ProviderID)
	if err != nil {
		e.log.Warn("provider lookup for notification failed", zap.String("booking_id", b.ID), zap.Error(err))
		return
	}
	e.notifier.Notify(p.Phone, body)
}

func (e *Engine) providerName(ctx context.Context, id string) string {
	p, err := e.repo.GetProvider(ctx, id)
	if err != nil {
		return ""
	}
	return p.DisplayName
}

// ListOpenIssues returns bookings paused by a reported issue.
func (e *Engine) ListOpenIssues(ctx context.Context, a Actor) ([]models.Booking, error) {
	if err := allow(a, ActorAdmin); err != nil {
		return nil, err
	}
	return e.repo.ListOpenIssues(ctx)
}
