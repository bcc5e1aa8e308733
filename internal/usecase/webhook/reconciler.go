// Package webhook applies verified payment processor notifications to the
// ledger. Each event id is processed at most once.
package webhook

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/beauty-meet/internal/archive"
	domain "github.com/BruksfildServices01/beauty-meet/internal/domain/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/domain/payment"
	"github.com/BruksfildServices01/beauty-meet/internal/gateway"
	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/booking"
)

type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

type Deps struct {
	Repo    domain.Repository
	Gateway gateway.Gateway
	Engine  *booking.Engine
	// Archive is optional; a failed upload never fails the event.
	Archive archive.Archiver
	Log     *zap.Logger
	Now     func() time.Time
}

type Reconciler struct {
	repo    domain.Repository
	gateway gateway.Gateway
	engine  *booking.Engine
	archive archive.Archiver
	log     *zap.Logger
	now     func() time.Time
}

func NewReconciler(d Deps) *Reconciler {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Reconciler{
		repo:    d.Repo,
		gateway: d.Gateway,
		engine:  d.Engine,
		archive: d.Archive,
		log:     d.Log.Named("webhook"),
		now:     d.Now,
	}
}

// effects are the notifications claimed inside the transaction.
type effects struct {
	completions []*booking.Completion
}

// Handle verifies and applies one notification. Redelivered events and
// transitions the ledger already moved past are acknowledged without
// changes; any other error asks the processor to retry.
func (r *Reconciler) Handle(ctx context.Context, payload []byte, signature string) (Outcome, error) {
	if r.gateway == nil {
		return "", httperr.New(httperr.KindPaymentConfig, "payments_not_configured")
	}

	ev, err := r.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		return "", err
	}
	log := r.log.With(zap.String("event_id", ev.ID), zap.String("type", ev.Type))

	if r.archive != nil {
		if err := r.archive.Store(ctx, ev.ID, payload); err != nil {
			log.Warn("archive webhook payload", zap.Error(err))
		}
	}

	// The saved card is looked up before the transaction so no row lock is
	// held across a processor call.
	var method *gateway.PaymentMethod
	if ev.Kind == gateway.EventCheckoutCompleted && ev.PaymentRef != "" {
		method, err = r.gateway.PaymentMethodFor(ctx, ev.PaymentRef)
		if err != nil {
			log.Warn("payment method lookup failed", zap.Error(err))
			return "", err
		}
	}

	var (
		out = OutcomeProcessed
		fx  effects
	)
	err = r.repo.Transaction(ctx, func(tx domain.Repository) error {
		inserted, err := tx.InsertWebhookEvent(ctx, &models.WebhookEvent{
			ID:          ev.ID,
			Type:        ev.Type,
			ProcessedAt: r.now(),
		})
		if err != nil {
			return err
		}
		if inserted == domain.AlreadyPresent {
			out = OutcomeDuplicate
			return nil
		}

		applied, err := r.apply(ctx, tx, ev, method, &fx)
		if httperr.IsKind(err, httperr.KindInvalidTransition) {
			log.Warn("event conflicts with ledger state, acknowledged", zap.Error(err))
			fx = effects{}
			out = OutcomeIgnored
			return nil
		}
		if err != nil {
			return err
		}
		if !applied {
			out = OutcomeIgnored
		}
		return nil
	})
	if err != nil {
		log.Error("webhook processing failed", zap.Error(err))
		return "", err
	}

	for _, c := range fx.completions {
		r.engine.NotifyCompletion(ctx, c)
	}

	log.Info("webhook handled", zap.String("outcome", string(out)))
	return out, nil
}

func (r *Reconciler) apply(ctx context.Context, tx domain.Repository, ev *gateway.Event, method *gateway.PaymentMethod, fx *effects) (bool, error) {
	switch ev.Kind {
	case gateway.EventCheckoutCompleted:
		return r.checkoutCompleted(ctx, tx, ev, method, fx)
	case gateway.EventPaymentSucceeded:
		return r.paymentSucceeded(ctx, tx, ev, fx)
	case gateway.EventPaymentFailed:
		return r.paymentFailed(ctx, tx, ev)
	case gateway.EventAccountUpdated:
		if ev.AccountID == "" {
			return false, nil
		}
		return true, tx.UpdateProviderAccountFlags(ctx, ev.AccountID, ev.ChargesEnabled, ev.PayoutsEnabled)
	}
	return false, nil
}

// findPayment resolves the ledger payment an event refers to, preferring
// the id we put in the processor metadata. Off-session charges carry only
// the booking id, so they fall back to the booking's active remainder.
func findPayment(ctx context.Context, tx domain.Repository, ev *gateway.Event) (*models.Payment, error) {
	if ev.PaymentID != "" {
		p, err := tx.GetPayment(ctx, ev.PaymentID)
		if err == nil || !errors.Is(err, domain.ErrNotFound) {
			return p, err
		}
	}
	p, err := tx.FindPaymentByExternalRef(ctx, ev.PaymentRef)
	if errors.Is(err, domain.ErrNotFound) && ev.PaymentID == "" && ev.BookingID != "" &&
		ev.Kind != gateway.EventCheckoutCompleted {
		return tx.FindActivePayment(ctx, ev.BookingID, payment.TypeRemainder)
	}
	return p, err
}

func (r *Reconciler) checkoutCompleted(ctx context.Context, tx domain.Repository, ev *gateway.Event, method *gateway.PaymentMethod, fx *effects) (bool, error) {
	if ev.BookingID == "" || ev.PaymentRef == "" {
		return false, nil
	}

	p, err := findPayment(ctx, tx, ev)
	if errors.Is(err, domain.ErrNotFound) {
		p, err = tx.FindActivePayment(ctx, ev.BookingID, payment.TypeDeposit)
	}
	if errors.Is(err, domain.ErrNotFound) {
		r.log.Warn("checkout for unknown deposit", zap.String("booking_id", ev.BookingID))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if p.BookingID != ev.BookingID || p.Type != string(payment.TypeDeposit) {
		return false, nil
	}

	if _, err := tx.TransitionPayment(ctx, p.ID, payment.StatusCaptured, func(p *models.Payment) {
		p.ExternalRef = ev.PaymentRef
		if ev.CheckoutRef != "" {
			p.ExternalCheckoutRef = ev.CheckoutRef
		}
	}); err != nil {
		return false, err
	}

	b, err := tx.GetBookingForUpdate(ctx, ev.BookingID)
	if err != nil {
		return false, err
	}
	if method != nil {
		b.ExternalCustomerID = method.CustomerRef
		b.ExternalPaymentMethodID = method.PaymentMethodRef
	}
	if b.ExternalCustomerID == "" && ev.CustomerRef != "" {
		b.ExternalCustomerID = ev.CustomerRef
	}
	if err := tx.SaveBooking(ctx, b); err != nil {
		return false, err
	}

	claimed, err := tx.ClaimReceipt(ctx, p.ID, r.now())
	if err != nil {
		return false, err
	}
	if claimed {
		p.Status = string(payment.StatusCaptured)
		fx.completions = append(fx.completions, &booking.Completion{Booking: b, Payment: p, ReceiptClaimed: true})
	}
	return true, nil
}

func (r *Reconciler) paymentSucceeded(ctx context.Context, tx domain.Repository, ev *gateway.Event, fx *effects) (bool, error) {
	p, err := findPayment(ctx, tx, ev)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	refs := func(p *models.Payment) {
		if p.ExternalRef == "" {
			p.ExternalRef = ev.PaymentRef
		}
		if ev.ChargeRef != "" {
			p.ExternalChargeRef = ev.ChargeRef
		}
	}
	if _, err := tx.TransitionPayment(ctx, p.ID, payment.StatusCaptured, refs); err != nil {
		return false, err
	}
	refs(p)
	p.Status = string(payment.StatusCaptured)

	// Deposits are finalized by the checkout event.
	if p.Type != string(payment.TypeRemainder) {
		return true, nil
	}

	b, err := tx.GetBookingForUpdate(ctx, p.BookingID)
	if err != nil {
		return false, err
	}
	// A refund failure rolls back the event so the processor redelivers it.
	refunded, err := r.engine.RefundLateRemainder(ctx, tx, b, p)
	if err != nil || refunded {
		return refunded, err
	}
	completion, err := r.engine.Complete(ctx, tx, b, p)
	if err != nil {
		return false, err
	}
	fx.completions = append(fx.completions, completion)
	return true, nil
}

func (r *Reconciler) paymentFailed(ctx context.Context, tx domain.Repository, ev *gateway.Event) (bool, error) {
	p, err := findPayment(ctx, tx, ev)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	// A declined card leaves the hosted checkout open for another attempt.
	if p.Type == string(payment.TypeDeposit) && payment.Status(p.Status) == payment.StatusRequiresPayment {
		return false, nil
	}
	if _, err := tx.TransitionPayment(ctx, p.ID, payment.StatusVoided, nil); err != nil {
		return false, err
	}
	return true, nil
}
