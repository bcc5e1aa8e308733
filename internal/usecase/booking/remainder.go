package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/beauty-meet/internal/domain/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/domain/payment"
	"github.com/BruksfildServices01/beauty-meet/internal/gateway"
	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
	"github.com/BruksfildServices01/beauty-meet/internal/pricing"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/referral"
)

// RemainderKey is the processor idempotency key of a booking's remainder
// charge. It is fixed per booking so retries collapse into one charge.
func RemainderKey(bookingID string) string {
	return "remainder_" + bookingID
}

// Completion carries what completing a booking claimed inside its
// transaction. NotifyCompletion sends the messages after commit.
type Completion struct {
	Booking *models.Booking
	Payment *models.Payment

	Completed       bool
	ReferralGranted bool
	ReceiptClaimed  bool
	ReviewClaimed   bool
}

// remainderPlan is the outcome of the locked precondition check.
type remainderPlan struct {
	booking    *models.Booking
	payment    *models.Payment
	completion *Completion
	charge     *gateway.OffSessionCharge
}

// RemainderAmounts splits what is still owed on b into base and processing
// fee, using the deposit split stored at creation.
func (e *Engine) RemainderAmounts(b *models.Booking) (base, fee int64) {
	feeBps := b.ProcessingFeeBps
	if feeBps == 0 {
		feeBps = e.cfg.Rates.ProcessingFeeBps
	}
	depositBase := b.DepositBaseCents
	if depositBase == 0 && b.DepositCents > 0 {
		depositBase = pricing.ReconstructDepositBase(b.DepositCents, feeBps)
	}
	return pricing.Remainder(b.SubtotalCents(), depositBase, feeBps)
}

// ChargeRemainder charges the saved payment method for the balance and
// completes the booking. A REMAINDER already captured only completes the
// booking again, without a second charge.
func (e *Engine) ChargeRemainder(ctx context.Context, a Actor, bookingID string) (*Result, error) {
	if err := allow(a, ActorAdmin, ActorSystem); err != nil {
		return nil, err
	}

	plan, err := e.prepareRemainder(ctx, a, bookingID)
	if err != nil {
		return nil, err
	}

	if plan.completion != nil {
		e.NotifyCompletion(ctx, plan.completion)
		return e.chargeResult(ctx, bookingID, false)
	}

	log := e.log.With(zap.String("booking_id", bookingID), zap.String("payment_id", plan.payment.ID))

	res, err := e.gateway.ChargeOffSession(ctx, *plan.charge)
	if err != nil {
		log.Warn("remainder charge failed", zap.Error(err))
		e.record(a, plan.booking, "remainder.charge_failed", map[string]any{"error": err.Error()})
		return nil, asGatewayErr(err)
	}

	refs := func(p *models.Payment) {
		p.ExternalRef = res.ExternalRef
		if res.ChargeRef != "" {
			p.ExternalChargeRef = res.ChargeRef
		}
	}

	switch res.Status {
	case gateway.ChargeSucceeded:
	case gateway.ChargeFailed:
		if _, err := e.repo.TransitionPayment(ctx, plan.payment.ID, payment.StatusVoided, refs); err != nil {
			return nil, err
		}
		e.record(a, plan.booking, "remainder.charge_failed", map[string]any{"status": res.Status})
		return nil, httperr.New(httperr.KindGateway, "charge_failed")
	default:
		// Finalized by the payment webhook.
		if _, err := e.repo.TransitionPayment(ctx, plan.payment.ID, payment.StatusAuthorized, refs); err != nil {
			return nil, err
		}
		log.Info("remainder charge pending at processor", zap.String("status", string(res.Status)))
		e.record(a, plan.booking, "remainder.pending", map[string]any{"status": res.Status})
		return e.chargeResult(ctx, bookingID, false)
	}

	var (
		completion *Completion
		refunded   bool
	)
	err = e.repo.Transaction(ctx, func(tx domain.Repository) error {
		if _, err := tx.TransitionPayment(ctx, plan.payment.ID, payment.StatusCaptured, refs); err != nil {
			return err
		}
		p, err := tx.GetPayment(ctx, plan.payment.ID)
		if err != nil {
			return err
		}
		b, err := tx.GetBookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		// The booking may have closed while the charge was in flight.
		if refunded, err = e.RefundLateRemainder(ctx, tx, b, p); err != nil || refunded {
			return err
		}
		completion, err = e.Complete(ctx, tx, b, p)
		return err
	})
	if err != nil {
		// The money moved; the payment webhook retries this bookkeeping.
		log.Error("record captured remainder", zap.Error(err))
		return nil, err
	}
	if refunded {
		return nil, httperr.ErrBusiness("booking_closed")
	}

	e.NotifyCompletion(ctx, completion)
	return e.chargeResult(ctx, bookingID, true)
}

func (e *Engine) chargeResult(ctx context.Context, bookingID string, charged bool) (*Result, error) {
	b, err := e.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return &Result{Booking: b, Charge: &ChargeAttempt{Attempted: true, Charged: charged}}, nil
}

// prepareRemainder checks every precondition under the booking lock and
// either completes the booking right away or returns the charge to send.
func (e *Engine) prepareRemainder(ctx context.Context, a Actor, bookingID string) (*remainderPlan, error) {
	plan := &remainderPlan{}

	err := e.repo.Transaction(ctx, func(tx domain.Repository) error {
		b, err := e.lockBooking(ctx, tx, a, bookingID)
		if err != nil {
			return err
		}
		plan.booking = b

		if b.IssueReportedAt != nil {
			return httperr.New(httperr.KindIssuePaused, "issue_open")
		}
		if err := domain.CanCharge(domain.Status(b.Status), b.CompletedAt != nil); err != nil {
			return err
		}

		deposit, err := tx.FindActivePayment(ctx, b.ID, payment.TypeDeposit)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if deposit == nil || payment.Status(deposit.Status) != payment.StatusCaptured {
			return httperr.Precondition("deposit_not_captured")
		}

		existing, err := tx.FindActivePayment(ctx, b.ID, payment.TypeRemainder)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil && payment.Status(existing.Status) == payment.StatusCaptured {
			plan.completion, err = e.Complete(ctx, tx, b, existing)
			return err
		}

		base, fee := e.RemainderAmounts(b)
		total := base + fee
		if total <= 0 {
			plan.completion, err = e.Complete(ctx, tx, b, nil)
			return err
		}

		if !b.HasSavedPaymentMethod() {
			return httperr.Precondition("missing_saved_payment_method")
		}
		if err := e.requireGateway(); err != nil {
			return err
		}

		if existing == nil {
			existing = &models.Payment{
				ID:          uuid.NewString(),
				BookingID:   b.ID,
				Type:        string(payment.TypeRemainder),
				Status:      string(payment.StatusRequiresPayment),
				AmountCents: total,
				Currency:    e.cfg.Currency,
			}
			if err := tx.CreatePayment(ctx, existing); err != nil {
				return err
			}
		}
		plan.payment = existing

		charge := &gateway.OffSessionCharge{
			BookingID:        b.ID,
			AmountCents:      existing.AmountCents,
			Currency:         existing.Currency,
			CustomerRef:      b.ExternalCustomerID,
			PaymentMethodRef: b.ExternalPaymentMethodID,
			IdempotencyKey:   RemainderKey(b.ID),
		}
		provider, err := tx.GetProvider(ctx, b.ProviderID)
		if err != nil {
			return err
		}
		if provider.HasPayoutDestination() {
			charge.Destination = provider.ExternalAccountID
			charge.ApplicationFeeCents = pricing.RemainderApplicationFee(
				b.PlatformFeeCents, b.AffiliateCommissionCents, b.DepositApplicationFeeCents, existing.AmountCents)
		}
		plan.charge = charge
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Complete marks b COMPLETED inside tx and claims the one-time effects of
// completion: the referral reward, the affiliate commission, the receipt of
// p and the review request. Calling it again for a completed booking claims
// nothing.
func (e *Engine) Complete(ctx context.Context, tx domain.Repository, b *models.Booking, p *models.Payment) (*Completion, error) {
	now := e.now()
	c := &Completion{Booking: b, Payment: p}

	completed, err := tx.CompleteBooking(ctx, b.ID, now)
	if err != nil {
		return nil, err
	}
	c.Completed = completed
	if !completed && b.CompletedAt == nil {
		// Closed without completion.
		return c, nil
	}

	if completed {
		b.Status = string(domain.StatusCompleted)
		b.CompletedAt = &now

		if c.ReferralGranted, err = referral.Accrue(ctx, tx, b.CustomerID); err != nil {
			return nil, err
		}
		if b.AffiliateID != nil && b.AffiliateCommissionCents > 0 {
			if err := tx.AccrueAffiliateBalance(ctx, *b.AffiliateID, b.AffiliateCommissionCents); err != nil {
				return nil, err
			}
		}
	}

	if p != nil {
		if c.ReceiptClaimed, err = tx.ClaimReceipt(ctx, p.ID, now); err != nil {
			return nil, err
		}
	}
	if c.ReviewClaimed, err = tx.ClaimReviewRequest(ctx, b.ID, now); err != nil {
		return nil, err
	}
	return c, nil
}

// RefundLateRemainder refunds a remainder captured for a booking that was
// closed without completion and reports whether it did. b must be locked
// in tx.
func (e *Engine) RefundLateRemainder(ctx context.Context, tx domain.Repository, b *models.Booking, p *models.Payment) (bool, error) {
	if b.CompletedAt != nil || domain.Status(b.Status) == domain.StatusApproved {
		return false, nil
	}
	if err := e.requireGateway(); err != nil {
		return false, err
	}
	if err := e.gateway.Refund(ctx, gateway.RefundRequest{
		Ref:            p.ExternalRef,
		IdempotencyKey: remainderRefundKey(p.ID),
	}); err != nil {
		return false, asGatewayErr(err)
	}
	if _, err := tx.TransitionPayment(ctx, p.ID, payment.StatusRefunded, nil); err != nil {
		return false, err
	}
	p.Status = string(payment.StatusRefunded)

	e.log.Warn("remainder captured after booking closed, refunded",
		zap.String("booking_id", b.ID), zap.String("status", b.Status))
	e.record(System(), b, "remainder.refunded", map[string]any{"booking_status": b.Status})
	return true, nil
}

// NotifyCompletion sends what Complete claimed. Call it after the
// transaction commits.
func (e *Engine) NotifyCompletion(ctx context.Context, c *Completion) {
	if c == nil {
		return
	}
	b := c.Booking

	if c.Completed {
		e.record(System(), b, "booking.completed", map[string]any{"referral_granted": c.ReferralGranted})
	}
	if !c.ReceiptClaimed && !c.ReviewClaimed {
		return
	}

	name := e.providerName(ctx, b.ProviderID)
	if c.ReceiptClaimed && c.Payment != nil {
		e.notifyCustomer(ctx, b, e.templates.Receipt(c.Payment.Type, c.Payment.AmountCents, b.ID, name))
	}
	if c.ReviewClaimed {
		e.notifyCustomer(ctx, b, e.templates.ReviewRequest(name, b.ProviderID, b.ID))
	}
}

// opportunistic tries the remainder once both sides confirmed. Its failure
// is reported, never returned.
func (e *Engine) opportunistic(ctx context.Context, b *models.Booking) *ChargeAttempt {
	if !domain.ReadyForCharge(b) {
		return nil
	}
	res, err := e.ChargeRemainder(ctx, System(), b.ID)
	if err != nil {
		e.log.Info("opportunistic remainder charge deferred", zap.String("booking_id", b.ID), zap.Error(err))
		return &ChargeAttempt{Attempted: true, Err: err}
	}
	if res.Booking != nil {
		*b = *res.Booking
	}
	return res.Charge
}
