package booking

import (
	"context"
	"errors"

	domain "github.com/BruksfildServices01/beauty-meet/internal/domain/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/domain/payment"
	"github.com/BruksfildServices01/beauty-meet/internal/gateway"
	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
)

func refundKey(paymentID string) string {
	return "refund_deposit_" + paymentID
}

func remainderRefundKey(paymentID string) string {
	return "refund_remainder_" + paymentID
}

// releaseDeposit returns the deposit to the customer at the processor and
// reports the status the payment must move to. It runs outside any store
// transaction; a failure leaves the booking untouched.
func (e *Engine) releaseDeposit(ctx context.Context, bookingID string, refund bool) (*models.Payment, payment.Status, error) {
	deposit, err := e.repo.FindActivePayment(ctx, bookingID, payment.TypeDeposit)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	switch payment.Status(deposit.Status) {
	case payment.StatusRequiresPayment:
		return deposit, payment.StatusVoided, nil

	case payment.StatusAuthorized:
		if err := e.requireGateway(); err != nil {
			return nil, "", err
		}
		if deposit.ExternalRef != "" {
			if err := e.gateway.CancelAuthorization(ctx, deposit.ExternalRef); err != nil {
				return nil, "", asGatewayErr(err)
			}
		}
		return deposit, payment.StatusVoided, nil

	case payment.StatusCaptured:
		if !refund {
			return deposit, payment.StatusCaptured, nil
		}
		if err := e.requireGateway(); err != nil {
			return nil, "", err
		}
		if err := e.gateway.Refund(ctx, gateway.RefundRequest{
			Ref:            deposit.ExternalRef,
			IdempotencyKey: refundKey(deposit.ID),
		}); err != nil {
			return nil, "", asGatewayErr(err)
		}
		return deposit, payment.StatusRefunded, nil
	}

	return deposit, payment.Status(deposit.Status), nil
}

// releaseRemainder stops a remainder still settling at the processor when
// the booking closes without completion. A remainder that was never sent is
// left alone; if its charge lands later, RefundLateRemainder returns it.
func (e *Engine) releaseRemainder(ctx context.Context, bookingID string) (*models.Payment, payment.Status, error) {
	remainder, err := e.repo.FindActivePayment(ctx, bookingID, payment.TypeRemainder)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	switch payment.Status(remainder.Status) {
	case payment.StatusAuthorized:
		if err := e.requireGateway(); err != nil {
			return nil, "", err
		}
		if remainder.ExternalRef != "" {
			if err := e.gateway.CancelAuthorization(ctx, remainder.ExternalRef); err != nil {
				return nil, "", asGatewayErr(err)
			}
		}
		return remainder, payment.StatusVoided, nil

	case payment.StatusCaptured:
		if err := e.requireGateway(); err != nil {
			return nil, "", err
		}
		if err := e.gateway.Refund(ctx, gateway.RefundRequest{
			Ref:            remainder.ExternalRef,
			IdempotencyKey: remainderRefundKey(remainder.ID),
		}); err != nil {
			return nil, "", asGatewayErr(err)
		}
		return remainder, payment.StatusRefunded, nil
	}

	return nil, "", nil
}

func (e *Engine) requireGateway() error {
	if e.gateway == nil {
		return httperr.New(httperr.KindPaymentConfig, "payments_not_configured")
	}
	return nil
}

func asGatewayErr(err error) error {
	if httperr.KindOf(err) != "" {
		return err
	}
	return httperr.Gateway(err)
}

// settleDeposit records the outcome of releaseDeposit or releaseRemainder
// inside tx.
func settleDeposit(ctx context.Context, tx domain.Repository, deposit *models.Payment, to payment.Status) error {
	if deposit == nil || to == "" {
		return nil
	}
	_, err := tx.TransitionPayment(ctx, deposit.ID, to, nil)
	return err
}
