package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
)

type Stripe struct {
	api           *client.API
	webhookSecret string
	log           *zap.Logger
}

func NewStripe(secretKey, webhookSecret string, log *zap.Logger) *Stripe {
	return &Stripe{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
		log:           log.Named("stripe"),
	}
}

func (s *Stripe) CreateDepositCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:             stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerCreation: stripe.String(string(stripe.CheckoutSessionCustomerCreationAlways)),
		SuccessURL:       stripe.String(req.SuccessURL),
		CancelURL:        stripe.String(req.CancelURL),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			SetupFutureUsage: stripe.String(string(stripe.PaymentIntentSetupFutureUsageOffSession)),
			Metadata:         metadata(req.BookingID, req.PaymentID, req.Metadata),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey("checkout_" + req.PaymentID)

	for k, v := range metadata(req.BookingID, req.PaymentID, req.Metadata) {
		params.AddMetadata(k, v)
	}

	for _, item := range req.Items {
		if item.AmountCents <= 0 {
			continue
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency(req.Currency)),
				UnitAmount: stripe.Int64(item.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(item.Name),
					Description: optional(item.Description),
				},
			},
		})
	}

	if req.Destination != "" {
		params.PaymentIntentData.ApplicationFeeAmount = stripe.Int64(req.ApplicationFeeCents)
		params.PaymentIntentData.TransferData = &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
			Destination: stripe.String(req.Destination),
		}
	}

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, s.wrap("create checkout session", err)
	}

	out := &Checkout{RedirectURL: session.URL, CheckoutRef: session.ID}
	if session.PaymentIntent != nil {
		out.ExternalRef = session.PaymentIntent.ID
	}
	return out, nil
}

func (s *Stripe) ChargeOffSession(ctx context.Context, req OffSessionCharge) (*ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(currency(req.Currency)),
		Customer:      stripe.String(req.CustomerRef),
		PaymentMethod: stripe.String(req.PaymentMethodRef),
		OffSession:    stripe.Bool(true),
		Confirm:       stripe.Bool(true),
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)
	for k, v := range metadata(req.BookingID, "", map[string]string{"kind": "remainder"}) {
		params.AddMetadata(k, v)
	}

	if req.Destination != "" {
		params.ApplicationFeeAmount = stripe.Int64(req.ApplicationFeeCents)
		params.TransferData = &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(req.Destination),
		}
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, s.wrap("charge off session", err)
	}

	return &ChargeResult{
		Status:      chargeStatus(pi.Status),
		ExternalRef: pi.ID,
		ChargeRef:   latestCharge(pi),
	}, nil
}

func (s *Stripe) CancelAuthorization(ctx context.Context, ref string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := s.api.PaymentIntents.Cancel(ref, params); err != nil {
		return s.wrap("cancel payment intent", err)
	}
	return nil
}

func (s *Stripe) Refund(ctx context.Context, req RefundRequest) error {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(req.Ref)}
	if req.AmountCents > 0 {
		params.Amount = stripe.Int64(req.AmountCents)
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	if _, err := s.api.Refunds.New(params); err != nil {
		return s.wrap("create refund", err)
	}
	return nil
}

func (s *Stripe) PaymentMethodFor(ctx context.Context, paymentRef string) (*PaymentMethod, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Get(paymentRef, params)
	if err != nil {
		return nil, s.wrap("get payment intent", err)
	}

	out := &PaymentMethod{}
	if pi.Customer != nil {
		out.CustomerRef = pi.Customer.ID
	}
	if pi.PaymentMethod != nil {
		out.PaymentMethodRef = pi.PaymentMethod.ID
	}
	return out, nil
}

func (s *Stripe) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, httperr.Wrap(httperr.KindSignature, "invalid_signature", err)
	}

	out := &Event{
		ID:   ev.ID,
		Type: string(ev.Type),
		Kind: EventUnknown,
		Raw:  json.RawMessage(payload),
	}

	switch string(ev.Type) {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &session); err != nil {
			return nil, httperr.Wrap(httperr.KindValidation, "malformed_event", err)
		}
		out.Kind = EventCheckoutCompleted
		out.CheckoutRef = session.ID
		out.BookingID = session.Metadata["bookingId"]
		out.PaymentID = session.Metadata["paymentId"]
		if session.PaymentIntent != nil {
			out.PaymentRef = session.PaymentIntent.ID
		}
		if session.Customer != nil {
			out.CustomerRef = session.Customer.ID
		}

	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return nil, httperr.Wrap(httperr.KindValidation, "malformed_event", err)
		}
		out.Kind = EventPaymentSucceeded
		if ev.Type == "payment_intent.payment_failed" {
			out.Kind = EventPaymentFailed
		}
		out.PaymentRef = pi.ID
		out.BookingID = pi.Metadata["bookingId"]
		out.PaymentID = pi.Metadata["paymentId"]
		out.ChargeRef = latestCharge(&pi)
		if pi.Customer != nil {
			out.CustomerRef = pi.Customer.ID
		}

	case "account.updated":
		var acct stripe.Account
		if err := json.Unmarshal(ev.Data.Raw, &acct); err != nil {
			return nil, httperr.Wrap(httperr.KindValidation, "malformed_event", err)
		}
		out.Kind = EventAccountUpdated
		out.AccountID = acct.ID
		out.ChargesEnabled = acct.ChargesEnabled
		out.PayoutsEnabled = acct.PayoutsEnabled
	}

	return out, nil
}

func (s *Stripe) wrap(op string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		s.log.Warn(op+" failed",
			zap.String("type", string(se.Type)),
			zap.String("code", string(se.Code)),
			zap.Int("status", se.HTTPStatusCode),
		)
	}
	return httperr.Gateway(err)
}

func metadata(bookingID, paymentID string, extra map[string]string) map[string]string {
	m := map[string]string{"bookingId": bookingID}
	if paymentID != "" {
		m["paymentId"] = paymentID
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

func chargeStatus(s stripe.PaymentIntentStatus) ChargeStatus {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return ChargeSucceeded
	case stripe.PaymentIntentStatusProcessing:
		return ChargeProcessing
	case stripe.PaymentIntentStatusRequiresAction, stripe.PaymentIntentStatusRequiresConfirmation:
		return ChargeRequiresAction
	default:
		return ChargeFailed
	}
}

func latestCharge(pi *stripe.PaymentIntent) string {
	if pi.LatestCharge != nil {
		return pi.LatestCharge.ID
	}
	return ""
}

func currency(c string) string {
	if c == "" {
		return "usd"
	}
	return strings.ToLower(c)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return stripe.String(s)
}
