// Package gateway is the narrow surface the booking engine and the webhook
// reconciler use to move money through the payment processor.
package gateway

import (
	"context"
	"encoding/json"
)

type ChargeStatus string

const (
	ChargeSucceeded      ChargeStatus = "succeeded"
	ChargeRequiresAction ChargeStatus = "requires_action"
	ChargeProcessing     ChargeStatus = "processing"
	ChargeFailed         ChargeStatus = "failed"
)

type EventKind string

const (
	EventCheckoutCompleted EventKind = "checkout_completed"
	EventPaymentSucceeded  EventKind = "payment_succeeded"
	EventPaymentFailed     EventKind = "payment_failed"
	EventAccountUpdated    EventKind = "account_updated"
	EventUnknown           EventKind = "unknown"
)

type LineItem struct {
	Name        string
	Description string
	AmountCents int64
}

type CheckoutRequest struct {
	BookingID string
	PaymentID string
	Currency  string
	Items     []LineItem

	SuccessURL string
	CancelURL  string

	// Destination and ApplicationFeeCents are set together when the
	// provider has a connected account.
	Destination         string
	ApplicationFeeCents int64

	Metadata map[string]string
}

type Checkout struct {
	RedirectURL string
	ExternalRef string
	CheckoutRef string
}

// OffSessionCharge is sent with the same parameters on every retry of a
// booking's remainder, so it carries no per-attempt payment id.
type OffSessionCharge struct {
	BookingID        string
	AmountCents      int64
	Currency         string
	CustomerRef      string
	PaymentMethodRef string

	Destination         string
	ApplicationFeeCents int64

	IdempotencyKey string
}

type ChargeResult struct {
	Status      ChargeStatus
	ExternalRef string
	ChargeRef   string
}

type RefundRequest struct {
	Ref            string
	AmountCents    int64 // 0 refunds the full amount
	IdempotencyKey string
}

// Event is a verified processor notification normalized to the fields the
// reconciler acts on.
type Event struct {
	ID   string
	Type string
	Kind EventKind

	BookingID   string
	PaymentID   string
	PaymentRef  string
	CheckoutRef string
	CustomerRef string
	ChargeRef   string

	AccountID      string
	ChargesEnabled bool
	PayoutsEnabled bool

	Raw json.RawMessage
}

type PaymentMethod struct {
	CustomerRef      string
	PaymentMethodRef string
}

type Gateway interface {
	CreateDepositCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	ChargeOffSession(ctx context.Context, req OffSessionCharge) (*ChargeResult, error)
	CancelAuthorization(ctx context.Context, ref string) error
	Refund(ctx context.Context, req RefundRequest) error
	VerifyWebhook(payload []byte, signature string) (*Event, error)
	PaymentMethodFor(ctx context.Context, paymentRef string) (*PaymentMethod, error)
}
