// Package gatewaytest provides an in-memory gateway.Gateway that records
// every call and lets tests script the processor's answers.
package gatewaytest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/BruksfildServices01/beauty-meet/internal/gateway"
	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
)

const Signature = "test-signature"

type Fake struct {
	mu sync.Mutex

	Checkouts   []gateway.CheckoutRequest
	Charges     []gateway.OffSessionCharge
	Refunds     []gateway.RefundRequest
	Cancels     []string
	MethodCalls []string

	CheckoutErr error
	ChargeErr   error
	RefundErr   error
	CancelErr   error
	MethodErr   error

	// ChargeStatus defaults to succeeded.
	ChargeStatus gateway.ChargeStatus
	Method       gateway.PaymentMethod
}

func New() *Fake {
	return &Fake{
		Method: gateway.PaymentMethod{CustomerRef: "cus_test", PaymentMethodRef: "pm_test"},
	}
}

func (f *Fake) CreateDepositCheckout(_ context.Context, req gateway.CheckoutRequest) (*gateway.Checkout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Checkouts = append(f.Checkouts, req)
	if f.CheckoutErr != nil {
		return nil, httperr.Gateway(f.CheckoutErr)
	}
	n := len(f.Checkouts)
	return &gateway.Checkout{
		RedirectURL: fmt.Sprintf("https://checkout.test/%d", n),
		ExternalRef: fmt.Sprintf("pi_deposit_%d", n),
		CheckoutRef: fmt.Sprintf("cs_%d", n),
	}, nil
}

func (f *Fake) ChargeOffSession(_ context.Context, req gateway.OffSessionCharge) (*gateway.ChargeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Charges = append(f.Charges, req)
	if f.ChargeErr != nil {
		return nil, httperr.Gateway(f.ChargeErr)
	}
	status := f.ChargeStatus
	if status == "" {
		status = gateway.ChargeSucceeded
	}
	return &gateway.ChargeResult{
		Status:      status,
		ExternalRef: "pi_" + req.IdempotencyKey,
		ChargeRef:   "ch_" + req.IdempotencyKey,
	}, nil
}

func (f *Fake) CancelAuthorization(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Cancels = append(f.Cancels, ref)
	if f.CancelErr != nil {
		return httperr.Gateway(f.CancelErr)
	}
	return nil
}

func (f *Fake) Refund(_ context.Context, req gateway.RefundRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Refunds = append(f.Refunds, req)
	if f.RefundErr != nil {
		return httperr.Gateway(f.RefundErr)
	}
	return nil
}

func (f *Fake) PaymentMethodFor(_ context.Context, paymentRef string) (*gateway.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.MethodCalls = append(f.MethodCalls, paymentRef)
	if f.MethodErr != nil {
		return nil, httperr.Gateway(f.MethodErr)
	}
	m := f.Method
	return &m, nil
}

// VerifyWebhook accepts payloads produced by Payload and signed with
// Signature.
func (f *Fake) VerifyWebhook(payload []byte, signature string) (*gateway.Event, error) {
	if signature != Signature {
		return nil, httperr.New(httperr.KindSignature, "invalid_signature")
	}
	var ev gateway.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, httperr.Wrap(httperr.KindValidation, "malformed_event", err)
	}
	ev.Raw = json.RawMessage(payload)
	return &ev, nil
}

// Payload encodes an event the way VerifyWebhook expects it.
func Payload(ev gateway.Event) []byte {
	ev.Raw = nil
	b, err := json.Marshal(ev)
	if err != nil {
		panic(err)
	}
	return b
}

func (f *Fake) ChargeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Charges)
}

func (f *Fake) RefundCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Refunds)
}
