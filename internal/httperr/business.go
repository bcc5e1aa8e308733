package httperr

import (
	"errors"
	"fmt"
)

// Kind classifies a business error so transports can pick a status code
// and callers can decide whether to retry.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindInvalidState      Kind = "invalid_state"
	KindTooEarly          Kind = "too_early"
	KindIssuePaused       Kind = "issue_paused"
	KindPrecondition      Kind = "precondition"
	KindPaymentConfig     Kind = "payment_configuration"
	KindGateway           Kind = "gateway"
	KindSignature         Kind = "signature"
	KindInvalidTransition Kind = "invalid_transition"
	KindForbidden         Kind = "forbidden"
)

type BusinessError struct {
	Kind Kind
	Code string
	Err  error
}

func (e BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e BusinessError) Unwrap() error {
	return e.Err
}

// ErrBusiness builds an invalid_state error, the most common rejection of a
// lifecycle action.
func ErrBusiness(code string) error {
	return BusinessError{Kind: KindInvalidState, Code: code}
}

func New(kind Kind, code string) error {
	return BusinessError{Kind: kind, Code: code}
}

func Wrap(kind Kind, code string, err error) error {
	return BusinessError{Kind: kind, Code: code, Err: err}
}

func Validation(code string) error   { return New(KindValidation, code) }
func NotFound(code string) error     { return New(KindNotFound, code) }
func Precondition(code string) error { return New(KindPrecondition, code) }
func Gateway(err error) error        { return Wrap(KindGateway, "gateway_error", err) }

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// KindOf returns the kind of the first business error in the chain, or ""
// for errors that did not originate from business rules.
func KindOf(err error) Kind {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
