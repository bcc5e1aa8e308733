package payment

import "github.com/BruksfildServices01/beauty-meet/internal/httperr"

type Type string

const (
	TypeDeposit   Type = "DEPOSIT"
	TypeRemainder Type = "REMAINDER"
)

type Status string

const (
	StatusRequiresPayment Status = "REQUIRES_PAYMENT"
	StatusAuthorized      Status = "AUTHORIZED"
	StatusCaptured        Status = "CAPTURED"
	StatusVoided          Status = "VOIDED"
	StatusRefunded        Status = "REFUNDED"
)

var transitions = map[Status][]Status{
	StatusRequiresPayment: {StatusAuthorized, StatusCaptured, StatusVoided},
	StatusAuthorized:      {StatusCaptured, StatusVoided},
	StatusCaptured:        {StatusRefunded},
}

// CanTransition validates a status move. Moving to the current status is
// accepted so redelivered notifications stay harmless; callers detect the
// no-op by comparing from and to.
func CanTransition(from, to Status) error {
	if from == to {
		return nil
	}
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return httperr.New(httperr.KindInvalidTransition, "invalid_payment_transition")
}

// Active reports whether a payment in this status still occupies its
// (booking, type) slot.
func Active(s Status) bool {
	return s != StatusVoided && s != StatusRefunded
}

func Terminal(s Status) bool {
	return len(transitions[s]) == 0
}
