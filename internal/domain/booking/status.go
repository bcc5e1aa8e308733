package booking

import "github.com/BruksfildServices01/beauty-meet/internal/httperr"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusDeclined  Status = "DECLINED"
	StatusNoShow    Status = "NO_SHOW"
)

func InitialStatus() Status {
	return StatusPending
}

// Closed reports statuses a booking can never leave through a lifecycle
// action. Cancel and no-show treat them as no-ops.
func Closed(s Status) bool {
	return s == StatusCancelled || s == StatusDeclined
}

func CanApprove(current Status) error {
	if current != StatusPending {
		return httperr.ErrBusiness("booking_not_pending")
	}
	return nil
}

func CanDecline(current Status) error {
	if current != StatusPending {
		return httperr.ErrBusiness("booking_not_pending")
	}
	return nil
}

// CanConfirmService guards both the provider's "done" and the customer's
// confirmation.
func CanConfirmService(current Status, completed bool) error {
	if completed {
		return httperr.ErrBusiness("already_completed")
	}
	if current != StatusApproved {
		return httperr.ErrBusiness("booking_not_approved")
	}
	return nil
}

func CanReschedule(current Status) error {
	if current != StatusPending && current != StatusApproved {
		return httperr.ErrBusiness("booking_not_reschedulable")
	}
	return nil
}

func CanCharge(current Status, completed bool) error {
	if completed {
		return httperr.ErrBusiness("already_completed")
	}
	if current != StatusApproved {
		return httperr.ErrBusiness("booking_not_approved")
	}
	return nil
}
