package booking

import (
	"time"

	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
)

func Approve(b *models.Booking) error {
	if err := CanApprove(Status(b.Status)); err != nil {
		return err
	}
	b.Status = string(StatusApproved)
	return nil
}

func Decline(b *models.Booking) error {
	if err := CanDecline(Status(b.Status)); err != nil {
		return err
	}
	b.Status = string(StatusDeclined)
	return nil
}

// MarkProviderDone records the provider's confirmation and arms the
// auto-charge deadline.
func MarkProviderDone(b *models.Booking, now time.Time) error {
	if err := CanConfirmService(Status(b.Status), b.CompletedAt != nil); err != nil {
		return err
	}
	autoCharge := now.Add(AutoChargeDelay)
	b.ProviderConfirmedAt = &now
	b.AutoChargeAt = &autoCharge
	return nil
}

func ConfirmByCustomer(b *models.Booking, now time.Time) error {
	if err := CanConfirmService(Status(b.Status), b.CompletedAt != nil); err != nil {
		return err
	}
	b.CustomerConfirmedAt = &now
	return nil
}

func ReportIssue(b *models.Booking, now time.Time) error {
	if b.CompletedAt != nil {
		return httperr.ErrBusiness("already_completed")
	}
	if b.IssueReportedAt == nil {
		b.IssueReportedAt = &now
	}
	return nil
}

func ClearIssue(b *models.Booking) {
	b.IssueReportedAt = nil
}

// Cancel moves the booking to CANCELLED. It returns false without error when
// the booking is already closed.
func Cancel(b *models.Booking) (bool, error) {
	if Closed(Status(b.Status)) {
		return false, nil
	}
	if b.CompletedAt != nil || Status(b.Status) == StatusCompleted {
		return false, httperr.ErrBusiness("already_completed")
	}
	if Status(b.Status) == StatusNoShow {
		return false, httperr.ErrBusiness("booking_no_show")
	}
	b.Status = string(StatusCancelled)
	return true, nil
}

func MarkNoShow(b *models.Booking, now time.Time) (bool, error) {
	s := Status(b.Status)
	if s == StatusNoShow || Closed(s) {
		return false, nil
	}
	if b.CompletedAt != nil || s == StatusCompleted {
		return false, httperr.ErrBusiness("already_completed")
	}
	if now.Before(b.StartAt) {
		return false, httperr.New(httperr.KindTooEarly, "too_early_for_no_show")
	}
	b.Status = string(StatusNoShow)
	return true, nil
}

// Reschedule moves the booking back to PENDING at a new time and forgets
// every confirmation made for the old slot.
func Reschedule(b *models.Booking, startAt time.Time) error {
	if err := CanReschedule(Status(b.Status)); err != nil {
		return err
	}
	b.StartAt = startAt
	b.Status = string(StatusPending)
	b.ProviderConfirmedAt = nil
	b.CustomerConfirmedAt = nil
	b.AutoChargeAt = nil
	b.CompletedAt = nil
	b.IssueReportedAt = nil
	return nil
}

// ReadyForCharge reports whether both sides confirmed and nothing blocks the
// remainder.
func ReadyForCharge(b *models.Booking) bool {
	return b.ProviderConfirmedAt != nil &&
		b.CustomerConfirmedAt != nil &&
		b.IssueReportedAt == nil &&
		b.CompletedAt == nil
}
