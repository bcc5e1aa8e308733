package notify

import (
	"fmt"
	"strings"
	"time"
)

// Templates renders the brand-prefixed texts sent around a booking.
type Templates struct {
	Brand   string
	BaseURL string
}

func Money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func (t Templates) Receipt(kind string, amountCents int64, bookingID, providerName string) string {
	who := ""
	if providerName != "" {
		who = " with " + providerName
	}
	return fmt.Sprintf("%s receipt: %s payment %s%s. Booking %s.",
		t.Brand, strings.ToLower(kind), Money(amountCents), who, bookingID)
}

func (t Templates) ReviewRequest(providerName, providerID, bookingID string) string {
	msg := fmt.Sprintf("%s: How was your appointment with %s? Reply with 1-5 stars and any notes. Booking %s.",
		t.Brand, providerName, bookingID)
	if t.BaseURL != "" {
		msg += " " + strings.TrimRight(t.BaseURL, "/") + "/p/" + providerID
	}
	return msg
}

func (t Templates) Approved(providerName string, startAt time.Time) string {
	return fmt.Sprintf("%s: %s approved your appointment on %s.",
		t.Brand, providerName, startAt.Format("Mon Jan 2 at 3:04 PM"))
}

func (t Templates) Declined(providerName string) string {
	return fmt.Sprintf("%s: %s could not take your appointment. Your deposit is being refunded in full.",
		t.Brand, providerName)
}

func (t Templates) Cancelled(bookingID string, refunded bool) string {
	if refunded {
		return fmt.Sprintf("%s: booking %s was cancelled and your deposit is being refunded.", t.Brand, bookingID)
	}
	return fmt.Sprintf("%s: booking %s was cancelled. The deposit is kept per the late cancellation policy.", t.Brand, bookingID)
}

func (t Templates) Rescheduled(bookingID string, startAt time.Time) string {
	return fmt.Sprintf("%s: booking %s was moved to %s and needs your approval again.",
		t.Brand, bookingID, startAt.Format("Mon Jan 2 at 3:04 PM"))
}
