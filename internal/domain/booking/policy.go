package booking

import "time"

// EarlyCancelWindow is how far ahead of the appointment a customer may
// cancel and still get the deposit back.
const EarlyCancelWindow = 3 * time.Hour

// AutoChargeDelay is how long after the provider marks a booking done the
// remainder is charged without the customer's confirmation.
const AutoChargeDelay = 12 * time.Hour

type CancelPolicy string

const (
	PolicyNone      CancelPolicy = ""
	PolicyEarly     CancelPolicy = "EARLY"
	PolicyLate      CancelPolicy = "LATE"
	PolicyTechFault CancelPolicy = "TECH_FAULT"
)

// Refunds reports whether the deposit goes back to the customer.
func (p CancelPolicy) Refunds() bool {
	return p == PolicyEarly || p == PolicyTechFault
}

// CustomerCancelPolicy picks EARLY or LATE from the time left before start.
func CustomerCancelPolicy(startAt, now time.Time) CancelPolicy {
	if startAt.Sub(now) >= EarlyCancelWindow {
		return PolicyEarly
	}
	return PolicyLate
}
