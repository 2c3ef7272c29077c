package countdown

import (
	"fmt"
	"time"

	"ms-booking/internal/models"
)

// DisplayState is the derived, time-aware view of a booking. Expired is
// never stored: departure time is the single source of truth, so the state
// is recomputed from (status, departure, now) on every evaluation.
type DisplayState string

const (
	StatePending  DisplayState = "Pending"
	StateAccepted DisplayState = "Accepted"
	StateRejected DisplayState = "Rejected"
	StatePaid     DisplayState = "Paid"
	StateExpired  DisplayState = "Expired"
)

// Derive maps a stored booking status and its departure time to the display
// state at instant now. A departure at or before now expires any booking
// that is not already terminal, whatever the stored status still says.
func Derive(status models.BookingStatus, departure, now time.Time) DisplayState {
	switch status {
	case models.BookingRejected:
		return StateRejected
	case models.BookingPaid:
		return StatePaid
	}

	if !departure.After(now) {
		return StateExpired
	}

	switch status {
	case models.BookingAccepted:
		return StateAccepted
	default:
		return StatePending
	}
}

// PaymentAllowed is the single payment gate: accepted and not expired. It
// must be re-evaluated at every tick and on every payment attempt, not just
// when a view first renders.
func PaymentAllowed(status models.BookingStatus, departure, now time.Time) bool {
	return Derive(status, departure, now) == StateAccepted
}

// Remaining is a countdown decomposed for display.
type Remaining struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Breakdown decomposes the time until departure. A zero or negative
// remainder returns the zero value; callers should have derived Expired
// already.
func Breakdown(departure, now time.Time) Remaining {
	diff := departure.Sub(now)
	if diff <= 0 {
		return Remaining{}
	}

	total := int(diff / time.Second)
	return Remaining{
		Days:    total / 86400,
		Hours:   (total % 86400) / 3600,
		Minutes: (total % 3600) / 60,
		Seconds: total % 60,
	}
}

// String renders with literal unit suffixes, e.g. "2d 3h 4m 5s". Days are
// omitted when zero, matching what the booked-tickets view shows.
func (r Remaining) String() string {
	if r.Days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", r.Days, r.Hours, r.Minutes, r.Seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", r.Hours, r.Minutes, r.Seconds)
}

// Snapshot is one booking's countdown state at a tick.
type Snapshot struct {
	BookingID string       `json:"_id"`
	State     DisplayState `json:"state"`
	Countdown string       `json:"countdown,omitempty"`
	CanPay    bool         `json:"canPay"`
}

// Evaluate computes the snapshot for one booking at instant now.
func Evaluate(b models.Booking, now time.Time) Snapshot {
	state := Derive(b.Status, b.Departure, now)

	snap := Snapshot{
		BookingID: b.BookingID,
		State:     state,
		CanPay:    state == StateAccepted,
	}

	// Terminal states show no countdown; the rejected and paid cards hide it.
	if state == StatePending || state == StateAccepted {
		snap.Countdown = Breakdown(b.Departure, now).String()
	}

	return snap
}
