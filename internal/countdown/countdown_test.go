package countdown_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ms-booking/internal/countdown"
	"ms-booking/internal/models"
)

func TestDeriveTerminalStatesIgnoreDeparture(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	assert.Equal(t, countdown.StateRejected, countdown.Derive(models.BookingRejected, past, now))
	assert.Equal(t, countdown.StatePaid, countdown.Derive(models.BookingPaid, past, now))
}

func TestDeriveExpiryBoundary(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		status    models.BookingStatus
		departure time.Time
		want      countdown.DisplayState
	}{
		{"accepted one second before departure", models.BookingAccepted, now.Add(time.Second), countdown.StateAccepted},
		{"accepted exactly at departure", models.BookingAccepted, now, countdown.StateExpired},
		{"accepted one second past departure", models.BookingAccepted, now.Add(-time.Second), countdown.StateExpired},
		{"pending past departure", models.BookingPending, now.Add(-time.Second), countdown.StateExpired},
		{"pending before departure", models.BookingPending, now.Add(time.Hour), countdown.StatePending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, countdown.Derive(tt.status, tt.departure, now))
		})
	}
}

func TestPaymentAllowed(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Second)

	assert.True(t, countdown.PaymentAllowed(models.BookingAccepted, future, now))
	assert.False(t, countdown.PaymentAllowed(models.BookingAccepted, past, now), "expired booking must close the gate")
	assert.False(t, countdown.PaymentAllowed(models.BookingPending, future, now))
	assert.False(t, countdown.PaymentAllowed(models.BookingPaid, future, now))
	assert.False(t, countdown.PaymentAllowed(models.BookingRejected, future, now))
}

func TestBreakdown(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	departure := now.Add(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second)
	r := countdown.Breakdown(departure, now)
	assert.Equal(t, countdown.Remaining{Days: 2, Hours: 3, Minutes: 4, Seconds: 5}, r)
	assert.Equal(t, "2d 3h 4m 5s", r.String())

	sameDay := now.Add(45*time.Minute + 30*time.Second)
	r = countdown.Breakdown(sameDay, now)
	assert.Equal(t, "0h 45m 30s", r.String(), "days are omitted when zero")

	assert.Equal(t, countdown.Remaining{}, countdown.Breakdown(now, now))
	assert.Equal(t, countdown.Remaining{}, countdown.Breakdown(now.Add(-time.Minute), now))
}

func TestEvaluate(t *testing.T) {
	now := time.Now()

	accepted := models.Booking{
		BookingID: "b-1",
		Status:    models.BookingAccepted,
		Departure: now.Add(90 * time.Second),
	}
	snap := countdown.Evaluate(accepted, now)
	assert.Equal(t, countdown.StateAccepted, snap.State)
	assert.True(t, snap.CanPay)
	assert.Equal(t, "0h 1m 30s", snap.Countdown)

	expired := models.Booking{
		BookingID: "b-2",
		Status:    models.BookingAccepted,
		Departure: now.Add(-time.Second),
	}
	snap = countdown.Evaluate(expired, now)
	assert.Equal(t, countdown.StateExpired, snap.State)
	assert.False(t, snap.CanPay)
	assert.Empty(t, snap.Countdown)

	paid := models.Booking{
		BookingID: "b-3",
		Status:    models.BookingPaid,
		Departure: now.Add(time.Hour),
	}
	snap = countdown.Evaluate(paid, now)
	assert.Equal(t, countdown.StatePaid, snap.State)
	assert.False(t, snap.CanPay)
	assert.Empty(t, snap.Countdown, "terminal states show no countdown")
}
