package countdown_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-booking/internal/countdown"
	"ms-booking/internal/models"
)

func TestWatchEmitsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bookings := []models.Booking{
		{BookingID: "b-1", Status: models.BookingAccepted, Departure: time.Now().Add(time.Hour)},
		{BookingID: "b-2", Status: models.BookingAccepted, Departure: time.Now().Add(-time.Hour)},
	}

	ticks := countdown.Watch(ctx, bookings, time.Second)

	select {
	case tick := <-ticks:
		require.Len(t, tick.Snapshots, 2)
		assert.Equal(t, countdown.StateAccepted, tick.Snapshots[0].State)
		assert.Equal(t, countdown.StateExpired, tick.Snapshots[1].State, "already-departed booking must render Expired on the first tick")
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected an immediate first tick")
	}
}

func TestWatchTicksOnInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bookings := []models.Booking{
		{BookingID: "b-1", Status: models.BookingPending, Departure: time.Now().Add(time.Hour)},
	}

	ticks := countdown.Watch(ctx, bookings, 20*time.Millisecond)

	// First immediate emit plus at least one interval tick.
	for i := 0; i < 2; i++ {
		select {
		case tick, ok := <-ticks:
			require.True(t, ok)
			require.Len(t, tick.Snapshots, 1)
		case <-time.After(time.Second):
			t.Fatalf("tick %d never arrived", i)
		}
	}
}

func TestWatchClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ticks := countdown.Watch(ctx, nil, 10*time.Millisecond)
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ticks:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel was not closed after cancel")
		}
	}
}
