package countdown

import (
	"context"
	"time"

	"ms-booking/internal/models"
)

// Tick is the per-second batch of snapshots for one watched booking set.
type Tick struct {
	At        time.Time  `json:"at"`
	Snapshots []Snapshot `json:"snapshots"`
}

// Watch recomputes the display state of every booking in the set once per
// second on a single shared ticker and sends the batch on the returned
// channel. One ticker serves the whole set; per-booking timers would leak.
// The ticker is cancelled when ctx is done, and the channel is closed so
// the consumer can tell teardown from a stall.
//
// The watched set is fixed for the lifetime of the call: when the booking
// list changes identity the caller cancels and watches again.
func Watch(ctx context.Context, bookings []models.Booking, interval time.Duration) <-chan Tick {
	if interval <= 0 {
		interval = time.Second
	}

	out := make(chan Tick, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// First tick immediately: a booking already past departure must
		// show Expired at render time, not a second later.
		emit(ctx, out, bookings, time.Now())

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				emit(ctx, out, bookings, now)
			}
		}
	}()

	return out
}

func emit(ctx context.Context, out chan<- Tick, bookings []models.Booking, now time.Time) {
	tick := Tick{At: now, Snapshots: make([]Snapshot, 0, len(bookings))}
	for _, b := range bookings {
		tick.Snapshots = append(tick.Snapshots, Evaluate(b, now))
	}

	// Drop the tick rather than block a consumer that already went away.
	select {
	case out <- tick:
	case <-ctx.Done():
	}
}
