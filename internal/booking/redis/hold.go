package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Hold serializes concurrent booking attempts against the same ticket and
// tracks open payment windows via key TTLs.
type Hold struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewHold(client *redis.Client) *Hold {
	return &Hold{
		Client: client,
		Logger: log.Default(),
	}
}

// getHoldDuration returns how long a booking attempt may hold a ticket's
// seats before the hold self-expires.
func (h *Hold) getHoldDuration() time.Duration {
	defaultDuration := 30 * time.Second

	holdTTLStr := os.Getenv("SEAT_HOLD_TTL_SECONDS")
	if holdTTLStr == "" {
		return defaultDuration
	}

	holdTTLSec, err := strconv.Atoi(holdTTLStr)
	if err != nil {
		h.Logger.Println("REDIS: Invalid SEAT_HOLD_TTL_SECONDS value '" + holdTTLStr + "', using default 30 seconds")
		return defaultDuration
	}

	return time.Duration(holdTTLSec) * time.Second
}

func seatHoldKey(ticketID string) string {
	return "seat_hold:" + ticketID
}

func paymentWindowKey(bookingID string) string {
	return "payment_window:" + bookingID
}

// HoldSeats takes the per-ticket hold for one booking attempt. Returns
// false when another attempt already holds it; the TTL guarantees a
// crashed attempt cannot wedge the ticket.
func (h *Hold) HoldSeats(ctx context.Context, ticketID, bookingID string) (bool, error) {
	ok, err := h.Client.SetNX(ctx, seatHoldKey(ticketID), bookingID, h.getHoldDuration()).Result()
	if err != nil {
		return false, fmt.Errorf("failed to hold seats for ticket %s: %w", ticketID, err)
	}
	return ok, nil
}

// ReleaseSeats drops the hold, but only if this booking attempt owns it.
func (h *Hold) ReleaseSeats(ctx context.Context, ticketID, bookingID string) error {
	owner, err := h.Client.Get(ctx, seatHoldKey(ticketID)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if owner != bookingID {
		h.Logger.Printf("REDIS: not releasing seat hold for ticket %s, owned by another booking", ticketID)
		return nil
	}
	return h.Client.Del(ctx, seatHoldKey(ticketID)).Err()
}

// OpenPaymentWindow sets a key that expires exactly at departure. The
// keyspace expiry notification is what tells the gateway a still-unpaid
// accepted booking ran out of time; the booking row itself is never
// mutated for expiry.
func (h *Hold) OpenPaymentWindow(ctx context.Context, bookingID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return fmt.Errorf("payment window for booking %s already closed", bookingID)
	}
	return h.Client.Set(ctx, paymentWindowKey(bookingID), "open", ttl).Err()
}

// ClosePaymentWindow removes the window early, after a successful payment.
func (h *Hold) ClosePaymentWindow(ctx context.Context, bookingID string) error {
	return h.Client.Del(ctx, paymentWindowKey(bookingID)).Err()
}
