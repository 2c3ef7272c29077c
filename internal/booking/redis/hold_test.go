package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis runs an in-memory miniredis and a client against it, so
// the hold logic can be exercised without a real Redis server.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, client.Ping(context.Background()).Err())

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestHoldSeats_SerializesAttempts(t *testing.T) {
	client, _ := setupTestRedis(t)
	h := NewHold(client)
	ctx := context.Background()

	ok, err := h.HoldSeats(ctx, "ticket-1", "booking-1")
	require.NoError(t, err)
	assert.True(t, ok, "first attempt should take the hold")

	ok, err = h.HoldSeats(ctx, "ticket-1", "booking-2")
	require.NoError(t, err)
	assert.False(t, ok, "second attempt on the same ticket must be refused")

	// A different ticket is an independent hold.
	ok, err = h.HoldSeats(ctx, "ticket-2", "booking-2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReleaseSeats_OnlyOwnerReleases(t *testing.T) {
	client, _ := setupTestRedis(t)
	h := NewHold(client)
	ctx := context.Background()

	ok, err := h.HoldSeats(ctx, "ticket-1", "booking-1")
	require.NoError(t, err)
	require.True(t, ok)

	// A non-owner release is a no-op, not an error.
	require.NoError(t, h.ReleaseSeats(ctx, "ticket-1", "booking-2"))
	ok, err = h.HoldSeats(ctx, "ticket-1", "booking-3")
	require.NoError(t, err)
	assert.False(t, ok, "hold must survive a non-owner release")

	require.NoError(t, h.ReleaseSeats(ctx, "ticket-1", "booking-1"))
	ok, err = h.HoldSeats(ctx, "ticket-1", "booking-3")
	require.NoError(t, err)
	assert.True(t, ok, "hold is free after the owner releases")
}

func TestReleaseSeats_MissingHoldIsNoop(t *testing.T) {
	client, _ := setupTestRedis(t)
	h := NewHold(client)

	assert.NoError(t, h.ReleaseSeats(context.Background(), "ticket-1", "booking-1"))
}

func TestHoldSeats_ExpiresOnItsOwn(t *testing.T) {
	client, mr := setupTestRedis(t)
	h := NewHold(client)
	ctx := context.Background()

	ok, err := h.HoldSeats(ctx, "ticket-1", "booking-1")
	require.NoError(t, err)
	require.True(t, ok)

	// A crashed attempt never releases; the TTL does it instead.
	mr.FastForward(time.Minute)

	ok, err = h.HoldSeats(ctx, "ticket-1", "booking-2")
	require.NoError(t, err)
	assert.True(t, ok, "hold must expire without an explicit release")
}

func TestOpenPaymentWindow_TTLEndsAtDeparture(t *testing.T) {
	client, mr := setupTestRedis(t)
	h := NewHold(client)
	ctx := context.Background()

	require.NoError(t, h.OpenPaymentWindow(ctx, "booking-1", time.Now().Add(2*time.Hour)))

	ttl := mr.TTL("payment_window:booking-1")
	assert.InDelta(t, (2 * time.Hour).Seconds(), ttl.Seconds(), 5)
}

func TestOpenPaymentWindow_RefusesPastDeparture(t *testing.T) {
	client, _ := setupTestRedis(t)
	h := NewHold(client)

	err := h.OpenPaymentWindow(context.Background(), "booking-1", time.Now().Add(-time.Minute))
	assert.Error(t, err)
}

func TestClosePaymentWindow(t *testing.T) {
	client, mr := setupTestRedis(t)
	h := NewHold(client)
	ctx := context.Background()

	require.NoError(t, h.OpenPaymentWindow(ctx, "booking-1", time.Now().Add(time.Hour)))
	require.NoError(t, h.ClosePaymentWindow(ctx, "booking-1"))

	assert.False(t, mr.Exists("payment_window:booking-1"))
}
