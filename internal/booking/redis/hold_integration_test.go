package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestHoldIntegration runs the seat hold against a real Redis container.
func TestHoldIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	defer client.Close()

	h := NewHold(client)

	ok, err := h.HoldSeats(ctx, "ticket-1", "booking-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.HoldSeats(ctx, "ticket-1", "booking-2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, h.ReleaseSeats(ctx, "ticket-1", "booking-1"))

	ok, err = h.HoldSeats(ctx, "ticket-1", "booking-2")
	require.NoError(t, err)
	assert.True(t, ok)

	// The payment window key must expire on its own at departure.
	require.NoError(t, h.OpenPaymentWindow(ctx, "booking-1", time.Now().Add(2*time.Second)))

	exists, err := client.Exists(ctx, "payment_window:booking-1").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	time.Sleep(3 * time.Second)

	exists, err = client.Exists(ctx, "payment_window:booking-1").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
}
