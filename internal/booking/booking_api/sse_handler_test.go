package booking_api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-booking/internal/auth"
	"ms-booking/internal/booking/booking_api"
	"ms-booking/internal/logger"
	"ms-booking/internal/rbac"
	"ms-booking/internal/sse"
)

func startBookingEventsStream(t *testing.T, emitter *sse.BookingEventEmitter, email string, role rbac.Role) (cancel func()) {
	t.Helper()

	h := booking_api.NewHandler(nil, emitter, logger.NewLogger())

	ctx, cancelCtx := context.WithCancel(context.Background())
	ctx = auth.WithIdentity(ctx, "uid-1", email)
	ctx = rbac.WithRole(ctx, role)

	req := httptest.NewRequest(http.MethodGet, "/booking-events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.HandleBookingEvents(rec, req)
		close(done)
	}()

	t.Cleanup(func() {
		cancelCtx()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("booking events stream did not stop after disconnect")
		}
	})
	return cancelCtx
}

func TestBookingEventsVendorSubscribesAsVendorOnly(t *testing.T) {
	emitter := sse.NewBookingEventEmitter()

	startBookingEventsStream(t, emitter, "vendor@example.com", rbac.RoleVendor)

	require.Eventually(t, func() bool {
		return emitter.VendorSubscriberCount("vendor@example.com") == 1
	}, time.Second, 10*time.Millisecond)

	assert.Zero(t, emitter.BuyerSubscriberCount("vendor@example.com"))
}

func TestBookingEventsBuyerSubscribesAsBuyerOnly(t *testing.T) {
	emitter := sse.NewBookingEventEmitter()

	startBookingEventsStream(t, emitter, "buyer@example.com", rbac.RoleUser)

	require.Eventually(t, func() bool {
		return emitter.BuyerSubscriberCount("buyer@example.com") == 1
	}, time.Second, 10*time.Millisecond)

	assert.Zero(t, emitter.VendorSubscriberCount("buyer@example.com"))
}

func TestBookingEventsSubscriptionReleasedOnDisconnect(t *testing.T) {
	emitter := sse.NewBookingEventEmitter()

	cancel := startBookingEventsStream(t, emitter, "vendor@example.com", rbac.RoleVendor)

	require.Eventually(t, func() bool {
		return emitter.VendorSubscriberCount("vendor@example.com") == 1
	}, time.Second, 10*time.Millisecond)

	cancel()

	require.Eventually(t, func() bool {
		return emitter.VendorSubscriberCount("vendor@example.com") == 0
	}, time.Second, 10*time.Millisecond)
}
