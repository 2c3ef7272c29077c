package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-booking/internal/booking/db"
	"ms-booking/internal/models"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, bunDB.ResetModel(context.Background(), (*models.Booking)(nil)))

	return &db.DB{Bun: bunDB}
}

func sampleBooking(id, buyer string, status models.BookingStatus) models.Booking {
	return models.Booking{
		BookingID:   id,
		TicketID:    "t-1",
		Title:       "Dhaka to Sylhet",
		From:        "Dhaka",
		To:          "Sylhet",
		BuyerName:   "Buyer",
		BuyerEmail:  buyer,
		VendorEmail: "vendor@example.com",
		Quantity:    2,
		UnitPrice:   850,
		TotalPrice:  1700,
		Departure:   time.Now().Add(48 * time.Hour),
		Status:      status,
		CreatedAt:   time.Now(),
	}
}

func TestCreateAndGetBooking(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.CreateBooking(ctx, sampleBooking("b-1", "buyer@example.com", models.BookingPending)))

	got, err := database.GetBookingByID(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, got.Status)
	assert.Equal(t, 1700.0, got.TotalPrice)
	assert.Empty(t, got.SessionID)
}

func TestGetBookingBySession(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	b := sampleBooking("b-1", "buyer@example.com", models.BookingAccepted)
	b.SessionID = "cs_123"
	require.NoError(t, database.CreateBooking(ctx, b))

	got, err := database.GetBookingBySession(ctx, "cs_123")
	require.NoError(t, err)
	assert.Equal(t, "b-1", got.BookingID)

	_, err = database.GetBookingBySession(ctx, "cs_missing")
	assert.Error(t, err)
}

func TestUpdateBookingTouchesStatusAndSessionOnly(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.CreateBooking(ctx, sampleBooking("b-1", "buyer@example.com", models.BookingPending)))

	patch := sampleBooking("b-1", "buyer@example.com", models.BookingAccepted)
	patch.SessionID = "cs_123"
	patch.TotalPrice = 99999
	require.NoError(t, database.UpdateBooking(ctx, patch))

	got, err := database.GetBookingByID(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingAccepted, got.Status)
	assert.Equal(t, "cs_123", got.SessionID)
	assert.Equal(t, 1700.0, got.TotalPrice)
}

func TestListByBuyer(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.CreateBooking(ctx, sampleBooking("b-1", "a@example.com", models.BookingPending)))
	require.NoError(t, database.CreateBooking(ctx, sampleBooking("b-2", "a@example.com", models.BookingAccepted)))
	require.NoError(t, database.CreateBooking(ctx, sampleBooking("b-3", "b@example.com", models.BookingPending)))

	mine, err := database.ListByBuyer(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestListByVendorAndStatus(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.CreateBooking(ctx, sampleBooking("b-1", "a@example.com", models.BookingPending)))
	require.NoError(t, database.CreateBooking(ctx, sampleBooking("b-2", "b@example.com", models.BookingPending)))
	accepted := sampleBooking("b-3", "c@example.com", models.BookingAccepted)
	require.NoError(t, database.CreateBooking(ctx, accepted))

	pending, err := database.ListByVendorAndStatus(ctx, "vendor@example.com", models.BookingPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	paid, err := database.ListByVendorAndStatus(ctx, "vendor@example.com", models.BookingPaid)
	require.NoError(t, err)
	assert.Empty(t, paid)
}
