package payment_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/payment"
	"ms-booking/internal/payment/services"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CreateSession(b models.Booking) (string, string, error) {
	args := m.Called(b)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockProvider) RetrieveSession(sessionID string) (*services.SessionInfo, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SessionInfo), args.Error(1)
}

type MockBookingStore struct {
	mock.Mock
}

func (m *MockBookingStore) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingStore) GetBookingBySession(ctx context.Context, sessionID string) (*models.Booking, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingStore) UpdateBooking(ctx context.Context, b models.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

type MockPaymentStore struct {
	mock.Mock
}

func (m *MockPaymentStore) SavePayment(p *models.Payment) error {
	args := m.Called(p)
	return args.Error(0)
}

func (m *MockPaymentStore) GetPayment(id string) (*models.Payment, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentStore) GetPaymentBySessionID(sessionID string) (*models.Payment, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentStore) GetPaymentByBookingID(bookingID string) (*models.Payment, error) {
	args := m.Called(bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentStore) UpdatePayment(p *models.Payment) error {
	args := m.Called(p)
	return args.Error(0)
}

func (m *MockPaymentStore) ListPaymentsByBuyer(email string, limit, offset int) ([]*models.Payment, error) {
	args := m.Called(email, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockPaymentStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockPaymentStore) HealthCheck() error {
	args := m.Called()
	return args.Error(0)
}

func acceptedBooking(departure time.Time) *models.Booking {
	return &models.Booking{
		BookingID:   "b-1",
		TicketID:    "t-1",
		Title:       "Dhaka to Sylhet",
		BuyerEmail:  "buyer@example.com",
		VendorEmail: "vendor@example.com",
		Quantity:    2,
		TotalPrice:  1700,
		Departure:   departure,
		Status:      models.BookingAccepted,
	}
}

func newPaymentService(provider *MockProvider, bookings *MockBookingStore, store *MockPaymentStore) *payment.Service {
	return payment.NewService(provider, bookings, store, nil, nil, nil, logger.NewLogger())
}

func TestCheckoutRefusedWhenExpired(t *testing.T) {
	bookings := &MockBookingStore{}
	provider := &MockProvider{}
	service := newPaymentService(provider, bookings, &MockPaymentStore{})

	// Accepted in storage, but departure has passed: the gate is closed no
	// matter what the client's button still showed.
	bookings.On("GetBookingByID", mock.Anything, "b-1").Return(acceptedBooking(time.Now().Add(-time.Minute)), nil)

	_, err := service.CreateCheckoutSession(context.Background(), "b-1", "buyer@example.com")
	assert.ErrorIs(t, err, payment.ErrPaymentNotAllowed)
	provider.AssertNotCalled(t, "CreateSession")
}

func TestCheckoutRefusedWhenNotAccepted(t *testing.T) {
	bookings := &MockBookingStore{}
	provider := &MockProvider{}
	service := newPaymentService(provider, bookings, &MockPaymentStore{})

	pending := acceptedBooking(time.Now().Add(time.Hour))
	pending.Status = models.BookingPending
	bookings.On("GetBookingByID", mock.Anything, "b-1").Return(pending, nil)

	_, err := service.CreateCheckoutSession(context.Background(), "b-1", "buyer@example.com")
	assert.ErrorIs(t, err, payment.ErrNotAccepted)
	provider.AssertNotCalled(t, "CreateSession")
}

func TestCheckoutRefusedForWrongBuyer(t *testing.T) {
	bookings := &MockBookingStore{}
	service := newPaymentService(&MockProvider{}, bookings, &MockPaymentStore{})

	bookings.On("GetBookingByID", mock.Anything, "b-1").Return(acceptedBooking(time.Now().Add(time.Hour)), nil)

	_, err := service.CreateCheckoutSession(context.Background(), "b-1", "someone-else@example.com")
	assert.ErrorIs(t, err, payment.ErrNotBuyer)
}

func TestCheckoutOpensSessionAndRecordsPending(t *testing.T) {
	bookings := &MockBookingStore{}
	provider := &MockProvider{}
	store := &MockPaymentStore{}
	service := newPaymentService(provider, bookings, store)

	b := acceptedBooking(time.Now().Add(time.Hour))
	bookings.On("GetBookingByID", mock.Anything, "b-1").Return(b, nil)
	provider.On("CreateSession", mock.Anything).Return("https://checkout.stripe.com/pay/cs_123", "cs_123", nil)
	bookings.On("UpdateBooking", mock.Anything, mock.MatchedBy(func(updated models.Booking) bool {
		return updated.SessionID == "cs_123"
	})).Return(nil)
	store.On("SavePayment", mock.MatchedBy(func(p *models.Payment) bool {
		return p.Status == models.StatusPending && p.SessionID == "cs_123" && p.Amount == 1700
	})).Return(nil)

	url, err := service.CreateCheckoutSession(context.Background(), "b-1", "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_123", url)
	store.AssertExpectations(t)
}

func TestConfirmIsIdempotentForPaidBooking(t *testing.T) {
	bookings := &MockBookingStore{}
	provider := &MockProvider{}
	store := &MockPaymentStore{}
	service := newPaymentService(provider, bookings, store)

	paid := acceptedBooking(time.Now().Add(time.Hour))
	paid.Status = models.BookingPaid
	paid.SessionID = "cs_123"
	bookings.On("GetBookingBySession", mock.Anything, "cs_123").Return(paid, nil)
	store.On("GetPaymentBySessionID", "cs_123").Return(&models.Payment{
		TransactionID: "pi_456",
		Amount:        1700,
	}, nil)

	confirmation, err := service.ConfirmBySessionID(context.Background(), "cs_123")
	require.NoError(t, err)
	assert.Equal(t, "pi_456", confirmation.TransactionID)

	// A reload returns the recorded confirmation without another transition.
	provider.AssertNotCalled(t, "RetrieveSession")
	bookings.AssertNotCalled(t, "UpdateBooking")
}

func TestConfirmRefusesUnpaidSession(t *testing.T) {
	bookings := &MockBookingStore{}
	provider := &MockProvider{}
	service := newPaymentService(provider, bookings, &MockPaymentStore{})

	bookings.On("GetBookingBySession", mock.Anything, "cs_123").Return(acceptedBooking(time.Now().Add(time.Hour)), nil)
	provider.On("RetrieveSession", "cs_123").Return(&services.SessionInfo{SessionID: "cs_123", Paid: false}, nil)

	_, err := service.ConfirmBySessionID(context.Background(), "cs_123")

	var confirmErr *payment.ConfirmError
	require.True(t, errors.As(err, &confirmErr))
	assert.Equal(t, http.StatusConflict, confirmErr.StatusCode)
	assert.ErrorIs(t, err, payment.ErrSessionUnpaid)
	bookings.AssertNotCalled(t, "UpdateBooking")
}

func TestConfirmReEvaluatesGate(t *testing.T) {
	bookings := &MockBookingStore{}
	provider := &MockProvider{}
	service := newPaymentService(provider, bookings, &MockPaymentStore{})

	// The booking expired while the buyer sat on the Stripe page. The paid
	// session alone must not flip it to paid.
	expired := acceptedBooking(time.Now().Add(-time.Second))
	bookings.On("GetBookingBySession", mock.Anything, "cs_123").Return(expired, nil)
	provider.On("RetrieveSession", "cs_123").Return(&services.SessionInfo{SessionID: "cs_123", Paid: true, TransactionID: "pi_456"}, nil)

	_, err := service.ConfirmBySessionID(context.Background(), "cs_123")
	assert.ErrorIs(t, err, payment.ErrPaymentNotAllowed)
	bookings.AssertNotCalled(t, "UpdateBooking")
}

func TestConfirmMovesBookingToPaid(t *testing.T) {
	bookings := &MockBookingStore{}
	provider := &MockProvider{}
	store := &MockPaymentStore{}
	service := newPaymentService(provider, bookings, store)

	b := acceptedBooking(time.Now().Add(time.Hour))
	b.SessionID = "cs_123"
	bookings.On("GetBookingBySession", mock.Anything, "cs_123").Return(b, nil)
	provider.On("RetrieveSession", "cs_123").Return(&services.SessionInfo{SessionID: "cs_123", Paid: true, TransactionID: "pi_456"}, nil)
	bookings.On("UpdateBooking", mock.Anything, mock.MatchedBy(func(updated models.Booking) bool {
		return updated.Status == models.BookingPaid
	})).Return(nil)
	store.On("GetPaymentBySessionID", "cs_123").Return(&models.Payment{
		PaymentID: "p-1",
		Status:    models.StatusPending,
		Amount:    1700,
	}, nil)
	store.On("UpdatePayment", mock.MatchedBy(func(p *models.Payment) bool {
		return p.Status == models.StatusSuccess && p.TransactionID == "pi_456"
	})).Return(nil)

	confirmation, err := service.ConfirmBySessionID(context.Background(), "cs_123")
	require.NoError(t, err)
	assert.Equal(t, "pi_456", confirmation.TransactionID)
	assert.Equal(t, "b-1", confirmation.BookingID)
	bookings.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestConfirmRequiresSessionID(t *testing.T) {
	service := newPaymentService(&MockProvider{}, &MockBookingStore{}, &MockPaymentStore{})

	_, err := service.ConfirmBySessionID(context.Background(), "")

	var confirmErr *payment.ConfirmError
	require.True(t, errors.As(err, &confirmErr))
	assert.Equal(t, http.StatusBadRequest, confirmErr.StatusCode)
}
