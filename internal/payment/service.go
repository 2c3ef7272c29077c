package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ms-booking/internal/countdown"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/payment/boardingpass"
	"ms-booking/internal/payment/services"
	"ms-booking/internal/payment/storage"
	"ms-booking/internal/utils"
)

var (
	ErrPaymentNotAllowed = errors.New("payment not allowed - time over")
	ErrNotAccepted       = errors.New("only accepted bookings can be paid")
	ErrNotBuyer          = errors.New("booking does not belong to this buyer")
	ErrCheckoutInFlight  = errors.New("a checkout session for this booking is already in progress")
	ErrSessionUnpaid     = errors.New("checkout session is not paid")
	ErrAlreadyConfirmed  = errors.New("payment already confirmed")
	ErrMissingSessionID  = errors.New("session_id is required")
)

// CheckoutProvider is the external payment gateway surface.
type CheckoutProvider interface {
	CreateSession(booking models.Booking) (url, sessionID string, err error)
	RetrieveSession(sessionID string) (*services.SessionInfo, error)
}

type BookingStore interface {
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
	GetBookingBySession(ctx context.Context, sessionID string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, booking models.Booking) error
}

type WindowCloser interface {
	ClosePaymentWindow(ctx context.Context, bookingID string) error
}

type EventPublisher interface {
	PublishPaymentSucceeded(payment models.Payment) error
}

type Service struct {
	Provider CheckoutProvider
	Bookings BookingStore
	Store    storage.Store
	Passes   *boardingpass.Generator
	Redis    WindowCloser
	Kafka    EventPublisher
	Logger   *logger.Logger

	// One checkout attempt per booking at a time; a double-click must not
	// open two sessions.
	inFlight      map[string]bool
	inFlightMutex sync.Mutex
}

func NewService(provider CheckoutProvider, bookings BookingStore, store storage.Store,
	passes *boardingpass.Generator, redis WindowCloser, kafka EventPublisher, log *logger.Logger) *Service {
	return &Service{
		Provider: provider,
		Bookings: bookings,
		Store:    store,
		Passes:   passes,
		Redis:    redis,
		Kafka:    kafka,
		Logger:   log,
		inFlight: make(map[string]bool),
	}
}

// ConfirmError categorizes failures on the confirmation path so the
// handler can map them to status codes without leaking internals.
type ConfirmError struct {
	Category      string // "validation", "gating", "processing"
	StatusCode    int
	PublicError   string
	InternalError string
	OriginalErr   error
}

func (e *ConfirmError) Error() string {
	return e.InternalError
}

func (e *ConfirmError) Unwrap() error {
	return e.OriginalErr
}

// CreateCheckoutSession opens a Stripe checkout session for an accepted,
// unexpired booking and stores the session id. The payment gate is the
// same derivation the countdown uses, evaluated server-side at call time:
// a client that kept a stale "Pay Now" button rendered past departure is
// refused here.
func (s *Service) CreateCheckoutSession(ctx context.Context, bookingID, buyerEmail string) (string, error) {
	s.inFlightMutex.Lock()
	if s.inFlight[bookingID] {
		s.inFlightMutex.Unlock()
		s.Logger.Warn("PAYMENT", fmt.Sprintf("duplicate checkout attempt for booking %s", bookingID))
		return "", ErrCheckoutInFlight
	}
	s.inFlight[bookingID] = true
	s.inFlightMutex.Unlock()

	defer func() {
		s.inFlightMutex.Lock()
		delete(s.inFlight, bookingID)
		s.inFlightMutex.Unlock()
	}()

	b, err := s.Bookings.GetBookingByID(ctx, bookingID)
	if err != nil {
		return "", fmt.Errorf("booking %s not found: %w", bookingID, err)
	}

	if b.BuyerEmail != buyerEmail {
		return "", ErrNotBuyer
	}

	now := time.Now()
	switch countdown.Derive(b.Status, b.Departure, now) {
	case countdown.StateAccepted:
		// Gate open.
	case countdown.StateExpired:
		return "", ErrPaymentNotAllowed
	default:
		return "", ErrNotAccepted
	}

	url, sessionID, err := s.Provider.CreateSession(*b)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	b.SessionID = sessionID
	if err := s.Bookings.UpdateBooking(ctx, *b); err != nil {
		return "", fmt.Errorf("failed to store session id: %w", err)
	}

	payment := &models.Payment{
		PaymentID:   utils.GenerateID(),
		BookingID:   b.BookingID,
		BuyerEmail:  b.BuyerEmail,
		VendorEmail: b.VendorEmail,
		Status:      models.StatusPending,
		Amount:      b.TotalPrice,
		SessionID:   sessionID,
		CreatedDate: now,
	}
	if err := s.Store.SavePayment(payment); err != nil {
		return "", fmt.Errorf("failed to record pending payment: %w", err)
	}

	s.Logger.LogPayment("CHECKOUT", sessionID, fmt.Sprintf("session opened for booking %s", bookingID))
	return url, nil
}

// ConfirmBySessionID finishes the redirect flow: verify the session is
// paid with Stripe, re-check the expiry gate, move the booking to paid and
// append the transaction record. Idempotent per session id - a reloaded
// success page returns the recorded confirmation instead of double
// charging state.
func (s *Service) ConfirmBySessionID(ctx context.Context, sessionID string) (*models.PaymentConfirmation, error) {
	if sessionID == "" {
		return nil, &ConfirmError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "session_id is required",
			InternalError: "confirm called without session_id",
			OriginalErr:   ErrMissingSessionID,
		}
	}

	b, err := s.Bookings.GetBookingBySession(ctx, sessionID)
	if err != nil {
		return nil, &ConfirmError{
			Category:      "validation",
			StatusCode:    http.StatusNotFound,
			PublicError:   "no booking for this checkout session",
			InternalError: fmt.Sprintf("booking lookup by session %s failed: %v", sessionID, err),
			OriginalErr:   err,
		}
	}

	// Reloading the success page must not re-run the transition.
	if b.Status == models.BookingPaid {
		recorded, err := s.Store.GetPaymentBySessionID(sessionID)
		if err != nil {
			return nil, &ConfirmError{
				Category:      "processing",
				StatusCode:    http.StatusInternalServerError,
				PublicError:   "payment already confirmed but record unavailable",
				InternalError: fmt.Sprintf("paid booking %s has no payment record: %v", b.BookingID, err),
				OriginalErr:   ErrAlreadyConfirmed,
			}
		}
		return &models.PaymentConfirmation{
			TransactionID: recorded.TransactionID,
			BookingID:     b.BookingID,
			Amount:        recorded.Amount,
		}, nil
	}

	info, err := s.Provider.RetrieveSession(sessionID)
	if err != nil {
		return nil, &ConfirmError{
			Category:      "processing",
			StatusCode:    http.StatusBadGateway,
			PublicError:   "could not verify checkout session",
			InternalError: fmt.Sprintf("session %s retrieval failed: %v", sessionID, err),
			OriginalErr:   err,
		}
	}

	if !info.Paid {
		return nil, &ConfirmError{
			Category:      "validation",
			StatusCode:    http.StatusConflict,
			PublicError:   "checkout session is not paid",
			InternalError: fmt.Sprintf("session %s reported unpaid", sessionID),
			OriginalErr:   ErrSessionUnpaid,
		}
	}

	// The gate is re-evaluated here too: money taken for a booking that
	// expired mid-checkout still must not mark it paid silently.
	now := time.Now()
	if countdown.Derive(b.Status, b.Departure, now) != countdown.StateAccepted {
		return nil, &ConfirmError{
			Category:      "gating",
			StatusCode:    http.StatusConflict,
			PublicError:   "payment not allowed - time over",
			InternalError: fmt.Sprintf("booking %s no longer payable (status=%s, departure=%s)", b.BookingID, b.Status, b.Departure),
			OriginalErr:   ErrPaymentNotAllowed,
		}
	}

	transactionID := info.TransactionID
	if transactionID == "" {
		transactionID = utils.GenerateTransactionID()
	}

	b.Status = models.BookingPaid
	if err := s.Bookings.UpdateBooking(ctx, *b); err != nil {
		return nil, &ConfirmError{
			Category:      "processing",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "failed to finalize payment",
			InternalError: fmt.Sprintf("booking %s update to paid failed: %v", b.BookingID, err),
			OriginalErr:   err,
		}
	}

	recorded, err := s.Store.GetPaymentBySessionID(sessionID)
	if err == nil {
		recorded.Status = models.StatusSuccess
		recorded.TransactionID = transactionID
		recorded.UpdatedDate = now
		if err := s.Store.UpdatePayment(recorded); err != nil {
			s.Logger.Error("PAYMENT", fmt.Sprintf("failed to update payment record for session %s: %v", sessionID, err))
		}
	} else {
		// The pending record is written at checkout; a missing one means the
		// session predates it, so append a fresh record instead.
		recorded = &models.Payment{
			PaymentID:     utils.GenerateID(),
			BookingID:     b.BookingID,
			BuyerEmail:    b.BuyerEmail,
			VendorEmail:   b.VendorEmail,
			Status:        models.StatusSuccess,
			Amount:        b.TotalPrice,
			SessionID:     sessionID,
			TransactionID: transactionID,
			CreatedDate:   now,
			UpdatedDate:   now,
		}
		if err := s.Store.SavePayment(recorded); err != nil {
			s.Logger.Error("PAYMENT", fmt.Sprintf("failed to append payment record for session %s: %v", sessionID, err))
		}
	}

	if s.Redis != nil {
		if err := s.Redis.ClosePaymentWindow(ctx, b.BookingID); err != nil {
			s.Logger.Warn("PAYMENT", fmt.Sprintf("failed to close payment window for booking %s: %v", b.BookingID, err))
		}
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishPaymentSucceeded(*recorded); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("failed to publish payment event for %s: %v", recorded.PaymentID, err))
		}
	}

	confirmation := &models.PaymentConfirmation{
		TransactionID: transactionID,
		BookingID:     b.BookingID,
		Amount:        recorded.Amount,
	}

	if s.Passes != nil {
		pass, err := s.Passes.Generate(*b, transactionID)
		if err != nil {
			s.Logger.Warn("PAYMENT", fmt.Sprintf("boarding pass generation failed for booking %s: %v", b.BookingID, err))
		} else {
			confirmation.BoardingPass = pass
		}
	}

	s.Logger.LogPayment("CONFIRM", sessionID, fmt.Sprintf("booking %s paid, txn %s", b.BookingID, transactionID))
	return confirmation, nil
}

// History returns the buyer's append-only payment records.
func (s *Service) History(email string, limit, offset int) ([]*models.Payment, error) {
	payments, err := s.Store.ListPaymentsByBuyer(email, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment history for %s: %w", email, err)
	}
	return payments, nil
}
