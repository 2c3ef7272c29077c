package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-booking/internal/countdown"
	"ms-booking/internal/models"
)

var (
	ErrTicketNotBookable = errors.New("ticket is not bookable")
	ErrQuantityTooLow    = errors.New("minimum 1 seat required")
	ErrQuantityTooHigh   = errors.New("requested quantity exceeds available seats")
	ErrSeatsContended    = errors.New("seats are being held by another booking, try again")
	ErrSoldOut           = errors.New("not enough seats left")
	ErrNotPendingBooking = errors.New("only pending bookings can be accepted or rejected")
	ErrUnknownDecision   = errors.New("unknown booking decision")
	ErrNotBookingVendor  = errors.New("booking does not belong to this vendor")
)

type DBLayer interface {
	CreateBooking(ctx context.Context, booking models.Booking) error
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, booking models.Booking) error
	ListByBuyer(ctx context.Context, email string) ([]models.Booking, error)
	ListByVendorAndStatus(ctx context.Context, vendorEmail string, status models.BookingStatus) ([]models.Booking, error)
}

type TicketReader interface {
	Get(ctx context.Context, ticketID string) (*models.Ticket, error)
}

type SeatDecrementer interface {
	DecrementSeats(ctx context.Context, ticketID string, qty int) (int64, error)
}

type SeatHold interface {
	HoldSeats(ctx context.Context, ticketID, bookingID string) (bool, error)
	ReleaseSeats(ctx context.Context, ticketID, bookingID string) error
	OpenPaymentWindow(ctx context.Context, bookingID string, until time.Time) error
}

type KafkaPublisher interface {
	PublishBookingCreated(booking models.Booking) error
	PublishBookingUpdated(booking models.Booking) error
}

type Service struct {
	DB      DBLayer
	Tickets TicketReader
	Seats   SeatDecrementer
	Redis   SeatHold
	Kafka   KafkaPublisher
}

func NewService(db DBLayer, tickets TicketReader, seats SeatDecrementer, redis SeatHold, kafka KafkaPublisher) *Service {
	return &Service{DB: db, Tickets: tickets, Seats: seats, Redis: redis, Kafka: kafka}
}

// ValidateQuantity enforces the booking form's bounds: 1 <= qty <= seats.
// A violation is an error that blocks the booking, never a silent clamp.
func ValidateQuantity(qty, availableSeats int) error {
	if qty < 1 {
		return ErrQuantityTooLow
	}
	if qty > availableSeats {
		return fmt.Errorf("%w: %d requested, %d left", ErrQuantityTooHigh, qty, availableSeats)
	}
	return nil
}

// Create places a booking against a bookable ticket. The seat decrement is
// conditional in SQL, so the database stays the arbiter of overbooking no
// matter what the caller validated; the Redis hold only narrows the race
// window between concurrent buyers of the same ticket.
func (s *Service) Create(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	ticket, err := s.Tickets.Get(ctx, req.TicketID)
	if err != nil {
		return nil, fmt.Errorf("ticket %s not found: %w", req.TicketID, err)
	}

	now := time.Now()
	if !ticket.Bookable(now) {
		return nil, ErrTicketNotBookable
	}

	if err := ValidateQuantity(req.Quantity, ticket.Quantity); err != nil {
		return nil, err
	}

	bookingID := uuid.NewString()

	held, err := s.Redis.HoldSeats(ctx, ticket.TicketID, bookingID)
	if err != nil {
		return nil, fmt.Errorf("seat hold error: %w", err)
	}
	if !held {
		return nil, ErrSeatsContended
	}
	defer func() {
		_ = s.Redis.ReleaseSeats(ctx, ticket.TicketID, bookingID)
	}()

	affected, err := s.Seats.DecrementSeats(ctx, ticket.TicketID, req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve seats: %w", err)
	}
	if affected == 0 {
		return nil, ErrSoldOut
	}

	booking := models.Booking{
		BookingID:   bookingID,
		TicketID:    ticket.TicketID,
		Title:       ticket.Title,
		Image:       ticket.Image,
		From:        ticket.From,
		To:          ticket.To,
		BuyerName:   req.BuyerName,
		BuyerEmail:  req.BuyerEmail,
		VendorEmail: ticket.VendorEmail,
		Quantity:    req.Quantity,
		UnitPrice:   ticket.Price,
		TotalPrice:  ticket.Price * float64(req.Quantity),
		// Departure is copied from the ticket at booking time; the expiry
		// gate derives from this copy from here on.
		Departure: ticket.Departure,
		Status:    models.BookingPending,
		CreatedAt: now,
	}

	if err := s.DB.CreateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishBookingCreated(booking); err != nil {
			fmt.Printf("Kafka publish error (booking created): %v\n", err)
		}
	}

	return &booking, nil
}

// Decide applies the vendor's accept/reject to a pending booking. Accepting
// opens the payment window: a Redis key that expires at departure, whose
// expiry event tells dashboards the window closed without ever storing an
// Expired status.
func (s *Service) Decide(ctx context.Context, bookingID, vendorEmail, decision string) (*models.Booking, error) {
	var status models.BookingStatus
	switch decision {
	case string(models.BookingAccepted):
		status = models.BookingAccepted
	case string(models.BookingRejected):
		status = models.BookingRejected
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDecision, decision)
	}

	booking, err := s.DB.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("booking %s not found: %w", bookingID, err)
	}

	if booking.VendorEmail != vendorEmail {
		return nil, ErrNotBookingVendor
	}
	if booking.Status != models.BookingPending {
		return nil, ErrNotPendingBooking
	}

	booking.Status = status
	if err := s.DB.UpdateBooking(ctx, *booking); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	if status == models.BookingAccepted && booking.Departure.After(time.Now()) {
		if err := s.Redis.OpenPaymentWindow(ctx, booking.BookingID, booking.Departure); err != nil {
			fmt.Printf("Failed to open payment window for booking %s: %v\n", booking.BookingID, err)
		}
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishBookingUpdated(*booking); err != nil {
			fmt.Printf("Kafka publish error (booking updated): %v\n", err)
		}
	}

	return booking, nil
}

func (s *Service) Get(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.DB.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("booking %s not found: %w", bookingID, err)
	}
	return booking, nil
}

// ListForBuyer returns a buyer's bookings with their display state derived
// at read time, so an already-departed Accepted booking arrives as Expired.
func (s *Service) ListForBuyer(ctx context.Context, email string) ([]models.Booking, []countdown.Snapshot, error) {
	bookings, err := s.DB.ListByBuyer(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch bookings for %s: %w", email, err)
	}

	now := time.Now()
	snapshots := make([]countdown.Snapshot, 0, len(bookings))
	for _, b := range bookings {
		snapshots = append(snapshots, countdown.Evaluate(b, now))
	}
	return bookings, snapshots, nil
}

// ListRequested returns the vendor's incoming requests in a given status,
// usually Pending.
func (s *Service) ListRequested(ctx context.Context, vendorEmail string, status models.BookingStatus) ([]models.Booking, error) {
	bookings, err := s.DB.ListByVendorAndStatus(ctx, vendorEmail, status)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requested bookings for %s: %w", vendorEmail, err)
	}
	return bookings, nil
}
