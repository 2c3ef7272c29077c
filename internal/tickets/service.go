package tickets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-booking/internal/models"
)

var (
	ErrTicketRejected    = errors.New("ticket is rejected and can no longer be modified")
	ErrNotPending        = errors.New("only pending tickets can be approved or rejected")
	ErrUnknownStatus     = errors.New("unknown ticket status")
	ErrNotVendorOwned    = errors.New("ticket does not belong to this vendor")
	ErrAdvertiseRejected = errors.New("rejected tickets cannot be advertised")
)

type TicketDBLayer interface {
	CreateTicket(ctx context.Context, ticket models.Ticket) error
	GetTicketByID(ctx context.Context, ticketID string) (*models.Ticket, error)
	UpdateTicket(ctx context.Context, ticket models.Ticket) error
	DeleteTicket(ctx context.Context, ticketID string) error
	ListByStatus(ctx context.Context, status models.TicketStatus) ([]models.Ticket, error)
	ListByVendor(ctx context.Context, vendorEmail string) ([]models.Ticket, error)
	ListAdvertised(ctx context.Context) ([]models.Ticket, error)
}

type EventPublisher interface {
	PublishTicketStatusChanged(ticket models.Ticket) error
}

type TicketService struct {
	DB    TicketDBLayer
	Kafka EventPublisher
}

func NewTicketService(db TicketDBLayer, kafka EventPublisher) *TicketService {
	return &TicketService{DB: db, Kafka: kafka}
}

// normalizeDecision maps an admin status decision to the canonical
// literal. The dashboards historically sent both "reject" and "rejected"
// ("approve"/"approved" likewise); the short forms are accepted as
// compatibility aliases on input and never stored.
func normalizeDecision(status string) (models.TicketStatus, error) {
	switch status {
	case "approve", "approved":
		return models.TicketApproved, nil
	case "reject", "rejected":
		return models.TicketRejected, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
}

// Create stores a vendor-authored ticket. Status is forced to pending
// regardless of what the caller sent; only an admin decision moves it.
func (s *TicketService) Create(ctx context.Context, ticket models.Ticket) (*models.Ticket, error) {
	if ticket.TicketID == "" {
		ticket.TicketID = uuid.NewString()
	}
	ticket.Status = models.TicketPending
	ticket.Advertise = false
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}

	if err := s.DB.CreateTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return &ticket, nil
}

// Decide applies an admin approve/reject decision to a pending ticket.
func (s *TicketService) Decide(ctx context.Context, ticketID, decision string) (*models.Ticket, error) {
	status, err := normalizeDecision(decision)
	if err != nil {
		return nil, err
	}

	ticket, err := s.DB.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("ticket %s not found: %w", ticketID, err)
	}

	if ticket.Status != models.TicketPending {
		return nil, ErrNotPending
	}

	ticket.Status = status
	if err := s.DB.UpdateTicket(ctx, *ticket); err != nil {
		return nil, fmt.Errorf("failed to update ticket status: %w", err)
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishTicketStatusChanged(*ticket); err != nil {
			fmt.Printf("Kafka publish error (ticket status): %v\n", err)
		}
	}

	return ticket, nil
}

// SetAdvertise toggles homepage promotion. The toggle is reversible but
// refused for rejected tickets.
func (s *TicketService) SetAdvertise(ctx context.Context, ticketID string, advertise bool) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("ticket %s not found: %w", ticketID, err)
	}

	if ticket.Status == models.TicketRejected {
		return nil, ErrAdvertiseRejected
	}

	ticket.Advertise = advertise
	if err := s.DB.UpdateTicket(ctx, *ticket); err != nil {
		return nil, fmt.Errorf("failed to update advertise flag: %w", err)
	}
	return ticket, nil
}

// UpdateFields applies a vendor's field edits. The rejected check reads the
// stored status on every call: a concurrent admin rejection between the
// vendor's page loads must still block the edit.
func (s *TicketService) UpdateFields(ctx context.Context, ticketID, vendorEmail string, patch models.TicketPatchRequest) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("ticket %s not found: %w", ticketID, err)
	}

	if ticket.VendorEmail != vendorEmail {
		return nil, ErrNotVendorOwned
	}
	if ticket.Status == models.TicketRejected {
		return nil, ErrTicketRejected
	}

	if patch.Title != nil {
		ticket.Title = *patch.Title
	}
	if patch.Type != nil {
		ticket.Type = *patch.Type
	}
	if patch.From != nil {
		ticket.From = *patch.From
	}
	if patch.To != nil {
		ticket.To = *patch.To
	}
	if patch.Departure != nil {
		ticket.Departure = *patch.Departure
	}
	if patch.Price != nil {
		ticket.Price = *patch.Price
	}
	if patch.Quantity != nil {
		ticket.Quantity = *patch.Quantity
	}
	if patch.Perks != nil {
		ticket.Perks = patch.Perks
	}
	if patch.Image != nil {
		ticket.Image = *patch.Image
	}

	if err := s.DB.UpdateTicket(ctx, *ticket); err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}
	return ticket, nil
}

// Delete removes a vendor's ticket unless it has been rejected.
func (s *TicketService) Delete(ctx context.Context, ticketID, vendorEmail string) error {
	ticket, err := s.DB.GetTicketByID(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("ticket %s not found: %w", ticketID, err)
	}

	if ticket.VendorEmail != vendorEmail {
		return ErrNotVendorOwned
	}
	if ticket.Status == models.TicketRejected {
		return ErrTicketRejected
	}

	if err := s.DB.DeleteTicket(ctx, ticketID); err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	return nil
}

func (s *TicketService) Get(ctx context.Context, ticketID string) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("ticket %s not found: %w", ticketID, err)
	}
	return ticket, nil
}

func (s *TicketService) ListPending(ctx context.Context) ([]models.Ticket, error) {
	return s.DB.ListByStatus(ctx, models.TicketPending)
}

// ListApproved returns the buyer-facing inventory. Bookability is still a
// per-ticket derivation on top of this list.
func (s *TicketService) ListApproved(ctx context.Context) ([]models.Ticket, error) {
	return s.DB.ListByStatus(ctx, models.TicketApproved)
}

func (s *TicketService) ListByVendor(ctx context.Context, vendorEmail string) ([]models.Ticket, error) {
	return s.DB.ListByVendor(ctx, vendorEmail)
}

func (s *TicketService) ListAdvertised(ctx context.Context) ([]models.Ticket, error) {
	return s.DB.ListAdvertised(ctx)
}
