package models

import (
	"time"

	"github.com/uptrace/bun"
)

// BookingStatus is the buyer-request lifecycle. The mixed casing mirrors the
// wire contract the dashboards already speak: vendor decisions are
// capitalized, the payment callback writes lowercase "paid".
type BookingStatus string

const (
	BookingPending  BookingStatus = "Pending"
	BookingAccepted BookingStatus = "Accepted"
	BookingRejected BookingStatus = "Rejected"
	BookingPaid     BookingStatus = "paid"
)

// Terminal reports whether no further stored transition is possible.
func (s BookingStatus) Terminal() bool {
	return s == BookingRejected || s == BookingPaid
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	BookingID   string        `bun:"booking_id,pk" json:"_id"`
	TicketID    string        `bun:"ticket_id,notnull" json:"ticketId"`
	Title       string        `bun:"title,notnull" json:"title"`
	Image       string        `bun:"image,nullzero" json:"image,omitempty"`
	From        string        `bun:"from_location,notnull" json:"from"`
	To          string        `bun:"to_location,notnull" json:"to"`
	BuyerName   string        `bun:"buyer_name,notnull" json:"buyerName"`
	BuyerEmail  string        `bun:"buyer_email,notnull" json:"email"`
	VendorEmail string        `bun:"vendor_email,notnull" json:"vendor_email"`
	Quantity    int           `bun:"quantity,notnull" json:"quantity"`
	UnitPrice   float64       `bun:"unit_price,notnull" json:"price"`
	TotalPrice  float64       `bun:"total_price,notnull" json:"totalPrice"`
	Departure   time.Time     `bun:"departure,notnull" json:"departure"`
	Status      BookingStatus `bun:"status,notnull" json:"status"`
	SessionID   string        `bun:"session_id,nullzero" json:"sessionId,omitempty"`
	CreatedAt   time.Time     `bun:"created_at,notnull" json:"createdAt"`
}

// BookingRequest is the POST /book-ticket body.
type BookingRequest struct {
	TicketID   string `json:"ticketId"`
	BuyerName  string `json:"buyerName"`
	BuyerEmail string `json:"email"`
	Quantity   int    `json:"quantity"`
}

// BookingDecisionRequest is the vendor's PATCH /update-booking/{id} body.
type BookingDecisionRequest struct {
	Status string `json:"status"`
}

type BookingResponse struct {
	BookingID  string        `json:"_id"`
	TicketID   string        `json:"ticketId"`
	Status     BookingStatus `json:"status"`
	TotalPrice float64       `json:"totalPrice"`
}
