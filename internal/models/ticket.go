package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TicketStatus is the vendor-inventory lifecycle: pending until an admin
// decides, then approved (bookable) or rejected (terminal).
type TicketStatus string

const (
	TicketPending  TicketStatus = "pending"
	TicketApproved TicketStatus = "approved"
	TicketRejected TicketStatus = "rejected"
)

// Transport types sold on the platform.
const (
	TransportBus    = "bus"
	TransportTrain  = "train"
	TransportLaunch = "launch"
	TransportPlane  = "plane"
)

// Perks a vendor may attach to a ticket.
var ValidPerks = []string{"ac", "breakfast", "wifi", "tv", "water", "charging"}

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	TicketID    string       `bun:"ticket_id,pk" json:"_id"`
	Title       string       `bun:"title,notnull" json:"title"`
	Type        string       `bun:"type,notnull" json:"type"`
	From        string       `bun:"from_location,notnull" json:"from"`
	To          string       `bun:"to_location,notnull" json:"to"`
	Departure   time.Time    `bun:"departure,notnull" json:"departure"`
	Price       float64      `bun:"price,notnull" json:"price"`
	Quantity    int          `bun:"quantity,notnull" json:"quantity"`
	Perks       []string     `bun:"perks" json:"perks"`
	Image       string       `bun:"image,nullzero" json:"image,omitempty"`
	VendorName  string       `bun:"vendor_name,notnull" json:"vendorName"`
	VendorEmail string       `bun:"vendor_email,notnull" json:"vendorEmail"`
	Advertise   bool         `bun:"advertise,notnull,default:false" json:"advertise"`
	Status      TicketStatus `bun:"status,notnull" json:"status"`
	CreatedAt   time.Time    `bun:"created_at,notnull" json:"createdAt"`
}

// TicketPatchRequest is the PATCH body for /tickets/{id}. Admin sends a
// status decision or an advertise toggle; vendors send field edits.
type TicketPatchRequest struct {
	Status    *string    `json:"status,omitempty"`
	Advertise *bool      `json:"advertise,omitempty"`
	Title     *string    `json:"title,omitempty"`
	Type      *string    `json:"type,omitempty"`
	From      *string    `json:"from,omitempty"`
	To        *string    `json:"to,omitempty"`
	Departure *time.Time `json:"departure,omitempty"`
	Price     *float64   `json:"price,omitempty"`
	Quantity  *int       `json:"quantity,omitempty"`
	Perks     []string   `json:"perks,omitempty"`
	Image     *string    `json:"image,omitempty"`
}

// Bookable reports whether buyers may book this ticket right now. Approval
// alone is not enough: a sold-out or already-departed ticket is never
// bookable, whatever its stored status says.
func (t *Ticket) Bookable(now time.Time) bool {
	return t.Status == TicketApproved && t.Quantity > 0 && t.Departure.After(now)
}
