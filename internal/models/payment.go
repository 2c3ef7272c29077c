package models

import (
	"time"
)

type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusSuccess PaymentStatus = "success"
	StatusFailed  PaymentStatus = "failed"
)

// Payment is the append-only record written when a checkout session is
// confirmed. It is surfaced read-only through the payment history view.
type Payment struct {
	PaymentID     string        `json:"payment_id" bun:"payment_id,pk"`
	BookingID     string        `json:"booking_id" bun:"booking_id"`
	BuyerEmail    string        `json:"email" bun:"buyer_email"`
	VendorEmail   string        `json:"vendor_email" bun:"vendor_email"`
	Status        PaymentStatus `json:"status" bun:"status"`
	Amount        float64       `json:"amount" bun:"amount"`
	SessionID     string        `json:"session_id" bun:"session_id"`
	TransactionID string        `json:"transactionId,omitempty" bun:"transaction_id,nullzero"`
	CreatedDate   time.Time     `json:"created_date" bun:"created_date"`
	UpdatedDate   time.Time     `json:"updated_date,omitempty" bun:"updated_date,nullzero"`
}

// CheckoutSessionRequest is the POST /payment-checkout-session body sent
// from the booked-tickets view.
type CheckoutSessionRequest struct {
	BookingID string `json:"buyerTicketId"`
	Email     string `json:"email"`
}

type CheckoutSessionResponse struct {
	URL string `json:"url"`
}

// PaymentConfirmation is the PATCH /payment-success response payload.
type PaymentConfirmation struct {
	TransactionID string  `json:"transactionId"`
	BookingID     string  `json:"bookingId"`
	Amount        float64 `json:"amount"`
	BoardingPass  []byte  `json:"boardingPass,omitempty"`
}
