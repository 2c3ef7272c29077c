package services

import (
	"errors"
	"fmt"
	"os"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

var (
	ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")
	ErrSessionNotFound        = errors.New("checkout session not found")
)

// SessionInfo is the slice of a checkout session the confirmation path
// cares about.
type SessionInfo struct {
	SessionID     string
	Paid          bool
	TransactionID string
	AmountTotal   float64
}

// StripeService wraps the Stripe checkout-session surface: the redirect
// URL for "Pay Now" and the post-redirect confirmation lookup.
type StripeService struct {
	client *client.API
	cfg    config.StripeConfig
	log    *logger.Logger
}

// NewStripeService creates a new instance of StripeService
func NewStripeService(cfg config.StripeConfig, log *logger.Logger) (*StripeService, error) {
	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY environment variable not set")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(stripeKey, nil)
	if sc == nil {
		log.Error("STRIPE", "Failed to initialize Stripe client")
		return nil, ErrStripeClientInitFailed
	}

	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeService{
		client: sc,
		cfg:    cfg,
		log:    log,
	}, nil
}

// CreateSession opens a checkout session for a booking and returns the
// redirect URL the buyer is sent to.
func (s *StripeService) CreateSession(booking models.Booking) (url, sessionID string, err error) {
	amountInCents := int64(booking.TotalPrice * 100)

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.cfg.SuccessURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(booking.Title),
						Description: stripe.String(fmt.Sprintf("%s → %s, %d seat(s)", booking.From, booking.To, booking.Quantity)),
					},
					UnitAmount: stripe.Int64(amountInCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.AddMetadata("booking_id", booking.BookingID)
	params.AddMetadata("buyer_email", booking.BuyerEmail)

	session, err := s.client.CheckoutSessions.New(params)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("Failed to create checkout session for booking %s: %v", booking.BookingID, err))
		return "", "", fmt.Errorf("stripe checkout session: %w", err)
	}

	s.log.LogPayment("SESSION", session.ID, fmt.Sprintf("checkout session created for booking %s (%.2f %s)",
		booking.BookingID, booking.TotalPrice, s.cfg.Currency))
	return session.URL, session.ID, nil
}

// RetrieveSession looks a session up after the redirect and reports
// whether Stripe considers it paid.
func (s *StripeService) RetrieveSession(sessionID string) (*SessionInfo, error) {
	session, err := s.client.CheckoutSessions.Get(sessionID, nil)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("Failed to retrieve checkout session %s: %v", sessionID, err))
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	info := &SessionInfo{
		SessionID:   session.ID,
		Paid:        session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal: float64(session.AmountTotal) / 100,
	}
	if session.PaymentIntent != nil {
		info.TransactionID = session.PaymentIntent.ID
	}

	return info, nil
}
