package payment_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/payment"
)

type Handler struct {
	PaymentService *payment.Service
	Logger         *logger.Logger
}

func NewHandler(service *payment.Service, log *logger.Logger) *Handler {
	return &Handler{PaymentService: service, Logger: log}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

// CreateCheckoutSession starts the "Pay Now" flow. The buyer identity comes
// from the verified token; the body only names the booking.
func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.BookingID == "" {
		http.Error(w, "buyerTicketId is required", http.StatusBadRequest)
		return
	}

	url, err := h.PaymentService.CreateCheckoutSession(r.Context(), req.BookingID, auth.Email(r.Context()))
	if err != nil {
		h.respondCheckoutError(w, req.BookingID, err)
		return
	}

	h.writeJSON(w, http.StatusOK, models.CheckoutSessionResponse{URL: url})
}

// ConfirmPayment is the success-redirect landing call. Idempotent: a page
// reload with the same session_id returns the same confirmation.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")

	confirmation, err := h.PaymentService.ConfirmBySessionID(r.Context(), sessionID)
	if err != nil {
		var confirmErr *payment.ConfirmError
		if errors.As(err, &confirmErr) {
			h.Logger.Error("API", fmt.Sprintf("ConfirmPayment [%s]: %s", confirmErr.Category, confirmErr.InternalError))
			http.Error(w, confirmErr.PublicError, confirmErr.StatusCode)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("ConfirmPayment: %v", err))
		http.Error(w, "Failed to confirm payment", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, confirmation)
}

// PaymentHistory lists the caller's own payment records.
func (h *Handler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "email query parameter is required", http.StatusBadRequest)
		return
	}
	if auth.Email(r.Context()) != email {
		http.Error(w, "cannot view another buyer's payment history", http.StatusForbidden)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	payments, err := h.PaymentService.History(email, limit, offset)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PaymentHistory: %v", err))
		http.Error(w, "Failed to fetch payment history", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, payments)
}

func (h *Handler) respondCheckoutError(w http.ResponseWriter, bookingID string, err error) {
	h.Logger.Error("API", fmt.Sprintf("CreateCheckoutSession: booking %s: %v", bookingID, err))

	switch {
	case errors.Is(err, payment.ErrPaymentNotAllowed),
		errors.Is(err, payment.ErrNotAccepted):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, payment.ErrCheckoutInFlight):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, payment.ErrNotBuyer):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		http.Error(w, "Failed to create checkout session: "+err.Error(), http.StatusInternalServerError)
	}
}
