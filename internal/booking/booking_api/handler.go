package booking_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-booking/internal/auth"
	"ms-booking/internal/booking"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/sse"
)

type Handler struct {
	BookingService *booking.Service
	Emitter        *sse.BookingEventEmitter
	Logger         *logger.Logger
}

func NewHandler(service *booking.Service, emitter *sse.BookingEventEmitter, log *logger.Logger) *Handler {
	return &Handler{BookingService: service, Emitter: emitter, Logger: log}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

// BookTicket is POST /book-ticket: a buyer's request for seats on an
// approved ticket.
func (h *Handler) BookTicket(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	// The buyer identity comes from the verified token, not the body.
	req.BuyerEmail = auth.Email(r.Context())

	if req.TicketID == "" {
		http.Error(w, "ticketId is required", http.StatusBadRequest)
		return
	}

	created, err := h.BookingService.Create(r.Context(), req)
	if err != nil {
		h.respondBookingError(w, "BookTicket", req.TicketID, err)
		return
	}

	h.Logger.LogBooking("CREATE", created.BookingID,
		fmt.Sprintf("%d seat(s) on ticket %s for %s", created.Quantity, created.TicketID, created.BuyerEmail))

	if h.Emitter != nil {
		h.Emitter.EmitBookingEvent(*created)
	}

	h.writeJSON(w, http.StatusCreated, models.BookingResponse{
		BookingID:  created.BookingID,
		TicketID:   created.TicketID,
		Status:     created.Status,
		TotalPrice: created.TotalPrice,
	})
}

// ListRequested is GET /book-ticket?vendor_email=...&status=Pending: the
// vendor's incoming request queue.
func (h *Handler) ListRequested(w http.ResponseWriter, r *http.Request) {
	vendorEmail := r.URL.Query().Get("vendor_email")
	status := r.URL.Query().Get("status")
	if status == "" {
		status = string(models.BookingPending)
	}

	if vendorEmail == "" || auth.Email(r.Context()) != vendorEmail {
		http.Error(w, "cannot list another vendor's bookings", http.StatusForbidden)
		return
	}

	bookings, err := h.BookingService.ListRequested(r.Context(), vendorEmail, models.BookingStatus(status))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListRequested: %v", err))
		http.Error(w, "Failed to list bookings: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, bookings)
}

// UpdateBooking is PATCH /update-booking/{id}: the vendor accepts or
// rejects a pending request.
func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	var req models.BookingDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.BookingService.Decide(r.Context(), bookingID, auth.Email(r.Context()), req.Status)
	if err != nil {
		h.respondBookingError(w, "UpdateBooking", bookingID, err)
		return
	}

	h.Logger.LogBooking("DECIDE", bookingID, fmt.Sprintf("status set to %s", updated.Status))

	if h.Emitter != nil {
		h.Emitter.EmitBookingEvent(*updated)
	}

	h.writeJSON(w, http.StatusOK, updated)
}

// ListUserBookings is GET /user-bookings?email=...: the buyer's booked
// tickets with the display state derived at read time.
func (h *Handler) ListUserBookings(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" || auth.Email(r.Context()) != email {
		http.Error(w, "cannot list another user's bookings", http.StatusForbidden)
		return
	}

	bookings, snapshots, err := h.BookingService.ListForBuyer(r.Context(), email)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListUserBookings: %v", err))
		http.Error(w, "Failed to list bookings: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, struct {
		Bookings  interface{} `json:"bookings"`
		Countdown interface{} `json:"countdown"`
	}{Bookings: bookings, Countdown: snapshots})
}

func (h *Handler) respondBookingError(w http.ResponseWriter, op, id string, err error) {
	h.Logger.Error("API", fmt.Sprintf("%s: %s: %v", op, id, err))

	switch {
	case errors.Is(err, booking.ErrQuantityTooLow),
		errors.Is(err, booking.ErrQuantityTooHigh),
		errors.Is(err, booking.ErrUnknownDecision):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, booking.ErrTicketNotBookable),
		errors.Is(err, booking.ErrSoldOut),
		errors.Is(err, booking.ErrNotPendingBooking):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, booking.ErrSeatsContended):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, booking.ErrNotBookingVendor):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		http.Error(w, "Booking operation failed: "+err.Error(), http.StatusNotFound)
	}
}
