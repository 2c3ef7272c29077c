package booking_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ms-booking/internal/auth"
	"ms-booking/internal/countdown"
	"ms-booking/internal/models"
	"ms-booking/internal/rbac"
)

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// HandleCountdown streams per-second countdown ticks for every booking the
// caller currently has. One shared ticker drives the whole set; both the
// stream and the ticker stop when the client disconnects. Reconnecting
// after the booking list changes starts a fresh watch over the new set.
func (h *Handler) HandleCountdown(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" || auth.Email(r.Context()) != email {
		http.Error(w, "cannot watch another user's bookings", http.StatusForbidden)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	bookings, _, err := h.BookingService.ListForBuyer(r.Context(), email)
	if err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("HandleCountdown: failed to load bookings: %v", err))
		http.Error(w, "Failed to load bookings: "+err.Error(), http.StatusInternalServerError)
		return
	}

	setupSSEHeaders(w)

	ctx := r.Context()
	ticks := countdown.Watch(ctx, bookings, time.Second)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"bookings\":%d}\n\n", len(bookings))
	flusher.Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client connected to countdown stream for %s (%d bookings)", email, len(bookings)))

	for {
		select {
		case tick, ok := <-ticks:
			if !ok {
				h.Logger.Debug("SSE", fmt.Sprintf("Countdown ticker stopped for %s", email))
				return
			}

			jsonData, err := json.Marshal(tick)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize countdown tick: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: countdown\ndata: %s\n\n", jsonData)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from countdown stream for %s", email))
			return
		}
	}
}

// HandleBookingEvents streams booking status changes: buyers see their own
// bookings move, vendors see incoming requests against their inventory.
func (h *Handler) HandleBookingEvents(w http.ResponseWriter, r *http.Request) {
	email := auth.Email(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	setupSSEHeaders(w)

	ctx := r.Context()

	var eventChan chan models.Booking
	if rbac.RoleFromContext(ctx) == rbac.RoleVendor {
		eventChan = h.Emitter.SubscribeVendor(ctx, email)
	} else {
		eventChan = h.Emitter.SubscribeBuyer(ctx, email)
	}

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client connected to booking events for %s (buyers=%d vendors=%d)",
		email, h.Emitter.BuyerSubscriberCount(email), h.Emitter.VendorSubscriberCount(email)))

	for {
		select {
		case booking, ok := <-eventChan:
			if !ok {
				h.Logger.Debug("SSE", fmt.Sprintf("Booking event channel closed for %s", email))
				return
			}

			jsonData, err := json.Marshal(booking)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize booking event: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: booking\ndata: %s\n\n", jsonData)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from booking events for %s", email))
			return
		}
	}
}
