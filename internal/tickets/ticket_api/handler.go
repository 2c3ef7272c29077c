package ticket_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/rbac"
	"ms-booking/internal/tickets"
)

type Handler struct {
	TicketService *tickets.TicketService
	Logger        *logger.Logger
}

func NewHandler(service *tickets.TicketService, log *logger.Logger) *Handler {
	return &Handler{TicketService: service, Logger: log}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

// ListTickets serves the dashboard list views: ?status=pending for the
// admin review queue, ?vendorEmail= for a vendor's own inventory.
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	vendorEmail := r.URL.Query().Get("vendorEmail")

	switch {
	case status == "pending":
		if rbac.RoleFromContext(r.Context()) != rbac.RoleAdmin {
			http.Error(w, "only admins may list pending tickets", http.StatusForbidden)
			return
		}
		list, err := h.TicketService.ListPending(r.Context())
		if err != nil {
			h.Logger.Error("API", fmt.Sprintf("ListTickets: pending query failed: %v", err))
			http.Error(w, "Failed to list tickets: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, http.StatusOK, list)

	case vendorEmail != "":
		// Vendors only see their own inventory.
		if auth.Email(r.Context()) != vendorEmail {
			http.Error(w, "cannot list another vendor's tickets", http.StatusForbidden)
			return
		}
		list, err := h.TicketService.ListByVendor(r.Context(), vendorEmail)
		if err != nil {
			h.Logger.Error("API", fmt.Sprintf("ListTickets: vendor query failed: %v", err))
			http.Error(w, "Failed to list tickets: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, http.StatusOK, list)

	default:
		http.Error(w, "status=pending or vendorEmail query required", http.StatusBadRequest)
	}
}

// ListApproved is the public buyer-facing inventory.
func (h *Handler) ListApproved(w http.ResponseWriter, r *http.Request) {
	list, err := h.TicketService.ListApproved(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListApproved: %v", err))
		http.Error(w, "Failed to list tickets: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// ListAdvertised is the homepage promotion strip.
func (h *Handler) ListAdvertised(w http.ResponseWriter, r *http.Request) {
	list, err := h.TicketService.ListAdvertised(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListAdvertised: %v", err))
		http.Error(w, "Failed to list tickets: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")
	ticket, err := h.TicketService.Get(r.Context(), ticketID)
	if err != nil {
		http.Error(w, "Ticket not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, ticket)
}

func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var ticket models.Ticket
	if err := json.NewDecoder(r.Body).Decode(&ticket); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	// The vendor identity comes from the verified token, not the body.
	ticket.VendorEmail = auth.Email(r.Context())

	if ticket.Title == "" || ticket.From == "" || ticket.To == "" || ticket.Departure.IsZero() {
		http.Error(w, "title, from, to and departure are required", http.StatusBadRequest)
		return
	}
	if ticket.Price <= 0 || ticket.Quantity <= 0 {
		http.Error(w, "price and quantity must be positive", http.StatusBadRequest)
		return
	}

	created, err := h.TicketService.Create(r.Context(), ticket)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateTicket: %v", err))
		http.Error(w, "Failed to create ticket: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.Logger.LogTicket("CREATE", created.TicketID, "ticket submitted for review")
	h.writeJSON(w, http.StatusCreated, created)
}

// PatchTicket multiplexes the three mutations the dashboards send: an admin
// status decision, an admin advertise toggle, or a vendor field edit. The
// affordance check is an exhaustive match on the resolved role.
func (h *Handler) PatchTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")

	var patch models.TicketPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	role := rbac.RoleFromContext(r.Context())

	switch {
	case patch.Status != nil:
		if role != rbac.RoleAdmin {
			http.Error(w, "only admins may decide ticket status", http.StatusForbidden)
			return
		}
		ticket, err := h.TicketService.Decide(r.Context(), ticketID, *patch.Status)
		if err != nil {
			h.respondTicketError(w, "Decide", ticketID, err)
			return
		}
		h.Logger.LogTicket("DECIDE", ticketID, fmt.Sprintf("status set to %s", ticket.Status))
		h.writeJSON(w, http.StatusOK, ticket)

	case patch.Advertise != nil:
		if role != rbac.RoleAdmin {
			http.Error(w, "only admins may toggle advertising", http.StatusForbidden)
			return
		}
		ticket, err := h.TicketService.SetAdvertise(r.Context(), ticketID, *patch.Advertise)
		if err != nil {
			h.respondTicketError(w, "SetAdvertise", ticketID, err)
			return
		}
		h.Logger.LogTicket("ADVERTISE", ticketID, fmt.Sprintf("advertise=%v", ticket.Advertise))
		h.writeJSON(w, http.StatusOK, ticket)

	default:
		if role != rbac.RoleVendor {
			http.Error(w, "only vendors may edit ticket fields", http.StatusForbidden)
			return
		}
		ticket, err := h.TicketService.UpdateFields(r.Context(), ticketID, auth.Email(r.Context()), patch)
		if err != nil {
			h.respondTicketError(w, "UpdateFields", ticketID, err)
			return
		}
		h.Logger.LogTicket("UPDATE", ticketID, "fields updated")
		h.writeJSON(w, http.StatusOK, ticket)
	}
}

func (h *Handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")

	err := h.TicketService.Delete(r.Context(), ticketID, auth.Email(r.Context()))
	if err != nil {
		h.respondTicketError(w, "Delete", ticketID, err)
		return
	}

	h.Logger.LogTicket("DELETE", ticketID, "ticket removed")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondTicketError(w http.ResponseWriter, op, ticketID string, err error) {
	h.Logger.Error("API", fmt.Sprintf("%s: ticket %s: %v", op, ticketID, err))

	switch {
	case errors.Is(err, tickets.ErrTicketRejected),
		errors.Is(err, tickets.ErrAdvertiseRejected),
		errors.Is(err, tickets.ErrNotPending):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, tickets.ErrNotVendorOwned):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, tickets.ErrUnknownStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "Ticket not found", http.StatusNotFound)
	}
}
