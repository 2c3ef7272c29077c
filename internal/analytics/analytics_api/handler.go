package analytics_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-booking/internal/analytics"
	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

func NewHandler(service *analytics.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RevenueOverview serves the vendor dashboard's revenue panel. A vendor may
// only read their own figures; the email claim settles that, not the query
// string. The dashboard's "sold" filter is an alias for the paid status.
func (h *Handler) RevenueOverview(w http.ResponseWriter, r *http.Request) {
	vendorEmail := r.URL.Query().Get("vendor_email")
	if vendorEmail == "" {
		vendorEmail = auth.Email(r.Context())
	}
	if vendorEmail != auth.Email(r.Context()) {
		http.Error(w, "cannot view another vendor's revenue", http.StatusForbidden)
		return
	}

	status, err := parseStatusFilter(r.URL.Query().Get("vendor_status"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	overview, err := h.Service.VendorOverview(r.Context(), vendorEmail, status)
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("RevenueOverview: %v", err))
		http.Error(w, "Failed to load revenue overview", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(overview); err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("failed to encode overview: %v", err))
	}
}

func parseStatusFilter(raw string) (models.BookingStatus, error) {
	switch raw {
	case "":
		return "", nil
	case "sold", "paid":
		return models.BookingPaid, nil
	case "Pending", "Accepted", "Rejected":
		return models.BookingStatus(raw), nil
	default:
		return "", fmt.Errorf("unknown vendor_status %q", raw)
	}
}
