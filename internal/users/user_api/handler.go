package user_api

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
	"ms-booking/internal/users"
)

type Handler struct {
	UserService *users.UserService
	Resolver    *rbac.Resolver
	Logger      *logger.Logger
}

func NewHandler(service *users.UserService, resolver *rbac.Resolver, log *logger.Logger) *Handler {
	return &Handler{UserService: service, Resolver: resolver, Logger: log}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

// GetRole resolves the stored role for an email. Clients branch their
// dashboards on this answer, so a failed lookup yields "none" rather than
// an error they might interpret optimistically.
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	role, err := h.Resolver.Resolve(r.Context(), email)
	if err != nil {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, models.RoleResponse{Role: role.String()})
}

// RegisterLogin records the authenticated identity after a sign-in. First
// sight creates the account with the default role; returning visits refresh
// the profile fields and leave role and fraud flag untouched. The email
// always comes from the verified token, never from the body.
func (h *Handler) RegisterLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	email := auth.Email(r.Context())
	if err := h.UserService.RegisterLogin(r.Context(), email, req.DisplayName, req.PhotoURL); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RegisterLogin: %v", err))
		http.Error(w, "Failed to register login", http.StatusInternalServerError)
		return
	}

	user, err := h.UserService.GetByEmail(r.Context(), email)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RegisterLogin: read back %s: %v", email, err))
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, user)
}

// ListUsers serves the admin management view.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.UserService.List(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListUsers: %v", err))
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// PatchUser applies a role change or fraud flag from the management view.
func (h *Handler) PatchUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var patch models.UserPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.UserService.Patch(r.Context(), userID, patch)
	if err != nil {
		h.respondUserError(w, userID, err)
		return
	}

	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) respondUserError(w http.ResponseWriter, userID string, err error) {
	h.Logger.Error("API", fmt.Sprintf("PatchUser: user %s: %v", userID, err))

	switch {
	case errors.Is(err, users.ErrFraudPromotion):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, users.ErrUnknownRole), errors.Is(err, users.ErrNothingToPatch):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "User not found", http.StatusNotFound)
	}
}
