package uploads

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-booking/internal/logger"
)

type Handler struct {
	Relay  *Relay
	Logger *logger.Logger
}

func NewHandler(relay *Relay, log *logger.Logger) *Handler {
	return &Handler{Relay: relay, Logger: log}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// UploadImage accepts a multipart form with an "image" field and relays it
// to the image host.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	url, err := h.Relay.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UploadImage: %v", err))
		if errors.Is(err, ErrNoAPIKey) {
			http.Error(w, "image uploads are not configured", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "Failed to upload image", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(uploadResponse{URL: url}); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}
