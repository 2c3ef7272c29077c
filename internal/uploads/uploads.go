package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"ms-booking/internal/config"
	"ms-booking/internal/logger"
)

var (
	ErrNoAPIKey     = errors.New("image host API key is not configured")
	ErrUploadFailed = errors.New("image host rejected the upload")
)

// maxImageBytes bounds the relayed file. The image host enforces its own
// limit too; refusing early keeps oversized bodies off the wire.
const maxImageBytes = 10 << 20

// Relay forwards ticket images to the external image host and hands the
// public URL back. Images never land on gateway disk.
type Relay struct {
	cfg    config.UploadConfig
	client *http.Client
	log    *logger.Logger
}

func NewRelay(cfg config.UploadConfig, log *logger.Logger) *Relay {
	return &Relay{
		cfg: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

type hostResponse struct {
	Data struct {
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
	} `json:"data"`
	Success bool `json:"success"`
}

// Upload streams the file to the image host and returns the hosted URL.
func (r *Relay) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	if r.cfg.APIKey == "" {
		return "", ErrNoAPIKey
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, io.LimitReader(file, maxImageBytes)); err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finish upload form: %w", err)
	}

	url := fmt.Sprintf("%s?key=%s", r.cfg.HostURL, r.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image host request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		r.log.Error("UPLOAD", fmt.Sprintf("image host returned %d: %s", resp.StatusCode, payload))
		return "", fmt.Errorf("%w: status %d", ErrUploadFailed, resp.StatusCode)
	}

	var parsed hostResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode image host response: %w", err)
	}
	if !parsed.Success || parsed.Data.DisplayURL == "" {
		return "", ErrUploadFailed
	}

	r.log.Info("UPLOAD", fmt.Sprintf("image %s relayed", filename))
	return parsed.Data.DisplayURL, nil
}
