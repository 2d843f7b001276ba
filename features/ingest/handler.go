package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"mlsight/internal/config"
	"mlsight/internal/middleware"
	"mlsight/internal/worker"
)

// maxFiles bounds one intake request; the uploader never hands over more.
const maxFiles = 2

type Publisher interface {
	Publish(topic string, body []byte) error
}

// Handler accepts uploaded file references and hands them to the pipeline.
// It is intentionally thin: validation plus a publish per file.
type Handler struct {
	publisher Publisher
}

func NewHandler(p Publisher) *Handler {
	return &Handler{publisher: p}
}

// FileRef mirrors the uploader's file reference. The download link is valid
// for five minutes.
type FileRef struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mime_type"`
	DownloadLink string `json:"download_link"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Files []FileRef `json:"openaiFileIdRefs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Files) == 0 || len(req.Files) > maxFiles {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "between 1 and 2 files required", http.StatusBadRequest)
		return
	}
	for _, f := range req.Files {
		if f.ID == "" || f.DownloadLink == "" || f.MimeType == "" {
			h.writeError(r.Context(), w, "VALIDATION_ERROR", "id, mime_type and download_link are required", http.StatusBadRequest)
			return
		}
	}

	correlationID := middleware.GetCorrelationID(r.Context())
	for _, f := range req.Files {
		job := worker.FileJob{
			ID:            f.ID,
			Name:          f.Name,
			MimeType:      f.MimeType,
			DownloadLink:  f.DownloadLink,
			CorrelationID: correlationID,
		}
		body, err := json.Marshal(job)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to marshal file job", "error", err)
			h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if err := h.publisher.Publish(config.TopicFile, body); err != nil {
			slog.ErrorContext(r.Context(), "failed to publish file job", "error", err, "file_id", f.ID)
			h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
			return
		}
		slog.InfoContext(r.Context(), "file queued for processing", "file_id", f.ID, "name", f.Name)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	resp := map[string]any{
		"OK":      true,
		"message": "Your documents are being processed. Results will be available shortly.",
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
