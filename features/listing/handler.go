package listing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"mlsight/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	listings, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list listings", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.writeData(w, listings)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "id is required", http.StatusBadRequest)
		return
	}

	l, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeError(r.Context(), w, "NOT_FOUND", "listing not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "failed to get listing", "error", err, "id", id)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.writeData(w, l)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	q := SearchQuery{
		Address:   r.URL.Query().Get("address"),
		MLSNumber: r.URL.Query().Get("mls_number"),
		Limit:     limit,
		Offset:    offset,
	}

	listings, err := h.service.Search(r.Context(), q)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to search listings", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.writeData(w, listings)
}

func (h *Handler) SemanticSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string  `json:"query"`
		Threshold float64 `json:"threshold"`
		Limit     int     `json:"limit"`
		Offset    int     `json:"offset"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "query is required", http.StatusBadRequest)
		return
	}

	listings, err := h.service.SemanticSearch(r.Context(), req.Query, req.Threshold, req.Limit, req.Offset)
	if err != nil {
		slog.ErrorContext(r.Context(), "semantic search failed", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.writeData(w, listings)
}

func (h *Handler) writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"data": data}); err != nil {
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
