package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"mlsight/internal/middleware"
)

type ListingRepo interface {
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	listingRepo ListingRepo
}

func NewHandler(l ListingRepo) *Handler {
	return &Handler{listingRepo: l}
}

type StatsResponse struct {
	Listings int `json:"listings"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.listingRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count listings", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count listings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"data": StatsResponse{Listings: count}}); err != nil {
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
