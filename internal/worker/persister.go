package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"mlsight/internal/adapter/pgvector"
	"mlsight/internal/docai"
	"mlsight/internal/metrics"
)

// Persister normalizes a completed extraction payload, computes its
// embedding and writes one record keyed by the request id. Saving the same
// result twice is a no-op at the store level.
type Persister struct {
	embedder     Embedder
	store        RecordStore
	embedTimeout time.Duration
}

func NewPersister(e Embedder, s RecordStore) *Persister {
	return &Persister{embedder: e, store: s, embedTimeout: 60 * time.Second}
}

func (p *Persister) Save(ctx context.Context, res *docai.Result) error {
	if res.Status != docai.StatusCompleted {
		return fmt.Errorf("cannot persist result %s with status %s", res.RequestID, res.Status)
	}

	data, err := decodePayload(res.Data)
	if err != nil {
		return fmt.Errorf("failed to decode payload for %s: %w", res.RequestID, err)
	}

	content := deriveContent(data)

	payload, err := json.Marshal(normalizeNumbers(data))
	if err != nil {
		return fmt.Errorf("failed to serialize payload for %s: %w", res.RequestID, err)
	}

	embedCtx, cancel := context.WithTimeout(ctx, p.embedTimeout)
	defer cancel()

	vector, err := p.embedder.Embed(embedCtx, content)
	if err != nil {
		slog.ErrorContext(ctx, "embedding failed", "request_id", shortID(res.RequestID), "error", err)
		return err
	}

	rec := pgvector.Record{
		ID:        res.RequestID,
		Data:      payload,
		Content:   content,
		Embedding: vector,
	}
	if err := p.store.SaveRecord(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to save record", "request_id", shortID(res.RequestID), "error", err)
		return err
	}

	metrics.RecordsPersisted.Inc()
	return nil
}

// decodePayload keeps numbers as json.Number so decimal-like values survive
// until normalization decides their representation.
func decodePayload(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}

// deriveContent builds the text that gets embedded from the two free-form
// payload fields.
func deriveContent(data map[string]any) string {
	remarks := stringify(data["client_remarks"])
	extras := stringify(data["extras"])
	return fmt.Sprintf("Client remarks: %s\nExtras: %s", remarks, extras)
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// normalizeNumbers converts decimal-like values to float64 for JSON storage.
// Precision loss on large decimals is an accepted tradeoff.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeNumbers(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeNumbers(val)
		}
		return out
	default:
		return v
	}
}
