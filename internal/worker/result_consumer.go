package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"mlsight/internal/config"
	"mlsight/internal/docai"
	"mlsight/internal/metrics"
	"mlsight/internal/middleware"
)

// ResultConsumer consumes ResultRef messages and drives each referenced
// request to a terminal outcome: COMPLETED results are persisted, FAILED
// results are logged and dropped, pending results go back onto the queue
// with a delay, and requests that never settle are abandoned.
type ResultConsumer struct {
	resolver    ResultResolver
	persister   RecordPersister
	publisher   TaskPublisher
	delay       time.Duration
	maxAttempts int
}

func NewResultConsumer(r ResultResolver, p RecordPersister, tp TaskPublisher, delay time.Duration, maxAttempts int) *ResultConsumer {
	return &ResultConsumer{
		resolver:    r,
		persister:   p,
		publisher:   tp,
		delay:       delay,
		maxAttempts: maxAttempts,
	}
}

func (h *ResultConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var ref ResultRef
	if err := json.Unmarshal(m.Body, &ref); err != nil {
		slog.Error("poison pill: invalid result ref", "error", err)
		return nil
	}
	if ref.RequestID == "" && len(ref.RequestIDs) == 0 {
		slog.Error("result ref without request id, dropping")
		return nil
	}

	correlationID := ref.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	ctx := middleware.WithCorrelationID(context.Background(), correlationID)

	if len(ref.RequestIDs) > 0 {
		return h.handleBatch(ctx, ref)
	}

	slog.InfoContext(ctx, "result ref received", "request_id", shortID(ref.RequestID), "attempt", ref.Attempt)
	res, err := h.resolver.Resolve(ctx, ref.RequestID)
	return h.settle(ctx, ref, res, err)
}

// handleBatch resolves a stream-read batch in one delivery. Resolvers
// without batch support fall back to member-at-a-time resolution, requeueing
// pending members individually.
func (h *ResultConsumer) handleBatch(ctx context.Context, ref ResultRef) error {
	slog.InfoContext(ctx, "result batch received", "size", len(ref.RequestIDs), "attempt", ref.Attempt)

	var resolutions []Resolution
	if br, ok := h.resolver.(BatchResolver); ok {
		resolutions = br.ResolveBatch(ctx, ref.RequestIDs)
	} else {
		for _, id := range ref.RequestIDs {
			res, err := h.resolver.Resolve(ctx, id)
			resolutions = append(resolutions, Resolution{RequestID: id, Result: res, Err: err})
		}
	}

	var firstErr error
	for _, r := range resolutions {
		memberRef := ResultRef{RequestID: r.RequestID, Attempt: ref.Attempt, CorrelationID: ref.CorrelationID}
		if err := h.settle(ctx, memberRef, r.Result, r.Err); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	// Redelivering the batch re-resolves every member; completed ones are
	// deduplicated by the store.
	return firstErr
}

func (h *ResultConsumer) settle(ctx context.Context, ref ResultRef, res *docai.Result, err error) error {
	id := shortID(ref.RequestID)

	switch {
	case errors.Is(err, ErrNotReady):
		return h.requeue(ctx, ref, res)

	case errors.Is(err, ErrAbandoned):
		slog.ErrorContext(ctx, "result abandoned", "request_id", id, "error", err)
		metrics.Results.WithLabelValues("abandoned").Inc()
		return nil

	case err != nil:
		slog.ErrorContext(ctx, "failed to resolve result", "request_id", id, "error", err)
		return err
	}

	switch res.Status {
	case docai.StatusCompleted:
		if err := h.persister.Save(ctx, res); err != nil {
			return err
		}
		metrics.Results.WithLabelValues("completed").Inc()
		slog.InfoContext(ctx, "result saved", "request_id", id)
		return nil

	case docai.StatusFailed:
		slog.ErrorContext(ctx, "extraction failed", "request_id", id, "error", res.Error)
		metrics.Results.WithLabelValues("failed").Inc()
		return nil

	default:
		// Resolvers only hand over terminal results without an error.
		slog.ErrorContext(ctx, "unexpected non-terminal result, dropping", "request_id", id, "status", res.Status)
		return nil
	}
}

// requeue publishes the ref back to the result topic with a delay, bounding
// the total number of rides via the payload attempt counter.
func (h *ResultConsumer) requeue(ctx context.Context, ref ResultRef, res *docai.Result) error {
	id := shortID(ref.RequestID)

	if ref.Attempt+1 >= h.maxAttempts {
		slog.ErrorContext(ctx, "result abandoned after max attempts", "request_id", id, "attempts", ref.Attempt+1)
		metrics.Results.WithLabelValues("abandoned").Inc()
		return nil
	}

	status := ""
	if res != nil {
		status = res.Status
	}
	slog.InfoContext(ctx, "result pending, requeueing", "request_id", id, "status", status, "attempt", ref.Attempt+1)

	next := ResultRef{RequestID: ref.RequestID, Attempt: ref.Attempt + 1, CorrelationID: ref.CorrelationID}
	body, err := json.Marshal(next)
	if err != nil {
		return err
	}
	if err := h.publisher.DeferredPublish(config.TopicResult, h.delay, body); err != nil {
		slog.ErrorContext(ctx, "failed to requeue result ref", "request_id", id, "error", err)
		return err
	}
	return nil
}
