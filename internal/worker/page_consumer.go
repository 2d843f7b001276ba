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

// PageConsumer consumes PageJob messages and submits each page image to the
// document-AI service. On success it publishes a ResultRef to the result
// topic with a deferred delay, since the first poll before that delay would
// never find a terminal status anyway.
type PageConsumer struct {
	extractor Extractor
	publisher TaskPublisher
	delay     time.Duration
	timeout   time.Duration
}

func NewPageConsumer(e Extractor, p TaskPublisher, delay, timeout time.Duration) *PageConsumer {
	return &PageConsumer{extractor: e, publisher: p, delay: delay, timeout: timeout}
}

func (h *PageConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var page PageJob
	if err := json.Unmarshal(m.Body, &page); err != nil {
		slog.Error("poison pill: invalid page job", "error", err)
		return nil
	}

	correlationID := page.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	ctx := middleware.WithCorrelationID(context.Background(), correlationID)

	submitCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	requestID, err := h.extractor.Submit(submitCtx, page.Content, page.MimeType)
	if err != nil {
		var se *docai.SubmissionError
		if errors.As(err, &se) {
			// Rejected by the service: terminal for this page. An operator
			// resubmits the whole file if it matters.
			slog.ErrorContext(ctx, "page submission failed", "file_id", page.ID, "page", page.Num, "pages", page.Size, "error", se.Detail)
			metrics.Submissions.WithLabelValues("rejected").Inc()
			return nil
		}
		slog.ErrorContext(ctx, "page submission error", "file_id", page.ID, "page", page.Num, "error", err)
		return err
	}

	metrics.Submissions.WithLabelValues("ok").Inc()
	slog.InfoContext(ctx, "page queued", "file_id", page.ID, "page", page.Num, "pages", page.Size, "request_id", shortID(requestID))

	ref := ResultRef{RequestID: requestID, CorrelationID: correlationID}
	body, err := json.Marshal(ref)
	if err != nil {
		return err
	}
	if err := h.publisher.DeferredPublish(config.TopicResult, h.delay, body); err != nil {
		// Redelivery re-submits the page and issues a fresh external request
		// id; an accepted at-least-once cost.
		slog.ErrorContext(ctx, "failed to publish result ref", "file_id", page.ID, "page", page.Num, "error", err)
		return err
	}

	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
