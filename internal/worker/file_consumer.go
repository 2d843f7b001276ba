package worker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"mlsight/internal/config"
	"mlsight/internal/media"
	"mlsight/internal/metrics"
	"mlsight/internal/middleware"
)

// FileConsumer consumes FileJob messages, splits the file into page images
// and publishes one PageJob per page, in ascending page order.
type FileConsumer struct {
	fetcher   MediaPreparer
	publisher TaskPublisher
	timeout   time.Duration
}

func NewFileConsumer(f MediaPreparer, p TaskPublisher, timeout time.Duration) *FileConsumer {
	return &FileConsumer{fetcher: f, publisher: p, timeout: timeout}
}

func (h *FileConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var file FileJob
	if err := json.Unmarshal(m.Body, &file); err != nil {
		// Poison pill, don't retry
		slog.Error("poison pill: invalid file job", "error", err)
		return nil
	}

	correlationID := file.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	ctx := middleware.WithCorrelationID(context.Background(), correlationID)
	slog.InfoContext(ctx, "file received", "file_id", file.ID, "name", file.Name)

	prepCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	images, mimeType, err := h.fetcher.Prepare(prepCtx, file.DownloadLink, file.MimeType)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedMIME) {
			slog.ErrorContext(ctx, "unsupported file dropped", "file_id", file.ID, "mime_type", file.MimeType)
			return nil
		}
		// Download or conversion failure. Redeliver so a broker hiccup or a
		// slow upstream doesn't lose the file; the attempt bound lives in the
		// consumer config.
		slog.ErrorContext(ctx, "failed to prepare file", "file_id", file.ID, "error", err)
		return err
	}

	size := len(images)
	slog.InfoContext(ctx, "file split", "file_id", file.ID, "pages", size)

	for i, image := range images {
		page := PageJob{
			ID:            file.ID,
			Num:           i + 1,
			Size:          size,
			Content:       base64.StdEncoding.EncodeToString(image),
			MimeType:      mimeType,
			CorrelationID: correlationID,
		}
		body, err := json.Marshal(page)
		if err != nil {
			slog.ErrorContext(ctx, "failed to marshal page job", "file_id", file.ID, "page", page.Num, "error", err)
			return err
		}
		if err := h.publisher.Publish(config.TopicPage, body); err != nil {
			// Already-published pages will be republished on redelivery; the
			// store dedups by request id downstream.
			slog.ErrorContext(ctx, "failed to publish page job", "file_id", file.ID, "page", page.Num, "error", err)
			return err
		}
	}

	metrics.PagesSplit.Add(float64(size))
	return nil
}
