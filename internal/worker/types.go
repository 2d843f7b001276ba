package worker

import (
	"context"
	"time"

	"mlsight/internal/adapter/pgvector"
	"mlsight/internal/docai"
)

// MediaPreparer downloads a file and returns its pages as encoded images
// plus the effective mime type.
type MediaPreparer interface {
	Prepare(ctx context.Context, downloadLink, mimeType string) ([][]byte, string, error)
}

// Extractor is the document-AI service surface the pipeline consumes.
type Extractor interface {
	Submit(ctx context.Context, content, mimeType string) (string, error)
	FetchResult(ctx context.Context, requestID string) (*docai.Result, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type RecordStore interface {
	SaveRecord(ctx context.Context, rec pgvector.Record) error
}

// TaskPublisher publishes messages to the broker, optionally with a delay.
// *nsq.Producer satisfies it.
type TaskPublisher interface {
	Publish(topic string, body []byte) error
	DeferredPublish(topic string, delay time.Duration, body []byte) error
}

// RecordPersister turns a completed extraction result into a stored record.
type RecordPersister interface {
	Save(ctx context.Context, res *docai.Result) error
}
