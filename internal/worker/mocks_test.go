package worker_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"mlsight/internal/adapter/pgvector"
	"mlsight/internal/docai"
	"mlsight/internal/worker"
)

// Mocks

type MockMediaPreparer struct{ mock.Mock }

func (m *MockMediaPreparer) Prepare(ctx context.Context, downloadLink, mimeType string) ([][]byte, string, error) {
	args := m.Called(ctx, downloadLink, mimeType)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([][]byte), args.String(1), args.Error(2)
}

type MockExtractor struct{ mock.Mock }

func (m *MockExtractor) Submit(ctx context.Context, content, mimeType string) (string, error) {
	args := m.Called(ctx, content, mimeType)
	return args.String(0), args.Error(1)
}

func (m *MockExtractor) FetchResult(ctx context.Context, requestID string) (*docai.Result, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docai.Result), args.Error(1)
}

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockRecordStore struct{ mock.Mock }

func (m *MockRecordStore) SaveRecord(ctx context.Context, rec pgvector.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

type MockTaskPublisher struct{ mock.Mock }

func (m *MockTaskPublisher) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}

func (m *MockTaskPublisher) DeferredPublish(topic string, delay time.Duration, body []byte) error {
	args := m.Called(topic, delay, body)
	return args.Error(0)
}

type MockResolver struct{ mock.Mock }

func (m *MockResolver) Resolve(ctx context.Context, requestID string) (*docai.Result, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docai.Result), args.Error(1)
}

type MockBatchResolver struct{ MockResolver }

func (m *MockBatchResolver) ResolveBatch(ctx context.Context, requestIDs []string) []worker.Resolution {
	args := m.Called(ctx, requestIDs)
	return args.Get(0).([]worker.Resolution)
}

type MockPersister struct{ mock.Mock }

func (m *MockPersister) Save(ctx context.Context, res *docai.Result) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}
