package worker_test

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"mlsight/internal/config"
	"mlsight/internal/media"
	"mlsight/internal/worker"
)

func TestFileConsumer_SplitsPDFIntoOrderedPages(t *testing.T) {
	fetcher := new(MockMediaPreparer)
	pub := new(MockTaskPublisher)
	consumer := worker.NewFileConsumer(fetcher, pub, time.Minute)

	pages := [][]byte{[]byte("page-one"), []byte("page-two"), []byte("page-three")}
	fetcher.On("Prepare", mock.Anything, "https://files.example/abc", "application/pdf").
		Return(pages, "image/png", nil)

	var published []worker.PageJob
	pub.On("Publish", config.TopicPage, mock.Anything).Run(func(args mock.Arguments) {
		var page worker.PageJob
		assert.NoError(t, json.Unmarshal(args.Get(1).([]byte), &page))
		published = append(published, page)
	}).Return(nil).Times(3)

	job := worker.FileJob{
		ID:           "file-1",
		Name:         "listing.pdf",
		MimeType:     "application/pdf",
		DownloadLink: "https://files.example/abc",
	}
	body, _ := json.Marshal(job)

	err := consumer.HandleMessage(&nsq.Message{Body: body})
	assert.NoError(t, err)
	pub.AssertExpectations(t)

	assert.Len(t, published, 3)
	for i, page := range published {
		assert.Equal(t, "file-1", page.ID)
		assert.Equal(t, i+1, page.Num)
		assert.Equal(t, 3, page.Size)
		assert.Equal(t, "image/png", page.MimeType)
		assert.Equal(t, base64.StdEncoding.EncodeToString(pages[i]), page.Content)
	}
}

func TestFileConsumer_SingleImagePassesThrough(t *testing.T) {
	fetcher := new(MockMediaPreparer)
	pub := new(MockTaskPublisher)
	consumer := worker.NewFileConsumer(fetcher, pub, time.Minute)

	fetcher.On("Prepare", mock.Anything, "https://files.example/img", "image/jpeg").
		Return([][]byte{[]byte("jpeg-bytes")}, "image/jpeg", nil)

	pub.On("Publish", config.TopicPage, mock.MatchedBy(func(b []byte) bool {
		var page worker.PageJob
		json.Unmarshal(b, &page)
		return page.Num == 1 && page.Size == 1 && page.MimeType == "image/jpeg"
	})).Return(nil).Once()

	job := worker.FileJob{ID: "file-2", MimeType: "image/jpeg", DownloadLink: "https://files.example/img"}
	body, _ := json.Marshal(job)

	assert.NoError(t, consumer.HandleMessage(&nsq.Message{Body: body}))
	pub.AssertExpectations(t)
}

func TestFileConsumer_UnsupportedMIMEDropped(t *testing.T) {
	fetcher := new(MockMediaPreparer)
	pub := new(MockTaskPublisher)
	consumer := worker.NewFileConsumer(fetcher, pub, time.Minute)

	fetcher.On("Prepare", mock.Anything, mock.Anything, "text/plain").
		Return(nil, "", fmt.Errorf("%w: text/plain", media.ErrUnsupportedMIME))

	job := worker.FileJob{ID: "file-3", MimeType: "text/plain", DownloadLink: "https://files.example/txt"}
	body, _ := json.Marshal(job)

	// Validation failures must not ride the queue again.
	assert.NoError(t, consumer.HandleMessage(&nsq.Message{Body: body}))
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestFileConsumer_FetchFailureRedelivered(t *testing.T) {
	fetcher := new(MockMediaPreparer)
	pub := new(MockTaskPublisher)
	consumer := worker.NewFileConsumer(fetcher, pub, time.Minute)

	fetcher.On("Prepare", mock.Anything, mock.Anything, "application/pdf").
		Return(nil, "", &media.FetchError{URL: "https://files.example/gone", Err: errors.New("status 404")})

	job := worker.FileJob{ID: "file-4", MimeType: "application/pdf", DownloadLink: "https://files.example/gone"}
	body, _ := json.Marshal(job)

	assert.Error(t, consumer.HandleMessage(&nsq.Message{Body: body}))
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestFileConsumer_PublishFailureRedelivered(t *testing.T) {
	fetcher := new(MockMediaPreparer)
	pub := new(MockTaskPublisher)
	consumer := worker.NewFileConsumer(fetcher, pub, time.Minute)

	fetcher.On("Prepare", mock.Anything, mock.Anything, "application/pdf").
		Return([][]byte{[]byte("page")}, "image/png", nil)
	pub.On("Publish", config.TopicPage, mock.Anything).Return(errors.New("nsqd unavailable"))

	job := worker.FileJob{ID: "file-5", MimeType: "application/pdf", DownloadLink: "https://files.example/abc"}
	body, _ := json.Marshal(job)

	assert.Error(t, consumer.HandleMessage(&nsq.Message{Body: body}))
}

func TestFileConsumer_PoisonPillDropped(t *testing.T) {
	fetcher := new(MockMediaPreparer)
	pub := new(MockTaskPublisher)
	consumer := worker.NewFileConsumer(fetcher, pub, time.Minute)

	assert.NoError(t, consumer.HandleMessage(&nsq.Message{Body: []byte("{not json")}))
	assert.NoError(t, consumer.HandleMessage(&nsq.Message{Body: nil}))
	fetcher.AssertNotCalled(t, "Prepare", mock.Anything, mock.Anything, mock.Anything)
}
