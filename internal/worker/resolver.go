package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"mlsight/internal/docai"
	"mlsight/internal/metrics"
)

// ErrNotReady means the extraction request is still QUEUED or RUNNING. The
// caller backs off by re-publishing the ref with a delay.
var ErrNotReady = errors.New("extraction result not ready")

// ErrAbandoned means resolution gave up before reaching a terminal status.
// The request id surfaces as a distinct timeout outcome instead of pinning a
// worker forever.
var ErrAbandoned = errors.New("result resolution abandoned")

// ResultResolver resolves a request id toward a terminal extraction result.
// Implementations differ in where the waiting happens: PollOnceResolver
// pushes it back onto the queue, PollingResolver blocks the handler.
type ResultResolver interface {
	Resolve(ctx context.Context, requestID string) (*docai.Result, error)
}

// Resolution is the outcome of resolving one member of a batch.
type Resolution struct {
	RequestID string
	Result    *docai.Result
	Err       error
}

// BatchResolver resolves a set of request ids that arrived together.
type BatchResolver interface {
	ResolveBatch(ctx context.Context, requestIDs []string) []Resolution
}

// PollOnceResolver fetches the result exactly once per delivery. Pending
// requests come back as ErrNotReady and ride the queue again.
type PollOnceResolver struct {
	extractor Extractor
}

func NewPollOnceResolver(e Extractor) *PollOnceResolver {
	return &PollOnceResolver{extractor: e}
}

func (r *PollOnceResolver) Resolve(ctx context.Context, requestID string) (*docai.Result, error) {
	metrics.PollAttempts.Inc()
	res, err := r.extractor.FetchResult(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !res.Terminal() {
		return res, ErrNotReady
	}
	return res, nil
}

// PollingResolver blocks until the request is terminal, waiting between
// attempts with exponential backoff, and abandons after MaxElapsed. Batches
// fan out across a bounded pool.
type PollingResolver struct {
	extractor   Extractor
	interval    time.Duration
	maxInterval time.Duration
	maxElapsed  time.Duration
	concurrency int
}

func NewPollingResolver(e Extractor, interval, maxElapsed time.Duration, concurrency int) *PollingResolver {
	return &PollingResolver{
		extractor:   e,
		interval:    interval,
		maxInterval: 8 * interval,
		maxElapsed:  maxElapsed,
		concurrency: concurrency,
	}
}

func (r *PollingResolver) Resolve(ctx context.Context, requestID string) (*docai.Result, error) {
	deadline := time.Now().Add(r.maxElapsed)
	wait := r.interval

	for {
		metrics.PollAttempts.Inc()
		res, err := r.extractor.FetchResult(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if res.Terminal() {
			return res, nil
		}

		if time.Now().Add(wait).After(deadline) {
			return res, fmt.Errorf("%w: %s still %s after %s", ErrAbandoned, requestID, res.Status, r.maxElapsed)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}

		wait *= 2
		if wait > r.maxInterval {
			wait = r.maxInterval
		}
	}
}

// ResolveBatch polls every member concurrently, at most r.concurrency at a
// time, and returns once all members resolved or were abandoned.
func (r *PollingResolver) ResolveBatch(ctx context.Context, requestIDs []string) []Resolution {
	resolutions := make([]Resolution, len(requestIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, id := range requestIDs {
		g.Go(func() error {
			res, err := r.Resolve(gctx, id)
			resolutions[i] = Resolution{RequestID: id, Result: res, Err: err}
			return nil
		})
	}
	// Outcomes are captured per member; the group never fails.
	_ = g.Wait()

	return resolutions
}
