package transcript

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

// Fetcher retrieves the transcript of a single video.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) (*Transcript, error)
}

// BatchResult collects the outcome of a multi-video fetch. Every requested
// video ID appears in exactly one of the two lists.
type BatchResult struct {
	Results []*Transcript
	Errors  []FetchError
}

// Coordinator fans a batch of transcript fetches out over a bounded worker
// pool and joins on the full batch. Per-video failures are collected, never
// propagated: one unavailable video must not sink the rest of the batch.
type Coordinator struct {
	fetcher      Fetcher
	maxWorkers   int
	fetchTimeout time.Duration
}

func NewCoordinator(f Fetcher, maxWorkers int, fetchTimeout time.Duration) *Coordinator {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Coordinator{fetcher: f, maxWorkers: maxWorkers, fetchTimeout: fetchTimeout}
}

// FetchAll blocks until every dispatched fetch has resolved. Result ordering
// follows completion order.
func (c *Coordinator) FetchAll(ctx context.Context, videoIDs []string) BatchResult {
	slog.InfoContext(ctx, "starting batch transcript fetch", "videos", len(videoIDs), "max_workers", c.maxWorkers)

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result BatchResult
	)

	pool, err := ants.NewPool(c.maxWorkers)
	if err != nil {
		// Pool construction only fails on invalid size; fall back to a
		// sequential fetch rather than failing the whole batch.
		slog.ErrorContext(ctx, "failed to create fetch pool, fetching sequentially", "error", err)
		for _, id := range videoIDs {
			c.fetchOne(ctx, id, &mu, &result)
		}
		return result
	}
	defer pool.Release()

	for _, id := range videoIDs {
		id := id
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			c.fetchOne(ctx, id, &mu, &result)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			result.Errors = append(result.Errors, FetchError{VideoID: id, Err: submitErr, Message: submitErr.Error()})
			mu.Unlock()
		}
	}

	wg.Wait()

	slog.InfoContext(ctx, "batch transcript fetch complete", "success", len(result.Results), "errors", len(result.Errors))
	return result
}

func (c *Coordinator) fetchOne(ctx context.Context, videoID string, mu *sync.Mutex, result *BatchResult) {
	fetchCtx := ctx
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	t, err := c.fetcher.Fetch(fetchCtx, videoID)

	mu.Lock()
	defer mu.Unlock()
	if err != nil {
		slog.ErrorContext(ctx, "transcript fetch failed", "video_id", videoID, "error", err)
		result.Errors = append(result.Errors, FetchError{VideoID: videoID, Err: err, Message: err.Error()})
		return
	}
	t.VideoID = videoID
	result.Results = append(result.Results, t)
	slog.InfoContext(ctx, "transcript fetched", "video_id", videoID, "segments", len(t.Segments))
}
