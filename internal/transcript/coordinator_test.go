package transcript_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tubequery/internal/transcript"
)

type stubFetcher struct {
	mu       sync.Mutex
	fail     map[string]error
	delay    time.Duration
	inFlight int32
	peak     int32
}

func (f *stubFetcher) Fetch(ctx context.Context, videoID string) (*transcript.Transcript, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&f.peak)
		if cur <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, cur) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	err := f.fail[videoID]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &transcript.Transcript{
		Language:     "English",
		LanguageCode: "en",
		Segments:     []transcript.Segment{{Text: "hi", Start: 0, Duration: 1}},
	}, nil
}

func TestCoordinator_FetchAll(t *testing.T) {
	t.Run("All succeed", func(t *testing.T) {
		f := &stubFetcher{}
		c := transcript.NewCoordinator(f, 5, time.Second)

		res := c.FetchAll(context.Background(), []string{"a", "b", "c"})
		assert.Len(t, res.Results, 3)
		assert.Empty(t, res.Errors)

		seen := map[string]bool{}
		for _, tr := range res.Results {
			seen[tr.VideoID] = true
		}
		assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, seen)
	})

	t.Run("Partial failure is isolated", func(t *testing.T) {
		f := &stubFetcher{fail: map[string]error{"bad": transcript.ErrUnavailable}}
		c := transcript.NewCoordinator(f, 2, time.Second)

		res := c.FetchAll(context.Background(), []string{"ok1", "bad", "ok2"})
		assert.Len(t, res.Results, 2)
		if assert.Len(t, res.Errors, 1) {
			assert.Equal(t, "bad", res.Errors[0].VideoID)
			assert.ErrorIs(t, res.Errors[0], transcript.ErrUnavailable)
		}
	})

	t.Run("Every video accounted for exactly once", func(t *testing.T) {
		f := &stubFetcher{fail: map[string]error{"v2": errors.New("boom"), "v5": errors.New("boom")}}
		c := transcript.NewCoordinator(f, 3, time.Second)

		ids := []string{"v1", "v2", "v3", "v4", "v5", "v6"}
		res := c.FetchAll(context.Background(), ids)
		assert.Equal(t, len(ids), len(res.Results)+len(res.Errors))

		seen := map[string]int{}
		for _, tr := range res.Results {
			seen[tr.VideoID]++
		}
		for _, fe := range res.Errors {
			seen[fe.VideoID]++
		}
		for _, id := range ids {
			assert.Equal(t, 1, seen[id], "video %s", id)
		}
	})

	t.Run("Concurrency bounded by max workers", func(t *testing.T) {
		f := &stubFetcher{delay: 30 * time.Millisecond}
		c := transcript.NewCoordinator(f, 2, time.Second)

		c.FetchAll(context.Background(), []string{"a", "b", "c", "d", "e", "f"})
		assert.LessOrEqual(t, atomic.LoadInt32(&f.peak), int32(2))
	})

	t.Run("Fetch honours timeout", func(t *testing.T) {
		f := &stubFetcher{delay: 200 * time.Millisecond}
		c := transcript.NewCoordinator(f, 2, 10*time.Millisecond)

		res := c.FetchAll(context.Background(), []string{"slow"})
		assert.Empty(t, res.Results)
		if assert.Len(t, res.Errors, 1) {
			assert.ErrorIs(t, res.Errors[0], context.DeadlineExceeded)
		}
	})
}
