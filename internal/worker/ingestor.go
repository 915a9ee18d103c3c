package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"tubequery/internal/transcript"
)

var (
	// ErrNoTranscripts means not a single video in the batch yielded a
	// transcript.
	ErrNoTranscripts = errors.New("no transcripts fetched")

	// ErrEmbedding is fatal to the current run: without vectors there is
	// nothing to store for this source.
	ErrEmbedding = errors.New("embedding failed")

	// ErrBelowThreshold means fewer videos were stored than the configured
	// success threshold requires.
	ErrBelowThreshold = errors.New("stored videos below success threshold")
)

const ingestHandler = "ingest-worker"

// Source lifecycle statuses written by the ingestion run. The record store
// owns the column; this core is its only writer.
const (
	StatusReady  = "ready"
	StatusFailed = "failed"
)

// FailureRecorder persists enough of a failed run for an external caller to
// re-submit it as a fresh task later.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, sourceID, handler string, payload []byte, errMsg string) error
}

type IngestorConfig struct {
	ChunkSize int

	// SuccessThreshold is the fraction of a source's videos that must be
	// stored (or already present) before the source is marked ready. Zero
	// means any single success suffices, which silently tolerates partial
	// data loss; raise it when that matters.
	SuccessThreshold float64
}

// Ingestor is the task body executed by the pool for IngestSourceTask:
// fetch transcripts, chunk, embed, store, then settle the source status
// exactly once.
type Ingestor struct {
	fetcher  BatchFetcher
	embedder Embedder
	store    VectorStore
	status   StatusUpdater
	events   EventPublisher
	jobs     FailureRecorder
	cfg      IngestorConfig
}

func NewIngestor(f BatchFetcher, e Embedder, s VectorStore, st StatusUpdater, ev EventPublisher, jobs FailureRecorder, cfg IngestorConfig) *Ingestor {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	return &Ingestor{fetcher: f, embedder: e, store: s, status: st, events: ev, jobs: jobs, cfg: cfg}
}

func (ing *Ingestor) ProcessSource(ctx context.Context, task IngestSourceTask) error {
	slog.InfoContext(ctx, "processing source", "source_id", task.SourceID, "videos", len(task.VideoIDs))

	batch := ing.fetcher.FetchAll(ctx, task.VideoIDs)
	for _, fe := range batch.Errors {
		publishEvent(ctx, ing.events, IngestEvent{
			Type:     EventVideoFailed,
			SourceID: task.SourceID,
			VideoID:  fe.VideoID,
			Error:    fe.Message,
		})
	}

	if len(batch.Results) == 0 {
		slog.ErrorContext(ctx, "no transcripts fetched", "source_id", task.SourceID)
		ing.fail(ctx, task, 0, 0, len(batch.Errors), ErrNoTranscripts.Error())
		return ErrNoTranscripts
	}

	var stored, existing int
	failed := len(batch.Errors)

	for _, tr := range batch.Results {
		exists, err := ing.store.VideoExists(ctx, tr.VideoID)
		if err != nil {
			// Existence check is advisory; worst case we store twice.
			slog.WarnContext(ctx, "video existence check failed", "video_id", tr.VideoID, "error", err)
		}
		if exists {
			slog.InfoContext(ctx, "video already in vector store, reusing embeddings", "video_id", tr.VideoID)
			existing++
			continue
		}

		records, err := ing.embedTranscript(ctx, task, tr)
		if err != nil {
			if errors.Is(err, ErrEmbedding) {
				slog.ErrorContext(ctx, "embedding failed, aborting run", "source_id", task.SourceID, "video_id", tr.VideoID, "error", err)
				ing.fail(ctx, task, stored, existing, failed, err.Error())
				return err
			}
			slog.ErrorContext(ctx, "failed to prepare video", "video_id", tr.VideoID, "error", err)
			failed++
			publishEvent(ctx, ing.events, IngestEvent{
				Type: EventVideoFailed, SourceID: task.SourceID, VideoID: tr.VideoID, Error: err.Error(),
			})
			continue
		}

		if err := ing.store.StoreChunks(ctx, records); err != nil {
			slog.ErrorContext(ctx, "failed to store chunks", "video_id", tr.VideoID, "error", err)
			failed++
			publishEvent(ctx, ing.events, IngestEvent{
				Type: EventVideoFailed, SourceID: task.SourceID, VideoID: tr.VideoID, Error: err.Error(),
			})
			continue
		}

		slog.InfoContext(ctx, "video stored", "video_id", tr.VideoID, "chunks", len(records))
		stored++
	}

	succeeded := stored + existing
	if succeeded < ing.requiredSuccesses(len(task.VideoIDs)) {
		err := fmt.Errorf("%w: %d of %d", ErrBelowThreshold, succeeded, len(task.VideoIDs))
		ing.fail(ctx, task, stored, existing, failed, err.Error())
		return err
	}

	if err := ing.status.UpdateStatus(ctx, task.SourceID, StatusReady); err != nil {
		slog.ErrorContext(ctx, "failed to update source status", "source_id", task.SourceID, "error", err)
	}
	if failed > 0 {
		slog.WarnContext(ctx, "source ready with partial errors", "source_id", task.SourceID, "failed", failed)
	}
	publishEvent(ctx, ing.events, IngestEvent{
		Type: EventRunCompleted, SourceID: task.SourceID, Status: StatusReady,
		Stored: stored, Existing: existing, Failed: failed,
	})
	slog.InfoContext(ctx, "source processed", "source_id", task.SourceID, "stored", stored, "existing", existing, "failed", failed)
	return nil
}

// embedTranscript chunks one transcript and embeds every chunk in a single
// batch call.
func (ing *Ingestor) embedTranscript(ctx context.Context, task IngestSourceTask, tr *transcript.Transcript) ([]ChunkRecord, error) {
	chunks, err := transcript.ChunkSegments(tr.Segments, ing.cfg.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", tr.VideoID, err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := ing.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbedding, len(vectors), len(chunks))
	}

	records := make([]ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = ChunkRecord{
			VideoID:      tr.VideoID,
			SourceID:     task.SourceID,
			UserID:       task.UserID,
			Text:         c.Text,
			StartTime:    c.StartTime,
			EndTime:      c.EndTime,
			Language:     tr.Language,
			LanguageCode: tr.LanguageCode,
			ChunkIndex:   i,
			Vector:       vectors[i],
		}
	}
	return records, nil
}

func (ing *Ingestor) requiredSuccesses(total int) int {
	n := int(math.Ceil(ing.cfg.SuccessThreshold * float64(total)))
	if n < 1 {
		n = 1
	}
	return n
}

// fail settles the source as failed, leaves a retryable job record and emits
// the completion event. Best effort throughout: the run is already lost.
func (ing *Ingestor) fail(ctx context.Context, task IngestSourceTask, stored, existing, failed int, reason string) {
	if err := ing.status.UpdateStatus(ctx, task.SourceID, StatusFailed); err != nil {
		slog.ErrorContext(ctx, "failed to update source status", "source_id", task.SourceID, "error", err)
	}

	if ing.jobs != nil {
		payload, err := json.Marshal(task)
		if err != nil {
			slog.ErrorContext(ctx, "failed to marshal task payload", "error", err)
		} else if err := ing.jobs.RecordFailure(ctx, task.SourceID, ingestHandler, payload, reason); err != nil {
			slog.ErrorContext(ctx, "failed to record failed run", "source_id", task.SourceID, "error", err)
		}
	}

	publishEvent(ctx, ing.events, IngestEvent{
		Type: EventRunCompleted, SourceID: task.SourceID, Status: StatusFailed,
		Stored: stored, Existing: existing, Failed: failed, Error: reason,
	})
}
