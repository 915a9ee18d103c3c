package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"tubequery/internal/logger"
	"tubequery/internal/worker"
)

// TaskSubmitter hands a retried task back to the background pool.
type TaskSubmitter interface {
	Submit(task worker.Task) bool
}

type Service struct {
	repo Repository
	pool TaskSubmitter
}

func NewService(repo Repository, pool TaskSubmitter) *Service {
	return &Service{repo: repo, pool: pool}
}

// RecordFailure persists a failed ingestion run. Called from inside the
// worker when a source cannot be settled as ready.
func (s *Service) RecordFailure(ctx context.Context, sourceID, handler string, payload []byte, errMsg string) error {
	j := &Job{
		SourceID: sourceID,
		Handler:  handler,
		Payload:  json.RawMessage(payload),
		Error:    errMsg,
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return err
	}
	slog.InfoContext(ctx, "failed run recorded", "job_id", j.ID, "source_id", sourceID)
	return nil
}

func (s *Service) List(ctx context.Context) ([]Job, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	return s.repo.Get(ctx, id)
}

// Retry re-submits the recorded task as fresh work and deletes the record
// once the pool accepts it. The task gets a new correlation ID and submit
// time; the source and video set are the ones that originally failed.
func (s *Service) Retry(ctx context.Context, id string) error {
	j, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	var task worker.IngestSourceTask
	if err := json.Unmarshal(j.Payload, &task); err != nil {
		return fmt.Errorf("decode job payload: %w", err)
	}
	task.CorrelationID = logger.GetCorrelationID(ctx)
	task.SubmittedAt = time.Now()

	if !s.pool.Submit(task) {
		return fmt.Errorf("ingestion queue is full or stopped")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		// The task is already queued; a stale record is the lesser evil.
		slog.ErrorContext(ctx, "failed to delete retried job", "job_id", id, "error", err)
		return err
	}

	slog.InfoContext(ctx, "job retried", "job_id", id, "source_id", task.SourceID)
	return nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
