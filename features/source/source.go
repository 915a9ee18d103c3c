package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tubequery/internal/logger"
	"tubequery/internal/worker"
)

// StatusProcessing is set when a source is accepted; the ingestion run
// settles it to ready or failed.
const StatusProcessing = "processing"

// Source is a named collection of videos a user asks questions against.
type Source struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	VideoIDs  []string  `json:"video_ids"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Repository interface {
	Save(ctx context.Context, src *Source) error
	Get(ctx context.Context, id string) (*Source, error)
	ListByUser(ctx context.Context, userID string) ([]Source, error)
	UpdateStatus(ctx context.Context, id, status string) error
	SoftDelete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// TaskSubmitter hands tasks to the background pool. Submit reports false
// when the pool is stopped or its queue is full.
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

// Register persists the source as processing and queues its ingestion. The
// call returns as soon as the task is accepted; status reflects progress.
func (s *Service) Register(ctx context.Context, src *Source) error {
	if len(src.VideoIDs) == 0 {
		return fmt.Errorf("source needs at least one video")
	}
	src.VideoIDs = dedupe(src.VideoIDs)

	src.Status = StatusProcessing
	if err := s.repo.Save(ctx, src); err != nil {
		return fmt.Errorf("save source: %w", err)
	}

	task := worker.IngestSourceTask{
		SourceID:      src.ID,
		UserID:        src.UserID,
		VideoIDs:      src.VideoIDs,
		CorrelationID: logger.GetCorrelationID(ctx),
		SubmittedAt:   time.Now(),
	}
	if !s.pool.Submit(task) {
		slog.ErrorContext(ctx, "task queue rejected source", "source_id", src.ID)
		if err := s.repo.UpdateStatus(ctx, src.ID, worker.StatusFailed); err != nil {
			slog.ErrorContext(ctx, "failed to mark rejected source", "source_id", src.ID, "error", err)
		}
		return fmt.Errorf("ingestion queue is full or stopped")
	}

	slog.InfoContext(ctx, "source queued for ingestion", "source_id", src.ID, "videos", len(src.VideoIDs))
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*Source, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, userID string) ([]Source, error) {
	return s.repo.ListByUser(ctx, userID)
}

// UpdateStatus satisfies the ingestion run's status writer.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) error {
	return s.repo.UpdateStatus(ctx, id, status)
}

// Delete removes the source record. Stored chunks stay put: videos are
// shared across sources, so chunk lifetime follows the video, not the
// source.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.SoftDelete(ctx, id)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
