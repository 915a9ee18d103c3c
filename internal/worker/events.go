package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tubequery/internal/config"
	"tubequery/internal/logger"
)

const (
	EventVideoFailed  = "video_failed"
	EventRunCompleted = "run_completed"
)

// IngestEvent is the diagnostics record published for per-video failures and
// run completions. Events surface information; they are never a failure
// signal to the pool's caller.
type IngestEvent struct {
	EventID       string    `json:"event_id"`
	Type          string    `json:"type"`
	SourceID      string    `json:"source_id"`
	VideoID       string    `json:"video_id,omitempty"`
	Status        string    `json:"status,omitempty"`
	Error         string    `json:"error,omitempty"`
	Stored        int       `json:"stored,omitempty"`
	Existing      int       `json:"existing,omitempty"`
	Failed        int       `json:"failed,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// publishEvent best-effort publishes a diagnostics event. A broken event
// stream must not fail an ingestion run.
func publishEvent(ctx context.Context, pub EventPublisher, ev IngestEvent) {
	if pub == nil {
		return
	}
	ev.EventID = uuid.New().String()
	ev.Timestamp = time.Now().UTC()
	ev.CorrelationID = logger.GetCorrelationID(ctx)

	body, err := json.Marshal(ev)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal ingest event", "error", err)
		return
	}
	if err := pub.Publish(config.TopicIngestEvents, body); err != nil {
		slog.WarnContext(ctx, "failed to publish ingest event", "type", ev.Type, "error", err)
	}
}
