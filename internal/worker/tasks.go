package worker

import "time"

// Task is a unit of deferred work accepted by the pool. The variant set is
// closed: workers dispatch on the concrete type, so arbitrary callables never
// enter the queue.
type Task interface {
	taskKind() string
}

// IngestSourceTask asks the pool to run the full ingestion pipeline for one
// registered source: fetch transcripts, chunk, embed, store, set final status.
type IngestSourceTask struct {
	SourceID      string    `json:"source_id"`
	UserID        string    `json:"user_id"`
	VideoIDs      []string  `json:"video_ids"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

func (IngestSourceTask) taskKind() string { return "ingest_source" }
