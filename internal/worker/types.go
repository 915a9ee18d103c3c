package worker

import (
	"context"

	"tubequery/internal/transcript"
)

// ChunkRecord is one embedded transcript chunk ready for the vector store.
type ChunkRecord struct {
	VideoID      string
	SourceID     string
	UserID       string
	Text         string
	StartTime    float64
	EndTime      float64
	Language     string
	LanguageCode string
	ChunkIndex   int
	Vector       []float32
}

type BatchFetcher interface {
	FetchAll(ctx context.Context, videoIDs []string) transcript.BatchResult
}

type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type VectorStore interface {
	VideoExists(ctx context.Context, videoID string) (bool, error)
	StoreChunks(ctx context.Context, records []ChunkRecord) error
}

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id, status string) error
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}
