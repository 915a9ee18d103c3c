package worker_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"tubequery/internal/transcript"
	"tubequery/internal/worker"
)

// Mocks

type MockBatchFetcher struct{ mock.Mock }

func (m *MockBatchFetcher) FetchAll(ctx context.Context, videoIDs []string) transcript.BatchResult {
	args := m.Called(ctx, videoIDs)
	return args.Get(0).(transcript.BatchResult)
}

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

type MockVectorStore struct{ mock.Mock }

func (m *MockVectorStore) VideoExists(ctx context.Context, videoID string) (bool, error) {
	args := m.Called(ctx, videoID)
	return args.Bool(0), args.Error(1)
}

func (m *MockVectorStore) StoreChunks(ctx context.Context, records []worker.ChunkRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

type MockStatusUpdater struct{ mock.Mock }

func (m *MockStatusUpdater) UpdateStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}

type MockFailureRecorder struct{ mock.Mock }

func (m *MockFailureRecorder) RecordFailure(ctx context.Context, sourceID, handler string, payload []byte, errMsg string) error {
	args := m.Called(ctx, sourceID, handler, payload, errMsg)
	return args.Error(0)
}
