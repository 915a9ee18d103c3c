package job_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tubequery/features/job"
	"tubequery/internal/worker"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) Save(ctx context.Context, j *job.Job) error {
	return m.Called(ctx, j).Error(0)
}

func (m *MockRepo) List(ctx context.Context) ([]job.Job, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]job.Job), args.Error(1)
}

func (m *MockRepo) Get(ctx context.Context, id string) (*job.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.Job), args.Error(1)
}

func (m *MockRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// stubSubmitter records submitted tasks and answers with a fixed verdict.
type stubSubmitter struct {
	mu     sync.Mutex
	tasks  []worker.Task
	accept bool
}

func (s *stubSubmitter) Submit(task worker.Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accept {
		s.tasks = append(s.tasks, task)
	}
	return s.accept
}

func TestService_RecordFailure(t *testing.T) {
	mockRepo := new(MockRepo)
	svc := job.NewService(mockRepo, &stubSubmitter{accept: true})

	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(j *job.Job) bool {
		return j.SourceID == "src-1" &&
			j.Handler == "ingest-worker" &&
			j.Error == "embedding failed"
	})).Return(nil)

	err := svc.RecordFailure(context.Background(), "src-1", "ingest-worker", []byte(`{}`), "embedding failed")

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestService_Retry(t *testing.T) {
	mockRepo := new(MockRepo)
	pool := &stubSubmitter{accept: true}
	svc := job.NewService(mockRepo, pool)

	original := worker.IngestSourceTask{
		SourceID:      "src-1",
		UserID:        "user-1",
		VideoIDs:      []string{"vid-1", "vid-2"},
		CorrelationID: "old-correlation",
	}
	payload, err := json.Marshal(original)
	require.NoError(t, err)

	mockRepo.On("Get", mock.Anything, "job-1").Return(&job.Job{ID: "job-1", SourceID: "src-1", Payload: payload}, nil)
	mockRepo.On("Delete", mock.Anything, "job-1").Return(nil)

	err = svc.Retry(context.Background(), "job-1")

	require.NoError(t, err)
	require.Len(t, pool.tasks, 1)

	resubmitted := pool.tasks[0].(worker.IngestSourceTask)
	assert.Equal(t, "src-1", resubmitted.SourceID)
	assert.Equal(t, []string{"vid-1", "vid-2"}, resubmitted.VideoIDs)
	// retries run under their own correlation ID
	assert.NotEqual(t, "old-correlation", resubmitted.CorrelationID)
	assert.False(t, resubmitted.SubmittedAt.IsZero())
	mockRepo.AssertExpectations(t)
}

func TestService_Retry_PoolRejects(t *testing.T) {
	mockRepo := new(MockRepo)
	svc := job.NewService(mockRepo, &stubSubmitter{accept: false})

	payload, _ := json.Marshal(worker.IngestSourceTask{SourceID: "src-1"})
	mockRepo.On("Get", mock.Anything, "job-1").Return(&job.Job{ID: "job-1", Payload: payload}, nil)

	err := svc.Retry(context.Background(), "job-1")

	require.Error(t, err)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestService_Retry_InvalidPayload(t *testing.T) {
	mockRepo := new(MockRepo)
	svc := job.NewService(mockRepo, &stubSubmitter{accept: true})

	mockRepo.On("Get", mock.Anything, "job-1").Return(&job.Job{ID: "job-1", Payload: []byte(`{broken`)}, nil)

	err := svc.Retry(context.Background(), "job-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode job payload")
}

func TestService_Retry_GetError(t *testing.T) {
	mockRepo := new(MockRepo)
	svc := job.NewService(mockRepo, &stubSubmitter{accept: true})

	mockRepo.On("Get", mock.Anything, "missing").Return(nil, errors.New("not found"))

	err := svc.Retry(context.Background(), "missing")
	assert.Error(t, err)
}

func TestService_List(t *testing.T) {
	mockRepo := new(MockRepo)
	svc := job.NewService(mockRepo, &stubSubmitter{})

	mockRepo.On("List", mock.Anything).Return([]job.Job{{ID: "job-1"}}, nil)

	jobs, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}
