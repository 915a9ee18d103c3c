package source_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tubequery/features/source"
	"tubequery/internal/worker"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) Save(ctx context.Context, src *source.Source) error {
	args := m.Called(ctx, src)
	if args.Error(0) == nil && src.ID == "" {
		src.ID = "src-generated"
	}
	return args.Error(0)
}

func (m *MockRepo) Get(ctx context.Context, id string) (*source.Source, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*source.Source), args.Error(1)
}

func (m *MockRepo) ListByUser(ctx context.Context, userID string) ([]source.Source, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]source.Source), args.Error(1)
}

func (m *MockRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockRepo) SoftDelete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

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

func TestService_Register(t *testing.T) {
	mockRepo := new(MockRepo)
	pool := &stubSubmitter{accept: true}
	svc := source.NewService(mockRepo, pool)

	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(src *source.Source) bool {
		return src.Status == source.StatusProcessing
	})).Return(nil)

	src := &source.Source{UserID: "user-1", Name: "ML lectures", VideoIDs: []string{"vid-1", "vid-2"}}
	err := svc.Register(context.Background(), src)

	require.NoError(t, err)
	require.Len(t, pool.tasks, 1)

	task := pool.tasks[0].(worker.IngestSourceTask)
	assert.Equal(t, "src-generated", task.SourceID)
	assert.Equal(t, "user-1", task.UserID)
	assert.Equal(t, []string{"vid-1", "vid-2"}, task.VideoIDs)
	assert.False(t, task.SubmittedAt.IsZero())
	mockRepo.AssertExpectations(t)
}

func TestService_Register_DedupesVideoIDs(t *testing.T) {
	mockRepo := new(MockRepo)
	pool := &stubSubmitter{accept: true}
	svc := source.NewService(mockRepo, pool)

	mockRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	src := &source.Source{UserID: "user-1", VideoIDs: []string{"vid-1", "vid-1", "", "vid-2"}}
	err := svc.Register(context.Background(), src)

	require.NoError(t, err)
	assert.Equal(t, []string{"vid-1", "vid-2"}, src.VideoIDs)
}

func TestService_Register_NoVideos(t *testing.T) {
	mockRepo := new(MockRepo)
	svc := source.NewService(mockRepo, &stubSubmitter{accept: true})

	err := svc.Register(context.Background(), &source.Source{UserID: "user-1"})

	require.Error(t, err)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_Register_PoolRejects(t *testing.T) {
	mockRepo := new(MockRepo)
	svc := source.NewService(mockRepo, &stubSubmitter{accept: false})

	mockRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	mockRepo.On("UpdateStatus", mock.Anything, "src-generated", worker.StatusFailed).Return(nil)

	err := svc.Register(context.Background(), &source.Source{UserID: "user-1", VideoIDs: []string{"vid-1"}})

	require.Error(t, err)
	mockRepo.AssertExpectations(t)
}

func TestService_Register_SaveError(t *testing.T) {
	mockRepo := new(MockRepo)
	pool := &stubSubmitter{accept: true}
	svc := source.NewService(mockRepo, pool)

	mockRepo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))

	err := svc.Register(context.Background(), &source.Source{UserID: "user-1", VideoIDs: []string{"vid-1"}})

	require.Error(t, err)
	assert.Empty(t, pool.tasks)
}

func TestService_UpdateStatus(t *testing.T) {
	mockRepo := new(MockRepo)
	svc := source.NewService(mockRepo, &stubSubmitter{})

	mockRepo.On("UpdateStatus", mock.Anything, "src-1", "ready").Return(nil)

	require.NoError(t, svc.UpdateStatus(context.Background(), "src-1", "ready"))
	mockRepo.AssertExpectations(t)
}

func TestService_Delete(t *testing.T) {
	mockRepo := new(MockRepo)
	svc := source.NewService(mockRepo, &stubSubmitter{})

	mockRepo.On("SoftDelete", mock.Anything, "src-1").Return(nil)

	require.NoError(t, svc.Delete(context.Background(), "src-1"))
	mockRepo.AssertExpectations(t)
}
