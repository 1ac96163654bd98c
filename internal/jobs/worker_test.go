package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockSearchLogRepository is a mock implementation of SearchLogPruneRepository
type MockSearchLogRepository struct {
	mock.Mock
}

func (m *MockSearchLogRepository) DeleteSearchLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	logger, _ := test.NewNullLogger()
	worker := NewWorker("test", mockProcessor, 50*time.Millisecond, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(context.Background())
	}()

	time.Sleep(130 * time.Millisecond)

	worker.Stop()
	worker.Stop()
	wg.Wait()

	assert.GreaterOrEqual(t, len(mockProcessor.Calls), 2)
}

func TestWorker_RunsImmediately(t *testing.T) {
	called := make(chan struct{}, 1)
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Run(func(mock.Arguments) {
		select {
		case called <- struct{}{}:
		default:
		}
	}).Return(nil)

	logger, _ := test.NewNullLogger()
	worker := NewWorker("test", mockProcessor, time.Hour, logger)
	go worker.Start(context.Background())
	defer worker.Stop()

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("processor was not run on start")
	}
}

func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(errors.New("database unavailable"))

	logger, hook := test.NewNullLogger()
	worker := NewWorker("prune", mockProcessor, 20*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)

	var logged bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Data["worker"] == "prune" {
			logged = true
		}
	}
	assert.True(t, logged)
}

func TestSearchLogPruner_DeletesBeforeCutoff(t *testing.T) {
	repo := new(MockSearchLogRepository)
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	repo.On("DeleteSearchLogsBefore", mock.Anything, now.Add(-720*time.Hour)).Return(int64(3), nil)

	logger, hook := test.NewNullLogger()
	pruner := NewSearchLogPruner(repo, 720*time.Hour, logger)
	pruner.now = func() time.Time { return now }

	require.NoError(t, pruner.ProcessJobs(context.Background()))

	repo.AssertExpectations(t)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, int64(3), hook.LastEntry().Data["deleted"])
}

func TestSearchLogPruner_DisabledRetention(t *testing.T) {
	repo := new(MockSearchLogRepository)
	logger, _ := test.NewNullLogger()

	require.NoError(t, NewSearchLogPruner(repo, 0, logger).ProcessJobs(context.Background()))

	repo.AssertNotCalled(t, "DeleteSearchLogsBefore", mock.Anything, mock.Anything)
}

func TestSearchLogPruner_Error(t *testing.T) {
	repo := new(MockSearchLogRepository)
	repo.On("DeleteSearchLogsBefore", mock.Anything, mock.Anything).Return(int64(0), errors.New("connection refused"))
	logger, _ := test.NewNullLogger()

	err := NewSearchLogPruner(repo, time.Hour, logger).ProcessJobs(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to prune search logs")
}
