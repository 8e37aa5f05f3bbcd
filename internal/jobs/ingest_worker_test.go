package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/loreworks/loretex/internal/domain"
)

// MockIngestJobRepository is a mock implementation of IngestJobRepository
type MockIngestJobRepository struct {
	mock.Mock
}

func (m *MockIngestJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.IngestJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.IngestJob), args.Error(1)
}

func (m *MockIngestJobRepository) UpdateStatus(ctx context.Context, id string, status domain.IngestJobStatus, errMsg string) error {
	args := m.Called(ctx, id, status, errMsg)
	return args.Error(0)
}

func (m *MockIngestJobRepository) IncrementRetries(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockIngestor is a mock implementation of Ingestor
type MockIngestor struct {
	mock.Mock
}

func (m *MockIngestor) Ingest(ctx context.Context, item domain.KnowledgeItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func pendingJob(id string, retries int32) *domain.IngestJob {
	job := domain.NewIngestJob(id, domain.NewKnowledgeItem("doc-"+id, "text"))
	job.Retries = retries
	return job
}

func TestProcessJobsNoPending(t *testing.T) {
	repo := new(MockIngestJobRepository)
	ingestor := new(MockIngestor)
	repo.On("ClaimPending", mock.Anything, 100).Return([]*domain.IngestJob{}, nil)

	worker := NewIngestWorker(repo, ingestor)
	require.NoError(t, worker.ProcessJobs(context.Background()))

	ingestor.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
}

func TestProcessJobsClaimFailure(t *testing.T) {
	repo := new(MockIngestJobRepository)
	ingestor := new(MockIngestor)
	repo.On("ClaimPending", mock.Anything, 100).Return(nil, errors.New("connection refused"))

	worker := NewIngestWorker(repo, ingestor)
	assert.Error(t, worker.ProcessJobs(context.Background()))
}

func TestProcessJobSuccess(t *testing.T) {
	repo := new(MockIngestJobRepository)
	ingestor := new(MockIngestor)

	job := pendingJob("job-1", 0)
	repo.On("ClaimPending", mock.Anything, 100).Return([]*domain.IngestJob{job}, nil)
	ingestor.On("Ingest", mock.Anything, job.Item).Return(nil)
	repo.On("UpdateStatus", mock.Anything, "job-1", domain.IngestJobStatusCompleted, "").Return(nil)

	worker := NewIngestWorker(repo, ingestor)
	require.NoError(t, worker.ProcessJobs(context.Background()))

	repo.AssertExpectations(t)
}

func TestProcessJobRetriesTransientFailure(t *testing.T) {
	repo := new(MockIngestJobRepository)
	ingestor := new(MockIngestor)

	job := pendingJob("job-1", 0)
	repo.On("ClaimPending", mock.Anything, 100).Return([]*domain.IngestJob{job}, nil)
	ingestor.On("Ingest", mock.Anything, job.Item).Return(errors.New("provider down"))
	repo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)

	worker := NewIngestWorker(repo, ingestor)
	require.NoError(t, worker.ProcessJobs(context.Background()))

	repo.AssertCalled(t, "IncrementRetries", mock.Anything, "job-1")
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessJobFailsAfterMaxRetries(t *testing.T) {
	repo := new(MockIngestJobRepository)
	ingestor := new(MockIngestor)

	job := pendingJob("job-1", MaxRetries-1)
	repo.On("ClaimPending", mock.Anything, 100).Return([]*domain.IngestJob{job}, nil)
	ingestor.On("Ingest", mock.Anything, job.Item).Return(errors.New("provider down"))
	repo.On("UpdateStatus", mock.Anything, "job-1", domain.IngestJobStatusFailed, mock.Anything).Return(nil)

	worker := NewIngestWorker(repo, ingestor)
	require.NoError(t, worker.ProcessJobs(context.Background()))

	repo.AssertNotCalled(t, "IncrementRetries", mock.Anything, mock.Anything)
	repo.AssertCalled(t, "UpdateStatus", mock.Anything, "job-1", domain.IngestJobStatusFailed, mock.Anything)
}

func TestProcessJobWriteRejectedFailsPermanently(t *testing.T) {
	repo := new(MockIngestJobRepository)
	ingestor := new(MockIngestor)

	// first attempt, plenty of retries left; rejected writes must still
	// fail without a retry
	job := pendingJob("job-1", 0)
	repo.On("ClaimPending", mock.Anything, 100).Return([]*domain.IngestJob{job}, nil)
	ingestor.On("Ingest", mock.Anything, job.Item).
		Return(fmt.Errorf("failed to write parent document: %w", domain.ErrWriteRejected))
	repo.On("UpdateStatus", mock.Anything, "job-1", domain.IngestJobStatusFailed, mock.Anything).Return(nil)

	worker := NewIngestWorker(repo, ingestor)
	require.NoError(t, worker.ProcessJobs(context.Background()))

	repo.AssertNotCalled(t, "IncrementRetries", mock.Anything, mock.Anything)
	repo.AssertCalled(t, "UpdateStatus", mock.Anything, "job-1", domain.IngestJobStatusFailed, mock.Anything)
}
