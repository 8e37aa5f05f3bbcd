package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/loreworks/loretex/internal/domain"
)

const (
	// MaxRetries is the maximum number of retries for a failed job
	MaxRetries = 3
)

// IngestJobRepository defines the interface for ingest job persistence
type IngestJobRepository interface {
	// ClaimPending retrieves and claims pending ingest jobs
	ClaimPending(ctx context.Context, limit int) ([]*domain.IngestJob, error)

	// UpdateStatus updates the status of an ingest job
	UpdateStatus(ctx context.Context, id string, status domain.IngestJobStatus, errMsg string) error

	// IncrementRetries requeues a job and bumps its retry count
	IncrementRetries(ctx context.Context, id string) error
}

// Ingestor runs the ingestion pipeline for one knowledge item.
type Ingestor interface {
	Ingest(ctx context.Context, item domain.KnowledgeItem) error
}

// IngestWorker processes queued ingestion jobs
type IngestWorker struct {
	repo     IngestJobRepository
	ingestor Ingestor
}

// NewIngestWorker creates a new IngestWorker instance
func NewIngestWorker(repo IngestJobRepository, ingestor Ingestor) *IngestWorker {
	return &IngestWorker{
		repo:     repo,
		ingestor: ingestor,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IngestWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, 100)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("processing %d pending ingest jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *IngestWorker) processJob(ctx context.Context, job *domain.IngestJob) error {
	err := w.ingestor.Ingest(ctx, job.Item)
	if err == nil {
		return w.repo.UpdateStatus(ctx, job.ID, domain.IngestJobStatusCompleted, "")
	}

	// A store that rejects writes by policy will keep rejecting them;
	// retrying is pointless.
	if errors.Is(err, domain.ErrWriteRejected) {
		if updateErr := w.repo.UpdateStatus(ctx, job.ID, domain.IngestJobStatusFailed, err.Error()); updateErr != nil {
			return updateErr
		}
		return err
	}

	if job.Retries+1 < MaxRetries {
		if retryErr := w.repo.IncrementRetries(ctx, job.ID); retryErr != nil {
			return retryErr
		}
		return err
	}

	if updateErr := w.repo.UpdateStatus(ctx, job.ID, domain.IngestJobStatusFailed, err.Error()); updateErr != nil {
		return updateErr
	}
	return err
}
