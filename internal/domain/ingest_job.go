package domain

import (
	"fmt"
	"time"
)

// IngestJobStatus represents the status of an ingestion job
type IngestJobStatus string

const (
	IngestJobStatusPending    IngestJobStatus = "pending"
	IngestJobStatusProcessing IngestJobStatus = "processing"
	IngestJobStatusCompleted  IngestJobStatus = "completed"
	IngestJobStatusFailed     IngestJobStatus = "failed"
)

// IngestJob represents an async ingestion job: one knowledge item queued to
// be chunked, embedded and written to the store by the background worker.
type IngestJob struct {
	ID          string
	Item        KnowledgeItem
	Status      IngestJobStatus
	Retries     int32
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewIngestJob creates a pending IngestJob for the given item.
func NewIngestJob(id string, item KnowledgeItem) *IngestJob {
	return &IngestJob{
		ID:        id,
		Item:      item,
		Status:    IngestJobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// ValidateIngestJob validates an IngestJob instance
func ValidateIngestJob(j *IngestJob) error {
	if j == nil {
		return fmt.Errorf("ingest job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("ingest job ID is required")
	}

	if err := ValidateKnowledgeItem(j.Item); err != nil {
		return err
	}

	if !isValidIngestJobStatus(j.Status) {
		return fmt.Errorf("ingest job Status is invalid: %s", j.Status)
	}

	if j.Retries < 0 {
		return fmt.Errorf("ingest job Retries cannot be negative")
	}

	return nil
}

func isValidIngestJobStatus(s IngestJobStatus) bool {
	switch s {
	case IngestJobStatusPending, IngestJobStatusProcessing,
		IngestJobStatusCompleted, IngestJobStatusFailed:
		return true
	}
	return false
}
