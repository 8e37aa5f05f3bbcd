// Package repository persists ingestion jobs in PostgreSQL for the
// background worker.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loreworks/loretex/internal/domain"
)

var ErrIngestJobNotFound = fmt.Errorf("ingest job: %w", domain.ErrRecordNotFound)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type IngestJobRepository struct {
	db dbtx
}

func NewIngestJobRepository(pool *pgxpool.Pool) *IngestJobRepository {
	return &IngestJobRepository{db: pool}
}

func NewIngestJobRepositoryWithTx(tx pgx.Tx) *IngestJobRepository {
	return &IngestJobRepository{db: tx}
}

// itemPayload is the jsonb wire form of a queued knowledge item.
type itemPayload struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Title    string `json:"title,omitempty"`
	Source   string `json:"source,omitempty"`
	Category string `json:"category,omitempty"`
	Date     string `json:"date,omitempty"`
}

func payloadFromItem(item domain.KnowledgeItem) itemPayload {
	return itemPayload{
		ID:       item.ID,
		Text:     item.Content.Text,
		Title:    item.Content.Title,
		Source:   item.Content.Source,
		Category: item.Content.Category,
		Date:     item.Content.Date,
	}
}

func (p itemPayload) toItem() domain.KnowledgeItem {
	return domain.KnowledgeItem{
		ID: p.ID,
		Content: domain.Content{
			Text:     p.Text,
			Title:    p.Title,
			Source:   p.Source,
			Category: p.Category,
			Date:     p.Date,
		},
	}
}

func (r *IngestJobRepository) Create(ctx context.Context, job *domain.IngestJob) error {
	payload, err := json.Marshal(payloadFromItem(job.Item))
	if err != nil {
		return fmt.Errorf("failed to marshal job payload: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO ingest_jobs (id, item, status, retries, error, created_at, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		job.ID, payload, job.Status, job.Retries, nullableString(job.Error), job.CreatedAt, job.ProcessedAt,
	)
	return err
}

func (r *IngestJobRepository) GetByID(ctx context.Context, id string) (*domain.IngestJob, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, item, status, retries, error, created_at, processed_at
		 FROM ingest_jobs WHERE id = $1`,
		id,
	)
	job, err := scanIngestJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIngestJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// ClaimPending atomically claims up to limit pending jobs and moves them to
// processing. SKIP LOCKED lets multiple workers share the queue.
func (r *IngestJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.IngestJob, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`WITH cte AS (
			 SELECT id
			 FROM ingest_jobs
			 WHERE status = $1
			 ORDER BY created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT $2
		 )
		 UPDATE ingest_jobs
		 SET status = $3,
		     error = NULL,
		     processed_at = NULL
		 FROM cte
		 WHERE ingest_jobs.id = cte.id
		 RETURNING ingest_jobs.id, ingest_jobs.item, ingest_jobs.status,
		           ingest_jobs.retries, ingest_jobs.error, ingest_jobs.created_at, ingest_jobs.processed_at`,
		domain.IngestJobStatusPending, limit, domain.IngestJobStatusProcessing,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.IngestJob
	for rows.Next() {
		job, err := scanIngestJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

func (r *IngestJobRepository) UpdateStatus(ctx context.Context, id string, status domain.IngestJobStatus, errMsg string) error {
	var processedAt *time.Time
	if status == domain.IngestJobStatusCompleted || status == domain.IngestJobStatusFailed {
		now := time.Now().UTC()
		processedAt = &now
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE ingest_jobs SET status = $1, error = $2, processed_at = $3 WHERE id = $4`,
		status, nullableString(errMsg), processedAt, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrIngestJobNotFound
	}
	return nil
}

func (r *IngestJobRepository) IncrementRetries(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE ingest_jobs SET retries = retries + 1, status = $1 WHERE id = $2`,
		domain.IngestJobStatusPending, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrIngestJobNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIngestJob(row rowScanner) (*domain.IngestJob, error) {
	var job domain.IngestJob
	var payload []byte
	var errMsg pgtype.Text
	if err := row.Scan(&job.ID, &payload, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt); err != nil {
		return nil, err
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}

	var p itemPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job payload: %w", err)
	}
	job.Item = p.toItem()
	return &job, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
