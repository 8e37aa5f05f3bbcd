// Package postgres implements the knowledge store contract on PostgreSQL
// with the pgvector extension.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/loreworks/loretex/internal/domain"
	"github.com/loreworks/loretex/internal/store"
)

// Store persists documents and fragments in two tables, the two namespaces
// of the contract.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a postgres-backed store using the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func tableFor(fragment bool) string {
	if fragment {
		return "fragments"
	}
	return "documents"
}

// CreateRecord upserts a record keyed by ID.
func (s *Store) CreateRecord(ctx context.Context, rec domain.MemoryRecord, fragment bool) error {
	if rec.ID == "" {
		return domain.ErrMissingRequiredField
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+tableFor(fragment)+`
			(id, owner_id, source_id, text_content, title, source, category, doc_date, embedding, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
			owner_id = EXCLUDED.owner_id,
			source_id = EXCLUDED.source_id,
			text_content = EXCLUDED.text_content,
			title = EXCLUDED.title,
			source = EXCLUDED.source,
			category = EXCLUDED.category,
			doc_date = EXCLUDED.doc_date,
			embedding = EXCLUDED.embedding,
			created_at = EXCLUDED.created_at`,
		rec.ID,
		rec.OwnerID,
		rec.SourceID,
		rec.Content.Text,
		rec.Content.Title,
		rec.Content.Source,
		rec.Content.Category,
		rec.Content.Date,
		pgvector.NewVector(rec.Embedding),
		createdAt,
	)
	return err
}

// SearchByEmbedding runs a cosine-distance search over the fragments table.
// Similarity is reported as 1 - cosine distance.
func (s *Store) SearchByEmbedding(ctx context.Context, embedding []float32, opts store.SearchOptions) ([]domain.MemoryRecord, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}

	vec := pgvector.NewVector(embedding)
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, source_id, text_content, title, source, category, doc_date, created_at,
		        1 - (embedding <=> $1) AS similarity
		 FROM fragments
		 WHERE ($2 = '' OR owner_id = $2)
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		vec, opts.OwnerID, topK,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]domain.MemoryRecord, 0, topK)
	for rows.Next() {
		var rec domain.MemoryRecord
		if err := rows.Scan(
			&rec.ID, &rec.OwnerID, &rec.SourceID,
			&rec.Content.Text, &rec.Content.Title, &rec.Content.Source,
			&rec.Content.Category, &rec.Content.Date,
			&rec.CreatedAt, &rec.Similarity,
		); err != nil {
			return nil, err
		}
		matches = append(matches, rec)
	}
	return matches, rows.Err()
}

// GetByID fetches one record from the requested namespace.
func (s *Store) GetByID(ctx context.Context, id string, fragment bool) (*domain.MemoryRecord, error) {
	var rec domain.MemoryRecord
	var embedding pgvector.Vector
	err := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, source_id, text_content, title, source, category, doc_date, embedding, created_at
		 FROM `+tableFor(fragment)+` WHERE id = $1`,
		id,
	).Scan(
		&rec.ID, &rec.OwnerID, &rec.SourceID,
		&rec.Content.Text, &rec.Content.Title, &rec.Content.Source,
		&rec.Content.Category, &rec.Content.Date,
		&embedding, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	rec.Embedding = embedding.Slice()
	return &rec, nil
}

// RemoveByID deletes one record; absent IDs are a no-op.
func (s *Store) RemoveByID(ctx context.Context, id string, fragment bool) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM `+tableFor(fragment)+` WHERE id = $1`, id)
	return err
}

// RemoveAllForOwner deletes every document and fragment tagged with ownerID.
func (s *Store) RemoveAllForOwner(ctx context.Context, ownerID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM fragments WHERE owner_id = $1`, ownerID); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE owner_id = $1`, ownerID)
	return err
}

// RemoveAllForSource deletes the fragment set of one parent document, so
// re-ingestion replaces fragments instead of accumulating stale ones.
func (s *Store) RemoveAllForSource(ctx context.Context, sourceID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM fragments WHERE source_id = $1`, sourceID)
	return err
}
