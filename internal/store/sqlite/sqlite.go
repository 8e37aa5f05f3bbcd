// Package sqlite implements the knowledge store contract on an embedded
// SQLite database. Embeddings are stored as little-endian float32 blobs and
// similarity search is a brute-force cosine scan, which is adequate for the
// single-file deployments this backend targets.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"math"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/loreworks/loretex/internal/domain"
	"github.com/loreworks/loretex/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL DEFAULT '',
	source_id TEXT NOT NULL DEFAULT '',
	text_content TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	doc_date TEXT NOT NULL DEFAULT '',
	embedding BLOB,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS fragments (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL DEFAULT '',
	source_id TEXT NOT NULL DEFAULT '',
	text_content TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	doc_date TEXT NOT NULL DEFAULT '',
	embedding BLOB,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS fragments_source_idx ON fragments(source_id);
CREATE INDEX IF NOT EXISTS fragments_owner_idx ON fragments(owner_id);
`

// Store is a sqlite-backed knowledge store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite database at path and ensures
// the schema exists. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The modernc driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent ingestion.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
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

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO `+tableFor(fragment)+`
			(id, owner_id, source_id, text_content, title, source, category, doc_date, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			owner_id = excluded.owner_id,
			source_id = excluded.source_id,
			text_content = excluded.text_content,
			title = excluded.title,
			source = excluded.source,
			category = excluded.category,
			doc_date = excluded.doc_date,
			embedding = excluded.embedding,
			created_at = excluded.created_at`,
		rec.ID,
		rec.OwnerID,
		rec.SourceID,
		rec.Content.Text,
		rec.Content.Title,
		rec.Content.Source,
		rec.Content.Category,
		rec.Content.Date,
		encodeEmbedding(rec.Embedding),
		createdAt,
	)
	return err
}

// SearchByEmbedding scans the fragments table and ranks by cosine similarity.
func (s *Store) SearchByEmbedding(ctx context.Context, embedding []float32, opts store.SearchOptions) ([]domain.MemoryRecord, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, source_id, text_content, title, source, category, doc_date, embedding, created_at
		 FROM fragments
		 WHERE (? = '' OR owner_id = ?)`,
		opts.OwnerID, opts.OwnerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []domain.MemoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		rec.Similarity = cosineSimilarity(embedding, rec.Embedding)
		matches = append(matches, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// GetByID fetches one record from the requested namespace.
func (s *Store) GetByID(ctx context.Context, id string, fragment bool) (*domain.MemoryRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, source_id, text_content, title, source, category, doc_date, embedding, created_at
		 FROM `+tableFor(fragment)+` WHERE id = ?`,
		id,
	)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

// RemoveByID deletes one record; absent IDs are a no-op.
func (s *Store) RemoveByID(ctx context.Context, id string, fragment bool) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM `+tableFor(fragment)+` WHERE id = ?`, id)
	return err
}

// RemoveAllForOwner deletes every document and fragment tagged with ownerID.
func (s *Store) RemoveAllForOwner(ctx context.Context, ownerID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM fragments WHERE owner_id = ?`, ownerID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE owner_id = ?`, ownerID)
	return err
}

// RemoveAllForSource deletes the fragment set of one parent document.
func (s *Store) RemoveAllForSource(ctx context.Context, sourceID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM fragments WHERE source_id = ?`, sourceID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.MemoryRecord, error) {
	var rec domain.MemoryRecord
	var blob []byte
	if err := row.Scan(
		&rec.ID, &rec.OwnerID, &rec.SourceID,
		&rec.Content.Text, &rec.Content.Title, &rec.Content.Source,
		&rec.Content.Category, &rec.Content.Date,
		&blob, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	rec.Embedding = decodeEmbedding(blob)
	return &rec, nil
}

func encodeEmbedding(v []float32) []byte {
	if v == nil {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeEmbedding(buf []byte) []float32 {
	if len(buf) < 4 {
		return nil
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v
}

func cosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
