// Package store defines the knowledge store contract satisfied by every
// backend: a documents namespace (parent records, addressed by ID) and a
// fragments namespace (searchable by embedding, linked to parents via
// SourceID).
package store

import (
	"context"

	"github.com/loreworks/loretex/internal/domain"
)

// SearchOptions controls a fragment similarity search.
type SearchOptions struct {
	// TopK caps the number of matches returned.
	TopK int

	// OwnerID filters matches to one owner when set. Filter support is
	// best-effort: a backend may ignore it, so callers must not assume
	// filtered results are exhaustive.
	OwnerID string
}

// Store is implemented by every knowledge store backend.
//
// Write-class operations (CreateRecord, RemoveByID, RemoveAllForOwner) may be
// refused categorically by backends that are populated out-of-band; such
// refusals carry domain.ErrWriteRejected and are backend policy, not failure.
type Store interface {
	// CreateRecord upserts a record into the documents namespace, or the
	// fragments namespace when fragment is true. Writing the same ID twice
	// overwrites, never duplicates.
	CreateRecord(ctx context.Context, rec domain.MemoryRecord, fragment bool) error

	// SearchByEmbedding returns up to opts.TopK fragment matches ordered by
	// descending similarity.
	SearchByEmbedding(ctx context.Context, embedding []float32, opts SearchOptions) ([]domain.MemoryRecord, error)

	// GetByID fetches a record by ID, or domain.ErrRecordNotFound.
	GetByID(ctx context.Context, id string, fragment bool) (*domain.MemoryRecord, error)

	// RemoveByID deletes a record by ID. Deleting an absent record is a no-op.
	RemoveByID(ctx context.Context, id string, fragment bool) error

	// RemoveAllForOwner deletes every record carrying the given owner tag.
	RemoveAllForOwner(ctx context.Context, ownerID string) error
}

// SourcePruner is an optional capability: backends that can delete the
// fragment set of one parent implement it so re-ingestion replaces fragments
// instead of accumulating orphans. Backends without it leave orphan pruning
// to their own maintenance.
type SourcePruner interface {
	RemoveAllForSource(ctx context.Context, sourceID string) error
}
