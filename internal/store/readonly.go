package store

import (
	"context"
	"fmt"

	"github.com/loreworks/loretex/internal/domain"
)

// readOnly wraps a Store so that every write-class operation is refused with
// domain.ErrWriteRejected. It models backends populated by an external,
// authoritative process: retrieval works normally, ingestion surfaces the
// refusal as an expected terminal outcome.
type readOnly struct {
	inner Store
}

// NewReadOnly returns a read-only view of inner.
func NewReadOnly(inner Store) Store {
	return &readOnly{inner: inner}
}

func (r *readOnly) CreateRecord(_ context.Context, rec domain.MemoryRecord, _ bool) error {
	return fmt.Errorf("create %s: %w", rec.ID, domain.ErrWriteRejected)
}

func (r *readOnly) SearchByEmbedding(ctx context.Context, embedding []float32, opts SearchOptions) ([]domain.MemoryRecord, error) {
	return r.inner.SearchByEmbedding(ctx, embedding, opts)
}

func (r *readOnly) GetByID(ctx context.Context, id string, fragment bool) (*domain.MemoryRecord, error) {
	return r.inner.GetByID(ctx, id, fragment)
}

func (r *readOnly) RemoveByID(_ context.Context, id string, _ bool) error {
	return fmt.Errorf("remove %s: %w", id, domain.ErrWriteRejected)
}

func (r *readOnly) RemoveAllForOwner(_ context.Context, ownerID string) error {
	return fmt.Errorf("remove owner %s: %w", ownerID, domain.ErrWriteRejected)
}
