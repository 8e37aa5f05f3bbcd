package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loreworks/loretex/internal/domain"
	"github.com/loreworks/loretex/internal/store"
	"github.com/loreworks/loretex/internal/telemetry"
)

// IngestConfig controls chunking and ownership for ingestion.
type IngestConfig struct {
	OwnerID      string
	ChunkSize    int
	ChunkOverlap int
}

// IngestService turns one knowledge item into a parent document record plus
// a set of embedded fragment records.
type IngestService struct {
	embedder EmbeddingClient
	store    store.Store
	cfg      IngestConfig
}

// NewIngestService creates a new IngestService instance.
func NewIngestService(embedder EmbeddingClient, st store.Store, cfg IngestConfig) *IngestService {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = DefaultChunkOverlap
	}
	return &IngestService{
		embedder: embedder,
		store:    st,
		cfg:      cfg,
	}
}

// Ingest writes the parent document record, then chunks the normalized text
// and writes one embedded fragment record per chunk.
//
// The parent is stored with the zero-vector placeholder: only its fragments
// are ever the target of similarity search. A failure writing one fragment
// does not stop the remaining fragments; all fragment errors are joined into
// the returned error. A rejected parent write aborts before any fragment is
// attempted.
func (s *IngestService) Ingest(ctx context.Context, item domain.KnowledgeItem) error {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.Ingest", telemetry.SpanAttributes{
		OwnerID:     s.cfg.OwnerID,
		KnowledgeID: item.ID,
		Operation:   "ingest",
	})
	defer span.End()

	if err := domain.ValidateKnowledgeItem(item); err != nil {
		return err
	}

	parent := domain.MemoryRecord{
		ID:        item.ID,
		OwnerID:   s.cfg.OwnerID,
		Content:   item.Content,
		Embedding: domain.ZeroVector(s.embedder.Dimensions()),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateRecord(ctx, parent, false); err != nil {
		span.SetError(err)
		return fmt.Errorf("failed to write parent document %s: %w", item.ID, err)
	}

	processed := Normalize(item.Content.Text)
	fragments, err := SplitChunks(processed, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if err != nil {
		return err
	}

	// Replace the previous fragment set when the backend supports it, so
	// re-ingesting a shrunk document does not leave stale fragments behind.
	if pruner, ok := s.store.(store.SourcePruner); ok {
		if err := pruner.RemoveAllForSource(ctx, item.ID); err != nil {
			span.SetError(err)
			return fmt.Errorf("failed to prune fragments of %s: %w", item.ID, err)
		}
	}

	var errs []error
	for _, fragment := range fragments {
		embedding, err := s.embedder.GenerateEmbedding(ctx, fragment)
		if err != nil {
			errs = append(errs, fmt.Errorf("fragment of %s: %w: %w", item.ID, domain.ErrEmbeddingFailure, err))
			continue
		}

		rec := domain.MemoryRecord{
			ID:        domain.FragmentID(item.ID, fragment),
			OwnerID:   s.cfg.OwnerID,
			SourceID:  item.ID,
			Content:   domain.Content{Text: fragment},
			Embedding: embedding,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.store.CreateRecord(ctx, rec, true); err != nil {
			errs = append(errs, fmt.Errorf("fragment %s of %s: %w", rec.ID, item.ID, err))
		}
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		span.SetError(err)
		return err
	}
	return nil
}
