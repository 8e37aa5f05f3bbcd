// Package memory provides the in-memory reference implementation of the
// knowledge store contract, using brute-force cosine similarity.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/loreworks/loretex/internal/domain"
	"github.com/loreworks/loretex/internal/store"
)

// Store keeps documents and fragments in two maps guarded by one mutex.
type Store struct {
	mu        sync.RWMutex
	documents map[string]domain.MemoryRecord
	fragments map[string]domain.MemoryRecord
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		documents: make(map[string]domain.MemoryRecord),
		fragments: make(map[string]domain.MemoryRecord),
	}
}

func (s *Store) namespace(fragment bool) map[string]domain.MemoryRecord {
	if fragment {
		return s.fragments
	}
	return s.documents
}

// CreateRecord upserts a record; same ID overwrites, never duplicates.
func (s *Store) CreateRecord(_ context.Context, rec domain.MemoryRecord, fragment bool) error {
	if rec.ID == "" {
		return domain.ErrMissingRequiredField
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.namespace(fragment)[rec.ID] = rec
	return nil
}

// SearchByEmbedding scans every fragment and returns the topK by cosine
// similarity, honoring the optional owner filter.
func (s *Store) SearchByEmbedding(_ context.Context, embedding []float32, opts store.SearchOptions) ([]domain.MemoryRecord, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]domain.MemoryRecord, 0, len(s.fragments))
	for _, rec := range s.fragments {
		if opts.OwnerID != "" && rec.OwnerID != opts.OwnerID {
			continue
		}
		rec.Similarity = cosineSimilarity(embedding, rec.Embedding)
		matches = append(matches, rec)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// GetByID fetches a record from the requested namespace.
func (s *Store) GetByID(_ context.Context, id string, fragment bool) (*domain.MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.namespace(fragment)[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &rec, nil
}

// RemoveByID deletes a record; deleting an absent ID is a no-op.
func (s *Store) RemoveByID(_ context.Context, id string, fragment bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespace(fragment), id)
	return nil
}

// RemoveAllForOwner deletes every document and fragment tagged with ownerID.
func (s *Store) RemoveAllForOwner(_ context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.documents {
		if rec.OwnerID == ownerID {
			delete(s.documents, id)
		}
	}
	for id, rec := range s.fragments {
		if rec.OwnerID == ownerID {
			delete(s.fragments, id)
		}
	}
	return nil
}

// RemoveAllForSource deletes the fragment set of one parent document.
func (s *Store) RemoveAllForSource(_ context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.fragments {
		if rec.SourceID == sourceID {
			delete(s.fragments, id)
		}
	}
	return nil
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
