package service

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/loreworks/loretex/internal/domain"
	"github.com/loreworks/loretex/internal/store"
	"github.com/loreworks/loretex/internal/telemetry"
)

// RetrievalConfig holds the default search parameters.
type RetrievalConfig struct {
	// Count is the maximum number of knowledge items returned.
	Count int
	// MatchThreshold drops fragment matches whose similarity falls below it.
	// Applied here, not in the backend, so behavior is backend-agnostic.
	MatchThreshold float32
}

// DefaultRetrievalConfig provides the standard retrieval parameters.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		Count:          15,
		MatchThreshold: 0.55,
	}
}

// RetrieveOptions overrides per-call retrieval behavior.
type RetrieveOptions struct {
	// TopK overrides the configured result count when positive.
	TopK int
	// OwnerID scopes the search to one owner tag (best-effort, see store).
	OwnerID string
}

// RetrievalService resolves a free-form query to the most relevant knowledge
// items by fragment similarity.
type RetrievalService struct {
	embedder EmbeddingClient
	store    store.Store
	cfg      RetrievalConfig
}

// NewRetrievalService creates a new RetrievalService instance.
func NewRetrievalService(embedder EmbeddingClient, st store.Store, cfg RetrievalConfig) *RetrievalService {
	if cfg.Count <= 0 {
		cfg.Count = DefaultRetrievalConfig().Count
	}
	return &RetrievalService{
		embedder: embedder,
		store:    st,
		cfg:      cfg,
	}
}

// Retrieve normalizes and embeds the query, searches the fragments namespace,
// resolves fragment matches back to their parent documents, deduplicates by
// parent, and returns the results ordered by descending similarity.
//
// Retrieval fails open: an empty or whitespace-only query, an embedding
// failure, or a store failure all yield an empty result rather than an error.
// Knowledge augmentation is advisory for the surrounding application.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, opts RetrieveOptions) []domain.KnowledgeItem {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.Retrieve", telemetry.SpanAttributes{
		OwnerID:   opts.OwnerID,
		Operation: "retrieve",
	})
	defer span.End()

	processed := Normalize(query)
	if strings.TrimSpace(processed) == "" {
		return []domain.KnowledgeItem{}
	}

	count := opts.TopK
	if count <= 0 {
		count = s.cfg.Count
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, processed)
	if err != nil {
		span.SetError(err)
		log.Printf("retrieval degraded to empty result: embedding failed: %v", err)
		return []domain.KnowledgeItem{}
	}

	matches, err := s.store.SearchByEmbedding(ctx, embedding, store.SearchOptions{
		TopK:    count,
		OwnerID: opts.OwnerID,
	})
	if err != nil {
		span.SetError(err)
		log.Printf("retrieval degraded to empty result: store search failed: %v", err)
		return []domain.KnowledgeItem{}
	}

	type hit struct {
		item       domain.KnowledgeItem
		similarity float32
	}

	best := make(map[string]*hit, len(matches))
	order := make([]string, 0, len(matches))
	for _, match := range matches {
		// Malformed matches are dropped, not raised: a partial result set
		// beats aborting retrieval for one bad record.
		if match.ID == "" || match.Content.IsEmpty() {
			log.Printf("retrieval: dropping malformed match (id=%q)", match.ID)
			continue
		}
		if match.Similarity < s.cfg.MatchThreshold {
			continue
		}

		sourceID := match.SourceID
		if sourceID == "" {
			// Records without a parent link stand in for themselves.
			sourceID = match.ID
		}

		existing, ok := best[sourceID]
		if !ok {
			order = append(order, sourceID)
			best[sourceID] = &hit{
				item:       domain.KnowledgeItem{ID: sourceID, Content: match.Content},
				similarity: match.Similarity,
			}
		} else if match.Similarity > existing.similarity {
			existing.item.Content = match.Content
			existing.similarity = match.Similarity
		}
	}

	results := make([]domain.KnowledgeItem, 0, len(best))
	similarities := make(map[string]float32, len(best))
	for _, sourceID := range order {
		h := best[sourceID]
		results = append(results, h.item)
		similarities[sourceID] = h.similarity
	}
	sort.SliceStable(results, func(i, j int) bool {
		return similarities[results[i].ID] > similarities[results[j].ID]
	})

	if len(results) > count {
		results = results[:count]
	}
	return results
}
