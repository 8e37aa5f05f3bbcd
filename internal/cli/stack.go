package cli

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/loreworks/loretex/internal/config"
	"github.com/loreworks/loretex/internal/database"
	"github.com/loreworks/loretex/internal/openai"
	"github.com/loreworks/loretex/internal/service"
	"github.com/loreworks/loretex/internal/store"
	"github.com/loreworks/loretex/internal/store/memory"
	"github.com/loreworks/loretex/internal/store/postgres"
	sqlitestore "github.com/loreworks/loretex/internal/store/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	openaiapi "github.com/sashabaranov/go-openai"
)

// stack bundles the wired components shared by the serve, ingest and
// retrieve commands.
type stack struct {
	cfg      *config.Config
	store    store.Store
	embedder service.EmbeddingClient
	pool     *pgxpool.Pool // nil unless the postgres backend is active
	closers  []io.Closer
}

func (s *stack) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			log.Printf("close failed: %v", err)
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// buildStack selects and connects the store backend, applies the read-only
// wrapper when configured, and constructs the embedding client.
func buildStack(ctx context.Context, cfg *config.Config) (*stack, error) {
	s := &stack{cfg: cfg}

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("LORETEX_DATABASE_URL is required for the postgres backend")
		}
		pool, err := database.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.pool = pool
		s.store = postgres.NewStore(pool)
		log.Println("connected to database")
	case config.BackendSQLite:
		st, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		s.store = st
		s.closers = append(s.closers, closerFunc(st.Close))
	case config.BackendMemory:
		s.store = memory.NewStore()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	if cfg.StoreReadOnly {
		s.store = store.NewReadOnly(s.store)
		log.Println("store is read-only: ingestion disabled")
	}

	if cfg.HasOpenAI() {
		s.embedder = openai.NewClientWithConfig(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			EmbeddingModel:      openaiapi.EmbeddingModel(cfg.EmbeddingModel),
			EmbeddingDimensions: cfg.EmbeddingDimensions,
		})
	}

	return s, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
