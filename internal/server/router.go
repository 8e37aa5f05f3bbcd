package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loreworks/loretex/internal/api"
	"github.com/loreworks/loretex/internal/api/handlers"
	"github.com/loreworks/loretex/internal/api/middleware"
)

type RouterConfig struct {
	// APIToken guards everything except /health; empty disables auth.
	APIToken         string
	KnowledgeHandler *handlers.KnowledgeHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.APIToken))

		r.Route("/knowledge", func(r chi.Router) {
			r.Post("/", cfg.KnowledgeHandler.Ingest)
			r.Get("/{id}", cfg.KnowledgeHandler.Get)
			r.Delete("/{id}", cfg.KnowledgeHandler.Delete)
		})

		r.Post("/retrieve", cfg.KnowledgeHandler.Retrieve)
		r.Get("/jobs/{id}", cfg.KnowledgeHandler.GetJob)
	})

	return r
}
