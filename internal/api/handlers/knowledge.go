package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/loreworks/loretex/internal/api"
	"github.com/loreworks/loretex/internal/domain"
	"github.com/loreworks/loretex/internal/service"
	"github.com/loreworks/loretex/internal/store"
)

type Ingestor interface {
	Ingest(ctx context.Context, item domain.KnowledgeItem) error
}

type Retriever interface {
	Retrieve(ctx context.Context, query string, opts service.RetrieveOptions) []domain.KnowledgeItem
}

// JobQueue enqueues ingestion work for the background worker. Nil when the
// deployment runs without Postgres-backed jobs; ingestion is then synchronous.
type JobQueue interface {
	Create(ctx context.Context, job *domain.IngestJob) error
	GetByID(ctx context.Context, id string) (*domain.IngestJob, error)
}

type KnowledgeHandler struct {
	ingestor  Ingestor
	retriever Retriever
	store     store.Store
	queue     JobQueue
}

func NewKnowledgeHandler(ingestor Ingestor, retriever Retriever, st store.Store, queue JobQueue) *KnowledgeHandler {
	return &KnowledgeHandler{
		ingestor:  ingestor,
		retriever: retriever,
		store:     st,
		queue:     queue,
	}
}

type IngestRequest struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Title    string `json:"title"`
	Source   string `json:"source"`
	Category string `json:"category"`
	Date     string `json:"date"`
	// Async enqueues the item for the background worker instead of
	// ingesting inline. Requires the job queue to be configured.
	Async bool `json:"async"`
}

type IngestResponse struct {
	ID    string `json:"id"`
	JobID string `json:"job_id,omitempty"`
}

type RetrieveRequest struct {
	Query   string `json:"query"`
	Count   int    `json:"count"`
	OwnerID string `json:"owner_id"`
}

type KnowledgeItemResponse struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Title    string `json:"title,omitempty"`
	Source   string `json:"source,omitempty"`
	Category string `json:"category,omitempty"`
	Date     string `json:"date,omitempty"`
}

type RetrieveResponse struct {
	Items []KnowledgeItemResponse `json:"items"`
}

type JobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func itemToResponse(item domain.KnowledgeItem) KnowledgeItemResponse {
	return KnowledgeItemResponse{
		ID:       item.ID,
		Text:     item.Content.Text,
		Title:    item.Content.Title,
		Source:   item.Content.Source,
		Category: item.Content.Category,
		Date:     item.Content.Date,
	}
}

func (h *KnowledgeHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Text == "" {
		api.Error(w, http.StatusBadRequest, "text is required")
		return
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	item := domain.KnowledgeItem{
		ID: req.ID,
		Content: domain.Content{
			Text:     req.Text,
			Title:    req.Title,
			Source:   req.Source,
			Category: req.Category,
			Date:     req.Date,
		},
	}
	if err := domain.ValidateKnowledgeItem(item); err != nil {
		api.HandleError(w, err)
		return
	}

	if req.Async {
		if h.queue == nil {
			api.Error(w, http.StatusBadRequest, "async ingestion not available: job queue requires the postgres backend")
			return
		}

		job := domain.NewIngestJob(uuid.NewString(), item)
		if err := h.queue.Create(r.Context(), job); err != nil {
			api.HandleError(w, err)
			return
		}
		api.Success(w, http.StatusAccepted, IngestResponse{ID: item.ID, JobID: job.ID})
		return
	}

	if err := h.ingestor.Ingest(r.Context(), item); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, IngestResponse{ID: item.ID})
}

func (h *KnowledgeHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := h.retriever.Retrieve(r.Context(), req.Query, service.RetrieveOptions{
		TopK:    req.Count,
		OwnerID: req.OwnerID,
	})

	resp := RetrieveResponse{Items: make([]KnowledgeItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, itemToResponse(item))
	}

	api.Success(w, http.StatusOK, resp)
}

func (h *KnowledgeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	rec, err := h.store.GetByID(r.Context(), id, false)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, itemToResponse(domain.KnowledgeItem{
		ID:      rec.ID,
		Content: rec.Content,
	}))
}

func (h *KnowledgeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if _, err := h.store.GetByID(r.Context(), id, false); err != nil {
		api.HandleError(w, err)
		return
	}

	// Fragments first, so a failure midway never leaves orphans pointing
	// at a missing parent.
	if pruner, ok := h.store.(store.SourcePruner); ok {
		if err := pruner.RemoveAllForSource(r.Context(), id); err != nil {
			api.HandleError(w, err)
			return
		}
	}
	if err := h.store.RemoveByID(r.Context(), id, false); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (h *KnowledgeHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		api.Error(w, http.StatusNotFound, "job queue not configured")
		return
	}

	id := chi.URLParam(r, "id")
	job, err := h.queue.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			api.Error(w, http.StatusNotFound, "job not found")
			return
		}
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, JobResponse{
		ID:     job.ID,
		Status: string(job.Status),
		Error:  job.Error,
	})
}
