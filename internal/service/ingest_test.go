package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/loreworks/loretex/internal/domain"
	"github.com/loreworks/loretex/internal/store"
)

// MockEmbeddingClient is a mock implementation of EmbeddingClient
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbeddingClient) Dimensions() int {
	args := m.Called()
	return args.Int(0)
}

// MockStore is a mock implementation of store.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateRecord(ctx context.Context, rec domain.MemoryRecord, fragment bool) error {
	args := m.Called(ctx, rec, fragment)
	return args.Error(0)
}

func (m *MockStore) SearchByEmbedding(ctx context.Context, embedding []float32, opts store.SearchOptions) ([]domain.MemoryRecord, error) {
	args := m.Called(ctx, embedding, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MemoryRecord), args.Error(1)
}

func (m *MockStore) GetByID(ctx context.Context, id string, fragment bool) (*domain.MemoryRecord, error) {
	args := m.Called(ctx, id, fragment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MemoryRecord), args.Error(1)
}

func (m *MockStore) RemoveByID(ctx context.Context, id string, fragment bool) error {
	args := m.Called(ctx, id, fragment)
	return args.Error(0)
}

func (m *MockStore) RemoveAllForOwner(ctx context.Context, ownerID string) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

// MockPruningStore also implements store.SourcePruner
type MockPruningStore struct {
	MockStore
}

func (m *MockPruningStore) RemoveAllForSource(ctx context.Context, sourceID string) error {
	args := m.Called(ctx, sourceID)
	return args.Error(0)
}

func TestIngestValidation(t *testing.T) {
	embedder := new(MockEmbeddingClient)
	st := new(MockStore)
	svc := NewIngestService(embedder, st, IngestConfig{OwnerID: "owner"})

	err := svc.Ingest(context.Background(), domain.KnowledgeItem{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingRequiredField))
	st.AssertNotCalled(t, "CreateRecord", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestWritesParentWithZeroVector(t *testing.T) {
	embedder := new(MockEmbeddingClient)
	st := new(MockStore)

	embedder.On("Dimensions").Return(4)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1, 0, 0, 0}, nil)

	var parent domain.MemoryRecord
	st.On("CreateRecord", mock.Anything, mock.MatchedBy(func(rec domain.MemoryRecord) bool {
		return rec.ID == "doc-1"
	}), false).Run(func(args mock.Arguments) {
		parent = args.Get(1).(domain.MemoryRecord)
	}).Return(nil)
	st.On("CreateRecord", mock.Anything, mock.Anything, true).Return(nil)

	svc := NewIngestService(embedder, st, IngestConfig{OwnerID: "owner"})
	item := domain.NewKnowledgeItem("doc-1", "Some Document Text")
	require.NoError(t, svc.Ingest(context.Background(), item))

	assert.Equal(t, "owner", parent.OwnerID)
	assert.Empty(t, parent.SourceID)
	assert.True(t, domain.IsZeroVector(parent.Embedding))
	assert.Len(t, parent.Embedding, 4)
	// parent keeps the original, un-normalized content
	assert.Equal(t, "Some Document Text", parent.Content.Text)
}

func TestIngestFragments(t *testing.T) {
	embedder := new(MockEmbeddingClient)
	st := new(MockStore)

	embedder.On("Dimensions").Return(4)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1, 0, 0, 0}, nil)

	st.On("CreateRecord", mock.Anything, mock.Anything, false).Return(nil)

	var fragments []domain.MemoryRecord
	st.On("CreateRecord", mock.Anything, mock.Anything, true).Run(func(args mock.Arguments) {
		fragments = append(fragments, args.Get(1).(domain.MemoryRecord))
	}).Return(nil)

	// 12 words with chunk size 8 / overlap 2 gives two fragments
	text := strings.Repeat("alpha beta gamma delta ", 3)
	svc := NewIngestService(embedder, st, IngestConfig{OwnerID: "owner", ChunkSize: 8, ChunkOverlap: 2})
	require.NoError(t, svc.Ingest(context.Background(), domain.NewKnowledgeItem("doc-1", text)))

	require.Len(t, fragments, 2)
	for _, frag := range fragments {
		assert.Equal(t, "doc-1", frag.SourceID)
		assert.Equal(t, "owner", frag.OwnerID)
		assert.Equal(t, domain.FragmentID("doc-1", frag.Content.Text), frag.ID)
		assert.False(t, domain.IsZeroVector(frag.Embedding))
	}
}

func TestIngestParentWriteFailureAborts(t *testing.T) {
	embedder := new(MockEmbeddingClient)
	st := new(MockStore)

	embedder.On("Dimensions").Return(4)
	st.On("CreateRecord", mock.Anything, mock.Anything, false).
		Return(domain.ErrWriteRejected)

	svc := NewIngestService(embedder, st, IngestConfig{OwnerID: "owner"})
	err := svc.Ingest(context.Background(), domain.NewKnowledgeItem("doc-1", "some text"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrWriteRejected))
	embedder.AssertNotCalled(t, "GenerateEmbedding", mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "CreateRecord", mock.Anything, mock.Anything, true)
}

func TestIngestEmbeddingFailureSkipsFragment(t *testing.T) {
	embedder := new(MockEmbeddingClient)
	st := new(MockStore)

	embedder.On("Dimensions").Return(4)
	// first fragment fails to embed, second succeeds
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).
		Return(nil, errors.New("rate limited")).Once()
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).
		Return([]float32{1, 0, 0, 0}, nil)

	st.On("CreateRecord", mock.Anything, mock.Anything, false).Return(nil)

	var written int
	st.On("CreateRecord", mock.Anything, mock.Anything, true).Run(func(mock.Arguments) {
		written++
	}).Return(nil)

	text := strings.Repeat("alpha beta gamma delta ", 3)
	svc := NewIngestService(embedder, st, IngestConfig{OwnerID: "owner", ChunkSize: 8, ChunkOverlap: 2})
	err := svc.Ingest(context.Background(), domain.NewKnowledgeItem("doc-1", text))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbeddingFailure))
	assert.Equal(t, 1, written, "surviving fragments must still be written")
}

func TestIngestPrunesStaleFragments(t *testing.T) {
	embedder := new(MockEmbeddingClient)
	st := new(MockPruningStore)

	embedder.On("Dimensions").Return(4)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1, 0, 0, 0}, nil)
	st.On("CreateRecord", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	st.On("RemoveAllForSource", mock.Anything, "doc-1").Return(nil)

	svc := NewIngestService(embedder, st, IngestConfig{OwnerID: "owner"})
	require.NoError(t, svc.Ingest(context.Background(), domain.NewKnowledgeItem("doc-1", "some text")))

	st.AssertCalled(t, "RemoveAllForSource", mock.Anything, "doc-1")
}
