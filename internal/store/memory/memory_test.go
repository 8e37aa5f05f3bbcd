package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loreworks/loretex/internal/domain"
	"github.com/loreworks/loretex/internal/store"
)

func record(id, owner, source string, embedding []float32) domain.MemoryRecord {
	return domain.MemoryRecord{
		ID:        id,
		OwnerID:   owner,
		SourceID:  source,
		Content:   domain.Content{Text: "text of " + id},
		Embedding: embedding,
	}
}

func TestCreateRecordRequiresID(t *testing.T) {
	s := NewStore()
	err := s.CreateRecord(context.Background(), domain.MemoryRecord{}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingRequiredField))
}

func TestCreateAndGet(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	doc := record("doc-1", "owner", "", []float32{0, 0})
	require.NoError(t, s.CreateRecord(ctx, doc, false))

	got, err := s.GetByID(ctx, "doc-1", false)
	require.NoError(t, err)
	assert.Equal(t, doc.Content, got.Content)

	// namespaces are separate
	_, err = s.GetByID(ctx, "doc-1", true)
	assert.True(t, errors.Is(err, domain.ErrRecordNotFound))
}

func TestUpsertOverwrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.CreateRecord(ctx, record("doc-1", "owner", "", nil), false))
	updated := record("doc-1", "owner", "", nil)
	updated.Content.Text = "updated text"
	require.NoError(t, s.CreateRecord(ctx, updated, false))

	got, err := s.GetByID(ctx, "doc-1", false)
	require.NoError(t, err)
	assert.Equal(t, "updated text", got.Content.Text)
}

func TestSearchByEmbedding(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.CreateRecord(ctx, record("f1", "owner", "doc-1", []float32{1, 0}), true))
	require.NoError(t, s.CreateRecord(ctx, record("f2", "owner", "doc-1", []float32{0, 1}), true))
	require.NoError(t, s.CreateRecord(ctx, record("f3", "owner", "doc-2", []float32{0.9, 0.1}), true))

	matches, err := s.SearchByEmbedding(ctx, []float32{1, 0}, store.SearchOptions{TopK: 2})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "f1", matches[0].ID)
	assert.Equal(t, "f3", matches[1].ID)
	assert.Greater(t, matches[0].Similarity, matches[1].Similarity)
}

func TestSearchOwnerFilter(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.CreateRecord(ctx, record("f1", "alice", "doc-1", []float32{1, 0}), true))
	require.NoError(t, s.CreateRecord(ctx, record("f2", "bob", "doc-2", []float32{1, 0}), true))

	matches, err := s.SearchByEmbedding(ctx, []float32{1, 0}, store.SearchOptions{TopK: 10, OwnerID: "alice"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "f1", matches[0].ID)
}

func TestSearchIgnoresDocuments(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.CreateRecord(ctx, record("doc-1", "owner", "", []float32{1, 0}), false))

	matches, err := s.SearchByEmbedding(ctx, []float32{1, 0}, store.SearchOptions{TopK: 10})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRemoveByID(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.CreateRecord(ctx, record("doc-1", "owner", "", nil), false))
	require.NoError(t, s.RemoveByID(ctx, "doc-1", false))

	_, err := s.GetByID(ctx, "doc-1", false)
	assert.True(t, errors.Is(err, domain.ErrRecordNotFound))

	// absent ID is a no-op
	assert.NoError(t, s.RemoveByID(ctx, "doc-1", false))
}

func TestRemoveAllForOwner(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.CreateRecord(ctx, record("doc-1", "alice", "", nil), false))
	require.NoError(t, s.CreateRecord(ctx, record("f1", "alice", "doc-1", []float32{1}), true))
	require.NoError(t, s.CreateRecord(ctx, record("doc-2", "bob", "", nil), false))

	require.NoError(t, s.RemoveAllForOwner(ctx, "alice"))

	_, err := s.GetByID(ctx, "doc-1", false)
	assert.True(t, errors.Is(err, domain.ErrRecordNotFound))
	_, err = s.GetByID(ctx, "f1", true)
	assert.True(t, errors.Is(err, domain.ErrRecordNotFound))

	_, err = s.GetByID(ctx, "doc-2", false)
	assert.NoError(t, err)
}

func TestRemoveAllForSource(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.CreateRecord(ctx, record("f1", "owner", "doc-1", []float32{1}), true))
	require.NoError(t, s.CreateRecord(ctx, record("f2", "owner", "doc-1", []float32{1}), true))
	require.NoError(t, s.CreateRecord(ctx, record("f3", "owner", "doc-2", []float32{1}), true))

	require.NoError(t, s.RemoveAllForSource(ctx, "doc-1"))

	_, err := s.GetByID(ctx, "f1", true)
	assert.True(t, errors.Is(err, domain.ErrRecordNotFound))
	_, err = s.GetByID(ctx, "f3", true)
	assert.NoError(t, err)
}
