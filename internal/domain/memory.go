package domain

import (
	"time"

	"github.com/google/uuid"
)

// fragmentNamespace is the UUID namespace for deterministic fragment IDs.
// Changing it invalidates every previously derived fragment ID.
var fragmentNamespace = uuid.MustParse("9c0a5f3e-6b1d-4a8f-92c4-7d1e0b6f5a21")

// MemoryRecord is the stored view of a document or fragment. Parent documents
// carry a zero-vector embedding and an empty SourceID; fragments carry a real
// embedding and link back to their parent via SourceID.
type MemoryRecord struct {
	ID        string
	OwnerID   string
	SourceID  string
	Content   Content
	Embedding []float32
	CreatedAt time.Time

	// Similarity is populated on search results only. The exact metric is
	// backend-defined; higher means closer.
	Similarity float32
}

// FragmentID derives the deterministic ID for a fragment from its parent
// document ID and the fragment text. Equal inputs always produce the same ID,
// which makes fragment writes idempotent upserts.
func FragmentID(parentID, text string) string {
	return uuid.NewSHA1(fragmentNamespace, []byte(parentID+text)).String()
}

// ZeroVector returns the placeholder embedding used for records that are
// stored for lookup by ID but never matched by similarity search.
func ZeroVector(dim int) []float32 {
	if dim <= 0 {
		return nil
	}
	return make([]float32, dim)
}

// IsZeroVector reports whether an embedding is the stored-only placeholder.
func IsZeroVector(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}
