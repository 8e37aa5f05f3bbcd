package service

import "context"

// EmbeddingClient defines the interface for generating embeddings. The
// orchestrators never compute embeddings themselves; they only sequence calls
// to this external collaborator.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// Dimensions reports the fixed vector length of this deployment's model,
	// used to build the zero-vector placeholder for parent documents.
	Dimensions() int
}
