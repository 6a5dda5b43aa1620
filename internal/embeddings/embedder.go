package embeddings

import "context"

// Embedder defines the interface for generating text embeddings. An
// embedder is constructed once per run, shared by reference, and released
// with Close when the sync or query session ends.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string

	// Close releases any provider connections or model handles.
	Close() error
}
