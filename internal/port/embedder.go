package port

import "context"

// Embedder generates vector embeddings for text. Implementations are
// interchangeable backends (remote API, self-hosted server, local model);
// all vectors in one index must come from a single backend so their
// dimensions agree.
type Embedder interface {
	// EmbedText generates an embedding for a single text.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// Embed generates embeddings for the given texts in one batch.
	// Returns one vector per input text, in input order, numerically
	// consistent with repeated EmbedText calls.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}
