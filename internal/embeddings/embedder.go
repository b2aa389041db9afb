package embeddings

import (
	"context"
	"errors"
)

// ErrModelLoad indicates the embedding model source is unavailable. The
// failure is never cached: the next call retries initialization.
var ErrModelLoad = errors.New("embedding model unavailable")

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed generates embeddings for the given texts, order-preserving and
	// same length as the input.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedOne generates the embedding for a single text.
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}

// embedOne implements EmbedOne in terms of a batch Embed call.
func embedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, errors.New("embedder returned no vector")
	}
	return vecs[0], nil
}
