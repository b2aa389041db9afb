package embeddings

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// Lazy defers construction of an Embedder until first use. Initialization is
// double-checked so concurrent first callers load the model exactly once,
// and a failed load is retried on the next call instead of being cached.
type Lazy struct {
	factory func() (Embedder, error)
	name    string
	dims    int

	mu     sync.Mutex
	loaded atomic.Pointer[loadedEmbedder]
}

type loadedEmbedder struct{ e Embedder }

// NewLazy wraps a factory. name and dims describe the model before it is
// loaded (Dimensions must be known up front so index construction can
// validate vector lengths without forcing a load).
func NewLazy(name string, dims int, factory func() (Embedder, error)) *Lazy {
	return &Lazy{factory: factory, name: name, dims: dims}
}

func (l *Lazy) Name() string    { return l.name }
func (l *Lazy) Dimensions() int { return l.dims }

func (l *Lazy) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e, err := l.get()
	if err != nil {
		return nil, err
	}
	return e.Embed(ctx, texts)
}

func (l *Lazy) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	e, err := l.get()
	if err != nil {
		return nil, err
	}
	return e.EmbedOne(ctx, text)
}

func (l *Lazy) get() (Embedder, error) {
	if le := l.loaded.Load(); le != nil {
		return le.e, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Another caller may have finished loading while we waited.
	if le := l.loaded.Load(); le != nil {
		return le.e, nil
	}

	log.Printf("embeddings: loading model %s", l.name)
	e, err := l.factory()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelLoad, l.name, err)
	}

	l.loaded.Store(&loadedEmbedder{e: e})
	return e, nil
}
