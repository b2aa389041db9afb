// Package vectorindex implements an exact inner-product similarity index
// over unit-normalized embedding vectors. Row ids are assigned in insertion
// order and stay aligned with the parallel document list; that alignment is
// the correctness-critical invariant of both the in-memory layout and the
// persisted format.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/baterms/chatbot/internal/embeddings"
	"github.com/baterms/chatbot/internal/knowledge"
)

var (
	// ErrNotInitialized is returned by Search before a successful Build or Load.
	ErrNotInitialized = errors.New("vector index not initialized")

	// ErrEmptyCorpus is returned by Build when no documents are given. The
	// caller should treat this as "initialized, zero documents", not fatal.
	ErrEmptyCorpus = errors.New("empty document corpus")

	// ErrNoEmbeddings is returned when embedding the corpus yields no vectors.
	ErrNoEmbeddings = errors.New("embedding produced no vectors")

	// ErrBuildInProgress guards against duplicate concurrent rebuilds.
	ErrBuildInProgress = errors.New("index build already in progress")
)

// State is the index lifecycle. Transitions are guarded by a single lock:
// Uninitialized -> Building -> Ready -> (Rebuilding -> Ready).
type State int32

const (
	StateUninitialized State = iota
	StateBuilding
	StateReady
	StateRebuilding
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	case StateRebuilding:
		return "rebuilding"
	default:
		return "uninitialized"
	}
}

// Result is one scored search hit. Row is the dense insertion-order id of
// the matched document.
type Result struct {
	Document knowledge.Document
	Score    float32
	Row      int
}

// snapshot is the immutable search structure. Builds produce a fresh
// snapshot and swap it in atomically, so searches never observe a
// half-built index.
type snapshot struct {
	dim     int
	vectors [][]float32
	docs    []knowledge.Document
}

// Index stores vectors and their documents and answers exact top-k
// inner-product queries. Reads are lock-free against the current snapshot;
// Build serializes writers.
type Index struct {
	embedder embeddings.Embedder
	batch    int

	// OnProgress, when set, is called after each embedded batch during
	// Build with the number of documents processed so far.
	OnProgress func(done, total int)

	mu    sync.Mutex
	state atomic.Int32
	snap  atomic.Pointer[snapshot]
}

const defaultEmbedBatch = 32

// New creates an empty index over the given embedder.
func New(embedder embeddings.Embedder) *Index {
	return &Index{embedder: embedder, batch: defaultEmbedBatch}
}

// State returns the current lifecycle state.
func (ix *Index) State() State {
	return State(ix.state.Load())
}

// Ready reports whether the index can serve searches.
func (ix *Index) Ready() bool {
	return ix.snap.Load() != nil
}

// Count returns the number of indexed documents.
func (ix *Index) Count() int {
	if s := ix.snap.Load(); s != nil {
		return len(s.docs)
	}
	return 0
}

// Dimensions returns the vector dimension of the current snapshot, or 0
// before initialization.
func (ix *Index) Dimensions() int {
	if s := ix.snap.Load(); s != nil {
		return s.dim
	}
	return 0
}

// Build embeds all documents, normalizes the vectors to unit length, and
// swaps in a new snapshot with row ids assigned in input order. A build
// while another build is running fails with ErrBuildInProgress; searches
// against the previous snapshot continue to be served.
func (ix *Index) Build(ctx context.Context, docs []knowledge.Document) error {
	ix.mu.Lock()
	switch ix.State() {
	case StateBuilding, StateRebuilding:
		ix.mu.Unlock()
		return ErrBuildInProgress
	case StateReady:
		ix.state.Store(int32(StateRebuilding))
	default:
		ix.state.Store(int32(StateBuilding))
	}
	defer ix.mu.Unlock()

	snap, err := ix.build(ctx, docs)
	if err != nil {
		// Roll back: a failed rebuild keeps the old snapshot serving.
		if ix.snap.Load() != nil {
			ix.state.Store(int32(StateReady))
		} else {
			ix.state.Store(int32(StateUninitialized))
		}
		return err
	}

	ix.snap.Store(snap)
	ix.state.Store(int32(StateReady))
	log.Printf("vectorindex: built index with %d documents (dim=%d)", len(snap.docs), snap.dim)
	return nil
}

func (ix *Index) build(ctx context.Context, docs []knowledge.Document) (*snapshot, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}

	vectors := make([][]float32, 0, len(docs))
	for start := 0; start < len(texts); start += ix.batch {
		end := start + ix.batch
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := ix.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding corpus: %w", err)
		}
		vectors = append(vectors, batch...)
		if ix.OnProgress != nil {
			ix.OnProgress(end, len(texts))
		}
	}

	if len(vectors) == 0 {
		return nil, ErrNoEmbeddings
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, index dimension is %d", i, len(v), dim)
		}
		normalize(v)
	}

	return &snapshot{dim: dim, vectors: vectors, docs: docs}, nil
}

// Search embeds the query, scores it against every stored vector by inner
// product, and returns the top k results by descending score with ties
// broken by lower row id. Results scoring below threshold are dropped after
// ranking, so fewer than k (possibly zero) results may be returned.
func (ix *Index) Search(ctx context.Context, query string, k int, threshold float32) ([]Result, error) {
	snap := ix.snap.Load()
	if snap == nil {
		return nil, ErrNotInitialized
	}
	if k <= 0 {
		return nil, nil
	}

	qv, err := ix.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(qv) != snap.dim {
		return nil, fmt.Errorf("query vector dimension %d does not match index dimension %d", len(qv), snap.dim)
	}
	normalize(qv)

	results := make([]Result, len(snap.docs))
	for row, v := range snap.vectors {
		results[row] = Result{Document: snap.docs[row], Score: dot(qv, v), Row: row}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Row < results[j].Row
	})

	if k > len(results) {
		k = len(results)
	}
	results = results[:k]

	filtered := results[:0]
	for _, r := range results {
		if r.Score >= threshold {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// normalize scales v to unit length in place. Zero vectors are left as-is.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
