// Package engine coordinates the chat pipeline: it owns the vector index,
// the search cache, the session store, and the five-stage workflow, and
// exposes the single ProcessMessage entry point the CLI and server share.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/baterms/chatbot/internal/chunker"
	"github.com/baterms/chatbot/internal/history"
	"github.com/baterms/chatbot/internal/knowledge"
	"github.com/baterms/chatbot/internal/language"
	"github.com/baterms/chatbot/internal/llm"
	"github.com/baterms/chatbot/internal/session"
	"github.com/baterms/chatbot/internal/vectorindex"
	"github.com/baterms/chatbot/internal/workflow"
)

// ErrEmptyInput is returned when the incoming message is empty or
// whitespace-only. It is the only validation the engine rejects outright.
var ErrEmptyInput = errors.New("empty message")

// Request is one incoming chat message. Language and SessionID are
// optional: a missing language is detected from the message, a missing
// session id starts a new session.
type Request struct {
	Message   string
	Language  string
	SessionID string
}

// Response is the completed chat turn. Status is "success" when the
// pipeline produced a reply and "error" when the canned apology was
// substituted.
type Response struct {
	Response  string            `json:"response"`
	Language  string            `json:"language"`
	SessionID string            `json:"session_id"`
	Status    string            `json:"status"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Stats is a point-in-time operational summary.
type Stats struct {
	Queries      int64   `json:"queries"`
	Errors       int64   `json:"errors"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	IndexState   string  `json:"index_state"`
	IndexCount   int     `json:"index_count"`
	CacheEntries int     `json:"cache_entries"`
}

// Options wires the engine's dependencies. Loader, Splitter, Index, and
// Sessions are required; Provider may be nil for retrieval-only use.
type Options struct {
	Loader   *knowledge.Loader
	Splitter *chunker.Splitter
	Index    *vectorindex.Index
	Cache    *vectorindex.SearchCache
	Provider llm.Provider
	Model    string
	Sessions session.Store
	Audit    *history.Log

	TopK           int
	ScoreThreshold float32
	SystemPrompt   string

	// Persistence locations for the index artifacts. Empty disables
	// persistence.
	IndexPath    string
	ManifestPath string
}

// Engine is the long-lived coordinator. One Engine serves all sessions;
// turns sharing a session id are serialized, turns on distinct sessions
// run concurrently.
type Engine struct {
	opts     Options
	pipeline *workflow.Pipeline

	locks sync.Map // session id -> *sync.Mutex

	mu           sync.Mutex
	queries      int64
	errors       int64
	totalLatency time.Duration
}

// New assembles the engine and its pipeline. It does not touch the index;
// call Bootstrap or RefreshKnowledge before serving traffic.
func New(opts Options) *Engine {
	e := &Engine{opts: opts}
	e.pipeline = workflow.NewPipeline(
		workflow.RoleAnalyzer{},
		&workflow.QueryDecomposer{Provider: opts.Provider, Model: opts.Model},
		&workflow.ContextRetriever{
			Index:     opts.Index,
			Cache:     opts.Cache,
			K:         opts.TopK,
			Threshold: opts.ScoreThreshold,
		},
		&workflow.ResponseGenerator{Provider: opts.Provider, Model: opts.Model},
		&workflow.MemoryUpdater{Audit: opts.Audit},
	)
	return e
}

// Bootstrap makes the index ready: it loads persisted artifacts when
// present and otherwise builds from the knowledge corpus.
func (e *Engine) Bootstrap(ctx context.Context) error {
	if e.opts.IndexPath != "" {
		loaded, err := e.opts.Index.Load(e.opts.IndexPath, e.opts.ManifestPath)
		if err != nil {
			return fmt.Errorf("loading persisted index: %w", err)
		}
		if loaded {
			log.Printf("engine: loaded persisted index (%d documents)", e.opts.Index.Count())
			return nil
		}
	}
	return e.RefreshKnowledge(ctx)
}

// RefreshKnowledge reloads the corpus, rebuilds the index, purges the
// search cache, and persists the new artifacts. Searches keep serving the
// old snapshot for the duration of the rebuild.
func (e *Engine) RefreshKnowledge(ctx context.Context) error {
	docs, err := e.opts.Loader.LoadCorpus()
	if err != nil {
		return fmt.Errorf("loading knowledge corpus: %w", err)
	}
	chunks := e.opts.Splitter.SplitDocuments(docs)
	log.Printf("engine: rebuilding index from %d documents (%d chunks)", len(docs), len(chunks))

	if err := e.opts.Index.Build(ctx, chunks); err != nil {
		return fmt.Errorf("building index: %w", err)
	}
	if e.opts.Cache != nil {
		e.opts.Cache.Purge()
	}
	if e.opts.IndexPath != "" {
		if err := e.opts.Index.Persist(e.opts.IndexPath, e.opts.ManifestPath); err != nil {
			return fmt.Errorf("persisting index: %w", err)
		}
	}
	return nil
}

// Ready reports whether the index can serve searches.
func (e *Engine) Ready() bool {
	return e.opts.Index.Ready()
}

// ProcessMessage runs one chat turn end to end. It never returns an error
// for pipeline failures: those degrade to the per-language apology with
// Status "error". The only hard rejection is ErrEmptyInput.
func (e *Engine) ProcessMessage(ctx context.Context, req Request) (Response, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Response{}, ErrEmptyInput
	}

	lang := e.resolveLanguage(req.Language, message)
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	unlock := e.lockSession(sessionID)
	defer unlock()

	start := time.Now()

	state := workflow.NewChatState(message, lang)
	state.SystemPrompt = e.opts.SystemPrompt
	state.Metadata[workflow.MetaSessionID] = sessionID

	if snap, ok, err := e.opts.Sessions.Load(ctx, sessionID); err != nil {
		log.Printf("engine: loading session %s: %v", sessionID, err)
	} else if ok {
		state.History = snap.History
	}

	resp := Response{Language: lang, SessionID: sessionID, Status: "success"}

	if err := e.pipeline.Run(ctx, state); err != nil {
		log.Printf("engine: pipeline failed for session %s: %v", sessionID, err)
		e.record(time.Since(start), true)
		resp.Response = language.Apology(lang)
		resp.Status = "error"
		resp.Metadata = state.Metadata
		return resp, nil
	}

	if err := e.opts.Sessions.Save(ctx, session.Snapshot{
		SessionID: sessionID,
		Language:  lang,
		History:   state.History,
	}); err != nil {
		log.Printf("engine: saving session %s: %v", sessionID, err)
	}

	e.record(time.Since(start), false)
	resp.Response = state.Response
	resp.Metadata = state.Metadata
	return resp, nil
}

// Stats returns the engine's operational counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	queries, errCount, total := e.queries, e.errors, e.totalLatency
	e.mu.Unlock()

	s := Stats{
		Queries:    queries,
		Errors:     errCount,
		IndexState: e.opts.Index.State().String(),
		IndexCount: e.opts.Index.Count(),
	}
	if queries > 0 {
		s.AvgLatencyMs = float64(total.Milliseconds()) / float64(queries)
	}
	if e.opts.Cache != nil {
		s.CacheEntries = e.opts.Cache.Len()
	}
	return s
}

// Close releases the engine's owned resources.
func (e *Engine) Close() error {
	var first error
	if e.opts.Sessions != nil {
		if err := e.opts.Sessions.Close(); err != nil {
			first = err
		}
	}
	if e.opts.Audit != nil {
		if err := e.opts.Audit.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// resolveLanguage picks the turn language: an explicit supported code wins,
// an explicit unsupported code falls back to the default with a warning,
// and a missing code is detected from the message.
func (e *Engine) resolveLanguage(requested, message string) string {
	if requested != "" {
		if language.Supported(requested) {
			return requested
		}
		log.Printf("engine: unsupported language %q, falling back to %s", requested, language.Default)
		return language.Default
	}
	return language.Detect(message)
}

// lockSession serializes turns that share a session id. The mutex map
// grows with distinct session ids; entries are tiny and sessions are
// bounded by real traffic, so there is no eviction.
func (e *Engine) lockSession(id string) func() {
	v, _ := e.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (e *Engine) record(latency time.Duration, failed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queries++
	e.totalLatency += latency
	if failed {
		e.errors++
	}
}
