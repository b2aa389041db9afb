package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/baterms/chatbot/internal/chunker"
	"github.com/baterms/chatbot/internal/config"
	"github.com/baterms/chatbot/internal/embeddings"
	"github.com/baterms/chatbot/internal/engine"
	"github.com/baterms/chatbot/internal/history"
	"github.com/baterms/chatbot/internal/knowledge"
	"github.com/baterms/chatbot/internal/llm"
	"github.com/baterms/chatbot/internal/session"
	"github.com/baterms/chatbot/internal/vectorindex"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `batebot init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates a lazily-initialized embedder based on
// config. The model is not contacted until the first embedding call, so
// commands that never search (init, version) pay nothing for it.
func createEmbedderFromConfig(cfg *config.Config) embeddings.Embedder {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel
	if model == "" {
		_, model = config.DefaultModels(provider)
	}

	switch provider {
	case config.ProviderOllama:
		return embeddings.NewLazy("ollama/"+model, 768, func() (embeddings.Embedder, error) {
			return embeddings.NewOllamaEmbedder(model, 768, os.Getenv("OLLAMA_HOST")), nil
		})
	default:
		openaiModel := embeddings.OpenAIModel(model)
		return embeddings.NewLazy(model, openaiModel.Dimensions(), func() (embeddings.Embedder, error) {
			apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
			if apiKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
			}
			return embeddings.NewOpenAIEmbedder(apiKey, openaiModel), nil
		})
	}
}

// createProviderFromConfig creates the LLM provider, wrapped with the
// configured rate limit and per-request timeout.
func createProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.RequestsPerMin > 0 || cfg.TimeoutSeconds > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RequestsPerMin,
			time.Duration(cfg.TimeoutSeconds)*time.Second)
	}
	return provider, nil
}

// buildEngine wires the full engine from config: knowledge loader, chunker,
// index, cache, LLM provider, session store, and audit log.
func buildEngine(cfg *config.Config) (*engine.Engine, error) {
	provider, err := createProviderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	sessions, err := session.OpenSQLite(cfg.SessionsPath)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	var audit *history.Log
	if cfg.AuditLogPath != "" {
		if audit, err = history.Open(cfg.AuditLogPath); err != nil {
			sessions.Close()
			return nil, fmt.Errorf("opening audit log: %w", err)
		}
	}

	var cache *vectorindex.SearchCache
	if cfg.CacheCapacity > 0 {
		cache = vectorindex.NewSearchCache(cfg.CacheCapacity)
	}

	return engine.New(engine.Options{
		Loader:         knowledge.NewLoader(cfg.KnowledgeDir),
		Splitter:       chunker.New(cfg.ChunkSize, cfg.ChunkOverlap),
		Index:          vectorindex.New(createEmbedderFromConfig(cfg)),
		Cache:          cache,
		Provider:       provider,
		Model:          cfg.Model,
		Sessions:       sessions,
		Audit:          audit,
		TopK:           cfg.TopK,
		ScoreThreshold: float32(cfg.ScoreThreshold),
		IndexPath:      cfg.IndexPath,
		ManifestPath:   cfg.ManifestPath,
	}), nil
}
