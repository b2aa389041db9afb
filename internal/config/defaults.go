package config

// DefaultConfigFile is the conventional config file name.
const DefaultConfigFile = ".batebot.yml"

// defaultModels maps each provider to its default chat and embedding models.
var defaultModels = map[ProviderType]struct {
	Model          string
	EmbeddingModel string
}{
	ProviderOpenAI: {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
	ProviderOllama: {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o-mini",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",

		KnowledgeDir: "knowledge",
		ChunkSize:    1000,
		ChunkOverlap: 200,

		TopK:           5,
		ScoreThreshold: 0.3,
		CacheCapacity:  512,

		IndexPath:    "data/index.bvec",
		ManifestPath: "data/manifest.json",
		SessionsPath: "data/sessions.db",
		AuditLogPath: "data/chat_audit.jsonl",

		ServerPort:     8080,
		RequestsPerMin: 60,
		TimeoutSeconds: 60,
	}
}

// DefaultModels returns the default chat and embedding models for a
// provider, falling back to the OpenAI defaults.
func DefaultModels(provider ProviderType) (model, embeddingModel string) {
	if m, ok := defaultModels[provider]; ok {
		return m.Model, m.EmbeddingModel
	}
	m := defaultModels[ProviderOpenAI]
	return m.Model, m.EmbeddingModel
}
