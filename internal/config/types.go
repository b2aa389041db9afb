package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level chatbot configuration, corresponding to
// .batebot.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`

	KnowledgeDir string `yaml:"knowledge_dir" koanf:"knowledge_dir"`
	ChunkSize    int    `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap" koanf:"chunk_overlap"`

	TopK           int     `yaml:"top_k" koanf:"top_k"`
	ScoreThreshold float64 `yaml:"score_threshold" koanf:"score_threshold"`
	CacheCapacity  int     `yaml:"cache_capacity" koanf:"cache_capacity"`

	IndexPath    string `yaml:"index_path" koanf:"index_path"`
	ManifestPath string `yaml:"manifest_path" koanf:"manifest_path"`
	SessionsPath string `yaml:"sessions_path" koanf:"sessions_path"`
	AuditLogPath string `yaml:"audit_log_path" koanf:"audit_log_path"`

	ServerPort     int `yaml:"server_port" koanf:"server_port"`
	RequestsPerMin int `yaml:"requests_per_min" koanf:"requests_per_min"`
	TimeoutSeconds int `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}
