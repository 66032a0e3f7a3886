package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOpenAI is OpenAI cloud API or a compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderAnthropic is the Anthropic Messages API. LLM only.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGemini, AIProviderOpenAI, AIProviderOllama, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// SupportsEmbeddings returns true if the provider offers an embeddings API.
func (p AIProvider) SupportsEmbeddings() bool {
	return p.IsValid() && p != AIProviderAnthropic
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderGemini || p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderAnthropic:
		return "Anthropic Claude (cloud, LLM only)"
	default:
		return unknownDescription
	}
}

// VectorBackend identifies where index entries are stored.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendMemory keeps entries in process memory.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendSQLite persists entries in the local SQLite database.
	VectorBackendSQLite VectorBackend = "sqlite"

	// VectorBackendRedis stores entries in Redis hashes.
	VectorBackendRedis VectorBackend = "redis"

	// VectorBackendElasticsearch stores entries in dense_vector indices.
	VectorBackendElasticsearch VectorBackend = "elasticsearch"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendSQLite, VectorBackendRedis, VectorBackendElasticsearch:
		return true
	default:
		return false
	}
}

// IsPersistent returns true if entries survive a restart.
func (b VectorBackend) IsPersistent() bool {
	return b != VectorBackendMemory
}

// Description returns a human-readable description of the backend.
func (b VectorBackend) Description() string {
	switch b {
	case VectorBackendMemory:
		return "In-memory (per process)"
	case VectorBackendSQLite:
		return "SQLite (local file)"
	case VectorBackendRedis:
		return "Redis"
	case VectorBackendElasticsearch:
		return "Elasticsearch"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama and OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for Gemini and OpenAI).
	APIKey string

	// BatchSize is the number of texts sent per provider call.
	BatchSize int

	// MaxAttempts is the number of tries per batch on transient errors.
	MaxAttempts int

	// RatePerSecond caps provider calls per second. Zero means unlimited.
	RatePerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama and OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for Gemini and OpenAI).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorSettings holds vector backend configuration.
type VectorSettings struct {
	// Backend selects the storage implementation.
	Backend VectorBackend

	// RedisAddr is host:port for the Redis backend.
	RedisAddr string

	// RedisPassword is the optional Redis password.
	RedisPassword string

	// RedisDB is the Redis logical database.
	RedisDB int

	// ElasticsearchAddresses lists cluster node URLs.
	ElasticsearchAddresses []string

	// ElasticsearchUsername and ElasticsearchPassword enable basic auth.
	ElasticsearchUsername string
	ElasticsearchPassword string
}

// RetrievalSettings holds query behaviour.
type RetrievalSettings struct {
	// TopK is the default number of clauses returned per query.
	TopK int
}

// Settings is the full application configuration.
type Settings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Vector    VectorSettings
	Retrieval RetrievalSettings

	// DataDir holds the SQLite database and temporary downloads.
	DataDir string
}

// Default values.
const (
	DefaultEmbeddingModel = "text-embedding-004"
	DefaultLLMModel       = "gemini-2.5-flash"
	DefaultBatchSize      = 50
	DefaultMaxAttempts    = 3
	DefaultTopK           = 5
	DefaultRedisAddr      = "localhost:6379"
	DefaultElasticsearch  = "http://localhost:9200"
)

// DefaultSettings returns settings with Gemini providers and the SQLite backend.
func DefaultSettings() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			Provider:    AIProviderGemini,
			Model:       DefaultEmbeddingModel,
			BatchSize:   DefaultBatchSize,
			MaxAttempts: DefaultMaxAttempts,
		},
		LLM: LLMSettings{
			Provider: AIProviderGemini,
			Model:    DefaultLLMModel,
		},
		Vector: VectorSettings{
			Backend:                VectorBackendSQLite,
			RedisAddr:              DefaultRedisAddr,
			ElasticsearchAddresses: []string{DefaultElasticsearch},
		},
		Retrieval: RetrievalSettings{
			TopK: DefaultTopK,
		},
	}
}

// DefaultEmbeddingModelFor returns the default embedding model for provider.
func DefaultEmbeddingModelFor(p AIProvider) string {
	switch p {
	case AIProviderOpenAI:
		return "text-embedding-3-small"
	case AIProviderOllama:
		return "nomic-embed-text"
	default:
		return DefaultEmbeddingModel
	}
}

// DefaultLLMModelFor returns the default LLM model for provider.
func DefaultLLMModelFor(p AIProvider) string {
	switch p {
	case AIProviderOpenAI:
		return "gpt-4o-mini"
	case AIProviderOllama:
		return "llama3.2"
	case AIProviderAnthropic:
		return "claude-3-5-haiku-latest"
	default:
		return DefaultLLMModel
	}
}
