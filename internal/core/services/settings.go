package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
	"github.com/custodia-labs/clausewise/internal/core/ports/driving"
	"github.com/custodia-labs/clausewise/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedBatchSize   = "embedding.batch_size"
	keyEmbedMaxAttempts = "embedding.max_attempts"
	keyEmbedRate        = "embedding.rate_per_second"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyVectorBackend    = "vector.backend"
	keyRedisAddr        = "vector.redis_addr"
	keyRedisPassword    = "vector.redis_password"
	keyRedisDB          = "vector.redis_db"
	keyESAddresses      = "vector.elasticsearch_addresses"
	keyESUsername       = "vector.elasticsearch_username"
	keyESPassword       = "vector.elasticsearch_password"
	keyTopK             = "retrieval.top_k"
	keyDataDir          = "data_dir"
)

// Environment variables that override stored settings.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvGeminiAPIKey     = "GEMINI_API_KEY"
	EnvOpenAIAPIKey     = "OPENAI_API_KEY"
	EnvAnthropicAPIKey  = "ANTHROPIC_API_KEY"
	EnvVectorBackend    = "CLAUSEWISE_VECTOR_BACKEND"
	EnvRedisAddr        = "REDIS_ADDR"
	EnvElasticsearchURL = "ELASTICSEARCH_URL"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindList
	kindProvider
	kindBackend
)

// settingKinds lists every supported key with its value type.
var settingKinds = map[string]valueKind{
	keyEmbedProvider:    kindProvider,
	keyEmbedModel:       kindString,
	keyEmbedBaseURL:     kindString,
	keyEmbedAPIKey:      kindString,
	keyEmbedBatchSize:   kindInt,
	keyEmbedMaxAttempts: kindInt,
	keyEmbedRate:        kindFloat,
	keyLLMProvider:      kindProvider,
	keyLLMModel:         kindString,
	keyLLMBaseURL:       kindString,
	keyLLMAPIKey:        kindString,
	keyVectorBackend:    kindBackend,
	keyRedisAddr:        kindString,
	keyRedisPassword:    kindString,
	keyRedisDB:          kindInt,
	keyESAddresses:      kindList,
	keyESUsername:       kindString,
	keyESPassword:       kindString,
	keyTopK:             kindInt,
	keyDataDir:          kindString,
}

// SettingsService reads settings from a ConfigStore, filling defaults and
// applying environment overrides.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
// aiValidator may be nil, in which case Validate is a no-op.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// Load returns the effective settings.
func (s *SettingsService) Load() (domain.Settings, error) {
	defaults := domain.DefaultSettings()

	embedProvider, err := s.provider(keyEmbedProvider, defaults.Embedding.Provider)
	if err != nil {
		return domain.Settings{}, err
	}
	if !embedProvider.SupportsEmbeddings() {
		return domain.Settings{}, fmt.Errorf("%w: %s has no embeddings API", domain.ErrInvalidInput, embedProvider)
	}
	llmProvider, err := s.provider(keyLLMProvider, defaults.LLM.Provider)
	if err != nil {
		return domain.Settings{}, err
	}
	backend, err := s.backend(defaults.Vector.Backend)
	if err != nil {
		return domain.Settings{}, err
	}

	settings := domain.Settings{
		Embedding: domain.EmbeddingSettings{
			Provider:      embedProvider,
			Model:         s.getString(keyEmbedModel, domain.DefaultEmbeddingModelFor(embedProvider)),
			BaseURL:       s.configStore.GetString(keyEmbedBaseURL),
			APIKey:        s.apiKey(embedProvider, s.configStore.GetString(keyEmbedAPIKey)),
			BatchSize:     s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
			MaxAttempts:   s.getInt(keyEmbedMaxAttempts, defaults.Embedding.MaxAttempts),
			RatePerSecond: s.configStore.GetFloat(keyEmbedRate),
		},
		LLM: domain.LLMSettings{
			Provider: llmProvider,
			Model:    s.getString(keyLLMModel, domain.DefaultLLMModelFor(llmProvider)),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.apiKey(llmProvider, s.configStore.GetString(keyLLMAPIKey)),
		},
		Vector: domain.VectorSettings{
			Backend:                backend,
			RedisAddr:              s.getString(keyRedisAddr, defaults.Vector.RedisAddr),
			RedisPassword:          s.configStore.GetString(keyRedisPassword),
			RedisDB:                s.configStore.GetInt(keyRedisDB),
			ElasticsearchAddresses: s.configStore.GetStringSlice(keyESAddresses),
			ElasticsearchUsername:  s.configStore.GetString(keyESUsername),
			ElasticsearchPassword:  s.configStore.GetString(keyESPassword),
		},
		Retrieval: domain.RetrievalSettings{
			TopK: s.getInt(keyTopK, defaults.Retrieval.TopK),
		},
		DataDir: s.getString(keyDataDir, s.defaultDataDir()),
	}
	if len(settings.Vector.ElasticsearchAddresses) == 0 {
		settings.Vector.ElasticsearchAddresses = defaults.Vector.ElasticsearchAddresses
	}

	if addr, ok := s.env(EnvRedisAddr); ok {
		settings.Vector.RedisAddr = addr
	}
	if urls, ok := s.env(EnvElasticsearchURL); ok {
		settings.Vector.ElasticsearchAddresses = splitList(urls)
	}

	return settings, nil
}

// Set validates value against the key's type and stores it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	value = strings.TrimSpace(value)
	var stored any = value

	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		stored = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		stored = f
	case kindList:
		stored = splitList(value)
	case kindProvider:
		p := domain.AIProvider(value)
		if !p.IsValid() {
			return fmt.Errorf("%w: unknown provider %q (use gemini, openai, ollama or anthropic)", domain.ErrInvalidInput, value)
		}
		if key == keyEmbedProvider && !p.SupportsEmbeddings() {
			return fmt.Errorf("%w: %s has no embeddings API", domain.ErrInvalidInput, value)
		}
	case kindBackend:
		if !domain.VectorBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown vector backend %q (use memory, sqlite, redis or elasticsearch)",
				domain.ErrInvalidInput, value)
		}
	}

	return s.configStore.Set(key, stored)
}

// Get returns the stored value for key as a string.
func (s *SettingsService) Get(key string) (string, bool) {
	if _, ok := s.configStore.Get(key); !ok {
		return "", false
	}
	if settingKinds[key] == kindList {
		return strings.Join(s.configStore.GetStringSlice(key), ","), true
	}
	return s.configStore.GetString(key), true
}

// Keys returns every supported key in sorted order.
func (s *SettingsService) Keys() []string {
	return SettingKeys()
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// Validate calls the configured providers once each.
func (s *SettingsService) Validate(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Load()
	if err != nil {
		return err
	}

	var errs []error
	if err := s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding); err != nil {
		errs = append(errs, fmt.Errorf("embedding provider %s: %w", settings.Embedding.Provider, err))
	}
	if err := s.aiValidator.ValidateLLM(ctx, &settings.LLM); err != nil {
		errs = append(errs, fmt.Errorf("llm provider %s: %w", settings.LLM.Provider, err))
	}
	return errors.Join(errs...)
}

// SettingKeys lists every supported configuration key in sorted order.
func SettingKeys() []string {
	return []string{
		keyDataDir,
		keyEmbedAPIKey,
		keyEmbedBaseURL,
		keyEmbedBatchSize,
		keyEmbedMaxAttempts,
		keyEmbedModel,
		keyEmbedProvider,
		keyEmbedRate,
		keyLLMAPIKey,
		keyLLMBaseURL,
		keyLLMModel,
		keyLLMProvider,
		keyTopK,
		keyVectorBackend,
		keyESAddresses,
		keyESPassword,
		keyESUsername,
		keyRedisAddr,
		keyRedisDB,
		keyRedisPassword,
	}
}

// IsSecretKey reports whether key holds a credential that should be masked.
func IsSecretKey(key string) bool {
	return strings.HasSuffix(key, "api_key") || strings.HasSuffix(key, "password")
}

func (s *SettingsService) provider(key string, fallback domain.AIProvider) (domain.AIProvider, error) {
	p := domain.AIProvider(s.getString(key, string(fallback)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %s has unknown provider %q", domain.ErrInvalidInput, key, p)
	}
	return p, nil
}

func (s *SettingsService) backend(fallback domain.VectorBackend) (domain.VectorBackend, error) {
	b := domain.VectorBackend(s.getString(keyVectorBackend, string(fallback)))
	if env, ok := s.env(EnvVectorBackend); ok {
		if domain.VectorBackend(env).IsValid() {
			b = domain.VectorBackend(env)
		} else {
			logger.Warn("Ignoring %s=%q: unknown vector backend", EnvVectorBackend, env)
		}
	}
	if !b.IsValid() {
		return "", fmt.Errorf("%w: %s has unknown backend %q", domain.ErrInvalidInput, keyVectorBackend, b)
	}
	return b, nil
}

// apiKey prefers the provider's environment variable over the stored key.
func (s *SettingsService) apiKey(p domain.AIProvider, stored string) string {
	var name string
	switch p {
	case domain.AIProviderGemini:
		name = EnvGeminiAPIKey
	case domain.AIProviderOpenAI:
		name = EnvOpenAIAPIKey
	case domain.AIProviderAnthropic:
		name = EnvAnthropicAPIKey
	default:
		return stored
	}
	if v, ok := s.env(name); ok {
		return v
	}
	return stored
}

func (s *SettingsService) env(name string) (string, bool) {
	v, ok := s.lookupEnv(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (s *SettingsService) defaultDataDir() string {
	path := s.configStore.Path()
	if path == "" || path == ":memory:" {
		return ""
	}
	return filepath.Dir(path)
}

func (s *SettingsService) getString(key, fallback string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return fallback
}

func (s *SettingsService) getInt(key string, fallback int) int {
	if v := s.configStore.GetInt(key); v > 0 {
		return v
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
