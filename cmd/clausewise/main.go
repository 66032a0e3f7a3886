// Command clausewise decodes insurance policy documents into searchable clauses.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/clausewise/internal/adapters/driven/ai"
	"github.com/custodia-labs/clausewise/internal/adapters/driven/config/file"
	"github.com/custodia-labs/clausewise/internal/adapters/driven/extract"
	"github.com/custodia-labs/clausewise/internal/adapters/driven/fetch"
	"github.com/custodia-labs/clausewise/internal/adapters/driven/fetch/dropbox"
	"github.com/custodia-labs/clausewise/internal/adapters/driven/fetch/gdrive"
	"github.com/custodia-labs/clausewise/internal/adapters/driven/fetch/github"
	"github.com/custodia-labs/clausewise/internal/adapters/driven/storage/elasticsearch"
	"github.com/custodia-labs/clausewise/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/clausewise/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/clausewise/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/clausewise/internal/adapters/driving/cli"
	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
	"github.com/custodia-labs/clausewise/internal/core/services"
	"github.com/custodia-labs/clausewise/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Environment variables read only by the composition root.
//
//nolint:gosec // G101: variable names, not credentials.
const (
	envConfigDir  = "CLAUSEWISE_CONFIG_DIR"
	envLogFormat  = "CLAUSEWISE_LOG_FORMAT"
	envGoogleKey  = "GOOGLE_API_KEY"
	envGitHubKey  = "GITHUB_TOKEN"
	envDropboxKey = "DROPBOX_TOKEN"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// A missing .env file is normal.
	_ = godotenv.Load()

	logger.Init(os.Getenv(envLogFormat))

	configStore, err := file.NewConfigStore(os.Getenv(envConfigDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening config: %v\n", err)
		return err
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading settings: %v\n", err)
		return err
	}

	store, closeStore, err := openStorage(ctx, settings)
	if err != nil {
		// Config commands must still work when the backend is unreachable.
		logger.Warn("storage unavailable: %v", err)
		cli.SetServices(nil, settingsService)
		cli.SetVersion(version)
		return cli.Execute(ctx)
	}
	defer closeStore()

	embedder := newEmbedder(ctx, settings.Embedding)
	analysis := newAnalysis(ctx, settings, configStore.Path())

	policy := services.NewPolicyService(
		newFetchRegistry(ctx),
		extract.NewDefaultRegistry(),
		store.sessions,
		store.vectors,
		embedder,
		analysis,
	)
	policy.SetDefaultTopK(settings.Retrieval.TopK)

	cli.SetServices(policy, settingsService)
	cli.SetDefaultTopK(settings.Retrieval.TopK)
	cli.SetVersion(version)
	return cli.Execute(ctx)
}

type storage struct {
	sessions driven.SessionStore
	vectors  driven.VectorBackend
}

// openStorage selects the vector backend. Sessions live in SQLite for every
// persistent backend and in memory alongside the memory backend.
func openStorage(ctx context.Context, settings domain.Settings) (storage, func(), error) {
	if settings.Vector.Backend == domain.VectorBackendMemory {
		logger.Debug("Using in-memory sessions and vectors")
		vectors := memory.NewVectorBackend()
		return storage{sessions: memory.NewSessionStore(), vectors: vectors}, func() { vectors.Close() }, nil
	}

	db, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return storage{}, nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	logger.Debug("Session store: %s", db.Path())

	var vectors driven.VectorBackend
	switch settings.Vector.Backend {
	case domain.VectorBackendRedis:
		vectors, err = redis.NewBackend(ctx, redis.Config{
			Addr:     settings.Vector.RedisAddr,
			Password: settings.Vector.RedisPassword,
			DB:       settings.Vector.RedisDB,
		})
	case domain.VectorBackendElasticsearch:
		vectors, err = elasticsearch.NewBackend(elasticsearch.Config{
			Addresses: settings.Vector.ElasticsearchAddresses,
			Username:  settings.Vector.ElasticsearchUsername,
			Password:  settings.Vector.ElasticsearchPassword,
		})
	default:
		vectors = db.VectorBackend()
	}
	if err != nil {
		db.Close()
		return storage{}, nil, err
	}
	logger.Debug("Vector backend: %s", settings.Vector.Backend)

	closeAll := func() {
		if err := vectors.Close(); err != nil {
			logger.Warn("closing vector backend: %v", err)
		}
		if err := db.Close(); err != nil {
			logger.Warn("closing sqlite store: %v", err)
		}
	}
	return storage{sessions: db.SessionStore(), vectors: vectors}, closeAll, nil
}

// newEmbedder wraps the configured provider in the batching gateway. A provider
// that cannot be created yields an embedder that fails every call, so decoding
// still succeeds with a degraded index.
func newEmbedder(ctx context.Context, cfg domain.EmbeddingSettings) services.Embedder {
	provider, err := ai.CreateEmbeddingProvider(ctx, &cfg)
	if err != nil {
		logger.Debug("Embedding provider unavailable: %v", err)
		return services.NewUnavailableEmbedder(err)
	}

	gateway, err := services.NewEmbeddingGateway(provider,
		services.WithBatchSize(cfg.BatchSize),
		services.WithMaxAttempts(cfg.MaxAttempts),
		services.WithRateLimit(cfg.RatePerSecond),
	)
	if err != nil {
		return services.NewUnavailableEmbedder(err)
	}
	return gateway
}

// newAnalysis returns the LLM-backed analysis service, or one that reports
// domain.ErrLLMUnavailable when no LLM can be created.
func newAnalysis(ctx context.Context, settings domain.Settings, configPath string) *services.AnalysisService {
	llm, err := ai.CreateLLMService(ctx, &settings.LLM)
	if err != nil {
		logger.Debug("LLM unavailable: %v", err)
	}
	analysis := services.NewAnalysisService(llm)

	prompts, err := file.NewPromptStore(filepath.Join(filepath.Dir(configPath), "prompts"))
	if err == nil {
		analysis.SetPromptStore(prompts)
	}
	return analysis
}

// newFetchRegistry registers the remote fetchers whose credentials are present.
func newFetchRegistry(ctx context.Context) *fetch.Registry {
	registry := fetch.NewRegistry()

	if key := os.Getenv(envGoogleKey); key != "" {
		f, err := gdrive.New(ctx, gdrive.Config{APIKey: key})
		if err != nil {
			logger.Warn("Google Drive fetcher disabled: %v", err)
		} else {
			registry.Register(f)
		}
	}

	if token := os.Getenv(envDropboxKey); token != "" {
		f, err := dropbox.New(dropbox.Config{Token: token})
		if err != nil {
			logger.Warn("Dropbox fetcher disabled: %v", err)
		} else {
			registry.Register(f)
		}
	}

	f, err := github.New(ctx, github.Config{Token: os.Getenv(envGitHubKey)})
	if err != nil {
		logger.Warn("GitHub fetcher disabled: %v", err)
	} else {
		registry.Register(f)
	}

	return registry
}
