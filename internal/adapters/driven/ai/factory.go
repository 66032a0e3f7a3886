// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	geminiembed "github.com/custodia-labs/clausewise/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/clausewise/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/clausewise/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/clausewise/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/clausewise/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/clausewise/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/clausewise/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 10 * time.Second

// pinger is implemented by providers that can check connectivity cheaply.
type pinger interface {
	Ping(ctx context.Context) error
}

// CreateEmbeddingProvider creates the embedding provider selected by settings.
// Missing credentials are returned as errors wrapping domain.ErrConfiguration.
func CreateEmbeddingProvider(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no embedding settings", domain.ErrConfiguration)
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		p, err := geminiembed.NewProvider(ctx, geminiembed.Config{
			APIKey:  settings.APIKey,
			Model:   settings.Model,
			BaseURL: settings.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		return p, nil

	case domain.AIProviderOpenAI:
		p, err := openaiembed.NewProvider(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return p, nil

	case domain.AIProviderOllama:
		return ollamaembed.NewProvider(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: anthropic has no embeddings endpoint", domain.ErrConfiguration)

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %q", domain.ErrConfiguration, settings.Provider)
	}
}

// CreateLLMService creates the LLM service selected by settings.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no LLM settings", domain.ErrConfiguration)
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		svc, err := geminillm.NewLLMService(ctx, geminillm.LLMConfig{
			APIKey:  settings.APIKey,
			Model:   settings.Model,
			BaseURL: settings.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderOpenAI:
		svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderAnthropic:
		svc, err := anthropicllm.NewLLMService(anthropicllm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %q", domain.ErrConfiguration, settings.Provider)
	}
}

// ping checks svc with a bounded timeout if it supports pinging.
func ping(ctx context.Context, svc any) error {
	p, ok := svc.(pinger)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return p.Ping(ctx)
}
