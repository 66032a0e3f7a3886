package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates AI provider configurations.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding creates the embedding provider and pings it.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error {
	if config == nil {
		return fmt.Errorf("%w: no embedding settings", domain.ErrConfiguration)
	}
	provider, err := CreateEmbeddingProvider(ctx, config)
	if err != nil {
		return err
	}
	defer provider.Close()
	return ping(ctx, provider)
}

// ValidateLLM creates the LLM service and pings it.
func (v *ConfigValidator) ValidateLLM(ctx context.Context, config *domain.LLMSettings) error {
	if config == nil {
		return fmt.Errorf("%w: no LLM settings", domain.ErrConfiguration)
	}
	svc, err := CreateLLMService(ctx, config)
	if err != nil {
		return err
	}
	defer svc.Close()
	return ping(ctx, svc)
}
