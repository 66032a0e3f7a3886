package driven

import (
	"context"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

// AIConfigValidator checks AI provider configurations by making one small
// request against the provider.
type AIConfigValidator interface {
	// ValidateEmbedding returns nil if the embedding provider answers.
	ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error

	// ValidateLLM returns nil if the LLM provider answers.
	ValidateLLM(ctx context.Context, config *domain.LLMSettings) error
}
