package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
	"github.com/custodia-labs/clausewise/internal/logger"
)

// Embedder produces vectors for clause and query texts.
// EmbeddingGateway is the production implementation.
type Embedder interface {
	// EmbedOne returns the vector for a single text.
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Gateway defaults.
const (
	DefaultEmbedBatchSize   = 50
	DefaultEmbedMaxAttempts = 3
)

// Ensure EmbeddingGateway implements Embedder.
var _ Embedder = (*EmbeddingGateway)(nil)

// sleepFunc waits for d or until ctx is done.
type sleepFunc func(ctx context.Context, d time.Duration) error

// EmbeddingGateway wraps an EmbeddingProvider with batching,
// retry with exponential backoff, pacing, and response normalisation.
type EmbeddingGateway struct {
	provider    driven.EmbeddingProvider
	batchSize   int
	maxAttempts int
	limiter     *rate.Limiter
	sleep       sleepFunc
}

// GatewayOption configures an EmbeddingGateway.
type GatewayOption func(*EmbeddingGateway)

// WithBatchSize sets the number of texts per provider call.
func WithBatchSize(n int) GatewayOption {
	return func(g *EmbeddingGateway) {
		if n > 0 {
			g.batchSize = n
		}
	}
}

// WithMaxAttempts sets the number of tries per call on transient errors.
func WithMaxAttempts(n int) GatewayOption {
	return func(g *EmbeddingGateway) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithRateLimit caps provider calls per second. Zero or less disables pacing.
func WithRateLimit(perSecond float64) GatewayOption {
	return func(g *EmbeddingGateway) {
		if perSecond > 0 {
			g.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// withSleep replaces the backoff wait. Used by tests.
func withSleep(fn sleepFunc) GatewayOption {
	return func(g *EmbeddingGateway) {
		g.sleep = fn
	}
}

// NewEmbeddingGateway creates a gateway over provider.
// A nil provider is a configuration error.
func NewEmbeddingGateway(provider driven.EmbeddingProvider, opts ...GatewayOption) (*EmbeddingGateway, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", domain.ErrConfiguration)
	}
	if provider.ModelName() == "" {
		return nil, fmt.Errorf("%w: embedding model name is empty", domain.ErrConfiguration)
	}

	g := &EmbeddingGateway{
		provider:    provider,
		batchSize:   DefaultEmbedBatchSize,
		maxAttempts: DefaultEmbedMaxAttempts,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// ModelName returns the provider's model.
func (g *EmbeddingGateway) ModelName() string {
	return g.provider.ModelName()
}

// Close releases the provider.
func (g *EmbeddingGateway) Close() error {
	return g.provider.Close()
}

// EmbedOne returns the vector for a single text.
func (g *EmbeddingGateway) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.call(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per text in input order.
// Texts are sent in chunks of the batch size, one chunk at a time.
func (g *EmbeddingGateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.batchSize {
		end := min(start+g.batchSize, len(texts))
		logger.Debug("Embedding batch %d-%d of %d", start+1, end, len(texts))

		batch, err := g.call(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// call sends one request, retrying transient failures with 2^attempt second waits.
func (g *EmbeddingGateway) call(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrTransientAPI, err)
			}
		}

		raw, err := g.provider.EmbedContent(ctx, texts)
		if err == nil {
			return decodeEmbeddings(raw, len(texts))
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err

		if attempt < g.maxAttempts-1 {
			wait := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			logger.Warn("Embedding API error (attempt %d): %v. Retrying in %s", attempt+1, err, wait)
			if err := g.sleep(ctx, wait); err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrTransientAPI, err)
			}
		}
	}

	return nil, fmt.Errorf("%w: failed to generate embeddings after %d attempts: %w",
		domain.ErrTransientAPI, g.maxAttempts, lastErr)
}

// isRetryable reports whether err is a transient provider failure.
// Timeouts count as transient.
func isRetryable(err error) bool {
	return errors.Is(err, domain.ErrTransientAPI) || errors.Is(err, context.DeadlineExceeded)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
