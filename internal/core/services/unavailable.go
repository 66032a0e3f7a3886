package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

// Ensure UnavailableEmbedder implements Embedder.
var _ Embedder = UnavailableEmbedder{}

// UnavailableEmbedder stands in for a provider that failed to initialise.
// Every call returns Err, so indexing degrades with the original cause
// instead of the application refusing to start.
type UnavailableEmbedder struct {
	Err error
}

// NewUnavailableEmbedder wraps err as a configuration failure if it is not
// already classified.
func NewUnavailableEmbedder(err error) UnavailableEmbedder {
	if err == nil {
		err = fmt.Errorf("%w: embedding provider not configured", domain.ErrConfiguration)
	} else if domain.KindOf(err) == domain.KindUnexpected {
		err = fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	return UnavailableEmbedder{Err: err}
}

// EmbedOne returns the stored error.
func (u UnavailableEmbedder) EmbedOne(_ context.Context, _ string) ([]float32, error) {
	return nil, u.Err
}

// EmbedBatch returns the stored error.
func (u UnavailableEmbedder) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return nil, u.Err
}
