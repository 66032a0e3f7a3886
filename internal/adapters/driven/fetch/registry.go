// Package fetch routes policy references to the fetcher for their scheme.
package fetch

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/clausewise/internal/adapters/driven/fetch/local"
	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.PolicyFetcher = (*Registry)(nil)

// Registry dispatches on the scheme of a reference. References without a
// scheme are local paths.
type Registry struct {
	local    driven.PolicyFetcher
	fetchers map[string]driven.PolicyFetcher
}

// NewRegistry creates a registry that handles local paths plus the given fetchers.
func NewRegistry(fetchers ...driven.PolicyFetcher) *Registry {
	r := &Registry{
		local:    local.New(),
		fetchers: make(map[string]driven.PolicyFetcher),
	}
	r.Register(r.local)
	for _, f := range fetchers {
		r.Register(f)
	}
	return r
}

// Register adds or replaces the fetcher for its scheme.
func (r *Registry) Register(f driven.PolicyFetcher) {
	r.fetchers[f.Scheme()] = f
}

// Schemes returns the registered schemes.
func (r *Registry) Schemes() []string {
	out := make([]string, 0, len(r.fetchers))
	for s := range r.fetchers {
		out = append(out, s)
	}
	return out
}

// Scheme returns an empty string; the registry handles every registered scheme.
func (r *Registry) Scheme() string {
	return ""
}

// Fetch resolves ref with the matching fetcher.
func (r *Registry) Fetch(ctx context.Context, ref string) (string, func(), error) {
	scheme, _, ok := strings.Cut(ref, "://")
	if !ok {
		return r.local.Fetch(ctx, ref)
	}

	f, found := r.fetchers[strings.ToLower(scheme)]
	if !found {
		return "", func() {}, fmt.Errorf("%w: no fetcher for scheme %q", domain.ErrUnsupportedFormat, scheme)
	}
	return f.Fetch(ctx, ref)
}
