// Package local resolves plain paths and file:// references.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
)

// Scheme is the reference scheme handled by this fetcher.
const Scheme = "file"

// Ensure Fetcher implements the interface.
var _ driven.PolicyFetcher = (*Fetcher)(nil)

// Fetcher resolves local files in place.
type Fetcher struct{}

// New creates a local file fetcher.
func New() *Fetcher {
	return &Fetcher{}
}

// Scheme returns "file".
func (f *Fetcher) Scheme() string {
	return Scheme
}

// Fetch returns the absolute path of ref. Nothing is copied, so cleanup is a no-op.
func (f *Fetcher) Fetch(_ context.Context, ref string) (string, func(), error) {
	path := strings.TrimPrefix(ref, Scheme+"://")
	if strings.TrimSpace(path) == "" {
		return "", noop, fmt.Errorf("%w: empty path", domain.ErrInvalidInput)
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", noop, fmt.Errorf("expanding home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", noop, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return "", noop, fmt.Errorf("%w: file %s", domain.ErrNotFound, abs)
	}
	if err != nil {
		return "", noop, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if info.IsDir() {
		return "", noop, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, abs)
	}
	return abs, noop, nil
}

func noop() {}
