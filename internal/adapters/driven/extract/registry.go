// Package extract selects a page extractor by file extension.
package extract

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/clausewise/internal/adapters/driven/extract/docx"
	"github.com/custodia-labs/clausewise/internal/adapters/driven/extract/html"
	"github.com/custodia-labs/clausewise/internal/adapters/driven/extract/pdf"
	"github.com/custodia-labs/clausewise/internal/adapters/driven/extract/plaintext"
	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.PageExtractor = (*Registry)(nil)

// Registry dispatches to the first registered extractor that supports a file.
type Registry struct {
	extractors []driven.PageExtractor
}

// NewRegistry creates a registry over the given extractors.
func NewRegistry(extractors ...driven.PageExtractor) *Registry {
	return &Registry{extractors: extractors}
}

// NewDefaultRegistry registers the PDF, Word, HTML and plain text extractors.
func NewDefaultRegistry() *Registry {
	return NewRegistry(pdf.New(), docx.New(), html.New(), plaintext.New())
}

// Supports returns true if any extractor handles the file.
func (r *Registry) Supports(path string) bool {
	return r.find(path) != nil
}

// Extract delegates to the matching extractor.
func (r *Registry) Extract(ctx context.Context, path string) ([]string, error) {
	e := r.find(path)
	if e == nil {
		return nil, unsupported(path)
	}
	return e.Extract(ctx, path)
}

// PageCount delegates to the matching extractor.
func (r *Registry) PageCount(ctx context.Context, path string) (int, error) {
	e := r.find(path)
	if e == nil {
		return 0, unsupported(path)
	}
	return e.PageCount(ctx, path)
}

func (r *Registry) find(path string) driven.PageExtractor {
	for _, e := range r.extractors {
		if e.Supports(path) {
			return e
		}
	}
	return nil
}

func unsupported(path string) error {
	return fmt.Errorf("%w: %q (extension %q)", domain.ErrUnsupportedFormat, filepath.Base(path), filepath.Ext(path))
}
