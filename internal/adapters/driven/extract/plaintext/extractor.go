// Package plaintext extracts pages from plain text policy files.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
)

// pageMarker matches a "--- PAGE n ---" separator line.
var pageMarker = regexp.MustCompile(`(?m)^[ \t]*---[ \t]*PAGE[ \t]+\d+[ \t]*---[ \t]*$`)

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

// Extractor handles .txt documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Supports returns true for .txt files.
func (e *Extractor) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".txt")
}

// Extract reads the file and splits it into pages.
func (e *Extractor) Extract(_ context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return SplitPages(string(data)), nil
}

// PageCount returns the number of pages Extract would produce.
func (e *Extractor) PageCount(ctx context.Context, path string) (int, error) {
	pages, err := e.Extract(ctx, path)
	if err != nil {
		return 0, err
	}
	return len(pages), nil
}

// SplitPages splits text on form feeds when present, otherwise on
// "--- PAGE n ---" marker lines. Text without separators is one page.
func SplitPages(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	if strings.Contains(text, "\f") {
		pages := strings.Split(text, "\f")
		if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
			pages = pages[:len(pages)-1]
		}
		return pages
	}

	if pageMarker.MatchString(text) {
		parts := pageMarker.Split(text, -1)
		// Text before the first marker is a preamble, kept only if non-blank.
		if strings.TrimSpace(parts[0]) == "" {
			parts = parts[1:]
		}
		for i, p := range parts {
			parts[i] = strings.Trim(p, "\n")
		}
		return parts
	}

	return []string{text}
}
