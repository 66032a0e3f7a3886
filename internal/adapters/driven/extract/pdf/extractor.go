// Package pdf extracts per-page text from PDF files using poppler's
// pdftotext and pdfinfo tools.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
)

const (
	pdftotext = "pdftotext"
	pdfinfo   = "pdfinfo"
)

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = fmt.Errorf("%w: pdftotext not found in PATH", domain.ErrExtractorUnavailable)

var pagesLine = regexp.MustCompile(`(?m)^Pages:\s+(\d+)\s*$`)

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

// Extractor handles PDF documents.
type Extractor struct {
	runner driven.CommandRunner
}

// New creates a PDF extractor that shells out to the poppler tools.
func New() *Extractor {
	return &Extractor{runner: execRunner{}}
}

// NewWithRunner creates a PDF extractor with a custom command runner.
func NewWithRunner(runner driven.CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// Supports returns true for .pdf files.
func (e *Extractor) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Extract returns the text of each page. pdftotext separates pages with a
// form feed and terminates the last page with one.
func (e *Extractor) Extract(ctx context.Context, path string) ([]string, error) {
	if err := e.runner.LookPath(pdftotext); err != nil {
		return nil, fmt.Errorf("%w\n%s", ErrPDFToolNotFound, InstallInstructions())
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	out, err := e.runner.Run(ctx, pdftotext, "-layout", path, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}
	return SplitPages(string(out)), nil
}

// PageCount reads the page count reported by pdfinfo.
func (e *Extractor) PageCount(ctx context.Context, path string) (int, error) {
	if err := e.runner.LookPath(pdfinfo); err != nil {
		return 0, fmt.Errorf("%w: pdfinfo not found in PATH", domain.ErrExtractorUnavailable)
	}

	out, err := e.runner.Run(ctx, pdfinfo, path)
	if err != nil {
		return 0, fmt.Errorf("pdfinfo failed: %w", err)
	}

	m := pagesLine.FindStringSubmatch(string(out))
	if m == nil {
		return 0, errors.New("pdfinfo output has no page count")
	}
	return strconv.Atoi(m[1])
}

// SplitPages splits pdftotext output on form feeds, dropping the empty
// element after the trailing separator.
func SplitPages(out string) []string {
	if out == "" {
		return []string{}
	}
	pages := strings.Split(out, "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

// CheckAvailable verifies that pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(pdftotext); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform-specific installation instructions.
func InstallInstructions() string {
	return `pdftotext is required for PDF support. Install poppler:
  macOS:         brew install poppler
  Ubuntu/Debian: sudo apt install poppler-utils
  Fedora:        sudo dnf install poppler-utils
  Windows:       choco install poppler`
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

func (execRunner) LookPath(name string) error {
	_, err := exec.LookPath(name)
	return err
}
