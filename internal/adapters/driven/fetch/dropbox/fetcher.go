// Package dropbox downloads policy documents from a Dropbox account.
//
// References take the form dropbox://<path>, e.g. dropbox://Policies/home.pdf.
// An access token with files.content.read scope is required.
package dropbox

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
)

const (
	// Scheme is the reference scheme handled by this fetcher.
	Scheme = "dropbox"

	// MaxDownloadSize caps the size of a downloaded policy (50 MB).
	MaxDownloadSize = 50 << 20
)

// Config holds Dropbox client settings.
type Config struct {
	// Token is an OAuth2 access token.
	Token string
}

// downloader is the subset of files.Client used by the fetcher.
type downloader interface {
	Download(arg *files.DownloadArg) (*files.FileMetadata, io.ReadCloser, error)
}

// Ensure Fetcher implements the interface.
var _ driven.PolicyFetcher = (*Fetcher)(nil)

// Fetcher downloads Dropbox files to a temporary directory.
type Fetcher struct {
	client downloader
}

// New creates a Dropbox fetcher.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: DROPBOX_TOKEN is required for dropbox:// references", domain.ErrConfiguration)
	}
	client := files.New(dropbox.Config{Token: cfg.Token, LogLevel: dropbox.LogOff})
	return &Fetcher{client: client}, nil
}

// Scheme returns "dropbox".
func (f *Fetcher) Scheme() string {
	return Scheme
}

// Fetch downloads the file and returns its local path.
// The SDK call is not cancellable; ctx is checked before it starts.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (string, func(), error) {
	noop := func() {}

	p, err := parseRef(ref)
	if err != nil {
		return "", noop, err
	}
	if err := ctx.Err(); err != nil {
		return "", noop, err
	}

	meta, body, err := f.client.Download(files.NewDownloadArg(p))
	if err != nil {
		return "", noop, wrapError(err, p)
	}
	defer body.Close()

	if meta != nil && meta.Size > MaxDownloadSize {
		return "", noop, fmt.Errorf("%w: dropbox file %s is %d bytes", domain.ErrInvalidInput, p, meta.Size)
	}

	name := path.Base(p)
	if meta != nil && meta.Name != "" {
		name = filepath.Base(meta.Name)
	}

	dir, err := os.MkdirTemp("", "clausewise-dropbox-*")
	if err != nil {
		return "", noop, fmt.Errorf("creating temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	local := filepath.Join(dir, name)
	if err := writeLimited(local, body); err != nil {
		cleanup()
		return "", noop, err
	}
	return local, cleanup, nil
}

// parseRef returns the absolute Dropbox path for ref.
func parseRef(ref string) (string, error) {
	scheme, rest, ok := strings.Cut(ref, "://")
	if !ok || !strings.EqualFold(scheme, Scheme) {
		return "", fmt.Errorf("%w: not a dropbox reference: %q", domain.ErrInvalidInput, ref)
	}
	rest = strings.Trim(rest, "/ ")
	if rest == "" {
		return "", fmt.Errorf("%w: dropbox reference needs a file path: %q", domain.ErrInvalidInput, ref)
	}
	return path.Clean("/" + rest), nil
}

func writeLimited(dst string, r io.Reader) error {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(r, MaxDownloadSize+1))
	if err != nil {
		return fmt.Errorf("downloading: %w", err)
	}
	if n > MaxDownloadSize {
		return fmt.Errorf("%w: download exceeds %d bytes", domain.ErrInvalidInput, MaxDownloadSize)
	}
	return nil
}

// wrapError maps Dropbox error summaries to domain errors.
func wrapError(err error, p string) error {
	summary := err.Error()
	switch {
	case strings.Contains(summary, "not_found"):
		return fmt.Errorf("%w: dropbox file %s", domain.ErrNotFound, p)
	case strings.Contains(summary, "access_token"), strings.Contains(summary, "missing_scope"):
		return fmt.Errorf("%w: dropbox rejected the token: %s", domain.ErrConfiguration, summary)
	case strings.Contains(summary, "too_many_requests"), strings.Contains(summary, "internal_error"):
		return fmt.Errorf("%w: dropbox: %s", domain.ErrTransientAPI, summary)
	}
	return fmt.Errorf("dropbox file %s: %w", p, err)
}
