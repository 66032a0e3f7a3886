// Package gdrive downloads policy documents from Google Drive.
//
// References take the form gdrive://<fileID>. Files must be shared so that
// an API key can read them.
package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
)

const (
	// Scheme is the reference scheme handled by this fetcher.
	Scheme = "gdrive"

	// MaxDownloadSize caps the size of a downloaded policy (50 MB).
	MaxDownloadSize = 50 << 20

	// MimeTypeGoogleDoc is exported as PDF before download.
	MimeTypeGoogleDoc = "application/vnd.google-apps.document"
	exportMimePDF     = "application/pdf"
)

// Config holds Drive client settings.
type Config struct {
	// APIKey authenticates requests for publicly shared files.
	APIKey string

	// Endpoint overrides the API base URL, mainly for tests.
	Endpoint string

	// HTTPClient overrides the HTTP client.
	HTTPClient *http.Client
}

// Ensure Fetcher implements the interface.
var _ driven.PolicyFetcher = (*Fetcher)(nil)

// Fetcher downloads Drive files to a temporary directory.
type Fetcher struct {
	svc *drive.Service
}

// New creates a Drive fetcher.
func New(ctx context.Context, cfg Config) (*Fetcher, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: GOOGLE_API_KEY is required for gdrive:// references", domain.ErrConfiguration)
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &Fetcher{svc: svc}, nil
}

// Scheme returns "gdrive".
func (f *Fetcher) Scheme() string {
	return Scheme
}

// Fetch downloads the file and returns its local path. Google Docs are
// exported as PDF. cleanup removes the temporary directory.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (string, func(), error) {
	noop := func() {}

	fileID, err := parseRef(ref)
	if err != nil {
		return "", noop, err
	}

	file, err := f.svc.Files.Get(fileID).
		Fields("id", "name", "mimeType", "size").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", noop, wrapError(err, fileID)
	}
	if file.Size > MaxDownloadSize {
		return "", noop, fmt.Errorf("%w: drive file %s is %d bytes", domain.ErrInvalidInput, fileID, file.Size)
	}

	name := filepath.Base(file.Name)
	var resp *http.Response
	if file.MimeType == MimeTypeGoogleDoc {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".pdf"
		resp, err = f.svc.Files.Export(fileID, exportMimePDF).Context(ctx).Download()
	} else {
		resp, err = f.svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	}
	if err != nil {
		return "", noop, wrapError(err, fileID)
	}
	defer resp.Body.Close()

	dir, err := os.MkdirTemp("", "clausewise-gdrive-*")
	if err != nil {
		return "", noop, fmt.Errorf("creating temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	if name == "" || name == "." || name == "/" {
		name = fileID
	}
	path := filepath.Join(dir, name)
	if err := writeLimited(path, resp.Body); err != nil {
		cleanup()
		return "", noop, err
	}
	return path, cleanup, nil
}

func parseRef(ref string) (string, error) {
	scheme, id, ok := strings.Cut(ref, "://")
	if !ok || !strings.EqualFold(scheme, Scheme) {
		return "", fmt.Errorf("%w: not a gdrive reference: %q", domain.ErrInvalidInput, ref)
	}
	id = strings.Trim(id, "/ ")
	if id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("%w: gdrive reference needs a file ID: %q", domain.ErrInvalidInput, ref)
	}
	return id, nil
}

func writeLimited(path string, r io.Reader) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
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

// wrapError maps Drive API failures to domain errors.
func wrapError(err error, fileID string) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusNotFound:
			return fmt.Errorf("%w: drive file %s", domain.ErrNotFound, fileID)
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return fmt.Errorf("%w: drive rejected the request for %s: %s", domain.ErrConfiguration, fileID, apiErr.Message)
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500:
			return fmt.Errorf("%w: drive returned %d", domain.ErrTransientAPI, apiErr.Code)
		}
	}
	return fmt.Errorf("drive file %s: %w", fileID, err)
}
