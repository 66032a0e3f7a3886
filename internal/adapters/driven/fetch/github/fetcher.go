// Package github downloads policy documents stored in GitHub repositories.
//
// References take the form github://owner/repo/path/to/policy.pdf[@ref].
package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driven"
)

const (
	// Scheme is the reference scheme handled by this fetcher.
	Scheme = "github"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxDownloadSize caps the size of a downloaded policy (50 MB).
	MaxDownloadSize = 50 << 20
)

// Config holds GitHub client settings.
type Config struct {
	// Token is an optional personal access token for private repositories.
	Token string

	// BaseURL overrides the API URL, mainly for tests.
	BaseURL string
}

// Ensure Fetcher implements the interface.
var _ driven.PolicyFetcher = (*Fetcher)(nil)

// Fetcher downloads repository files to a temporary directory.
type Fetcher struct {
	gh *gh.Client
}

// New creates a GitHub fetcher. Without a token only public repositories
// are reachable and the unauthenticated rate limit applies.
func New(ctx context.Context, cfg Config) (*Fetcher, error) {
	var hc *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.Token},
		)
		hc = oauth2.NewClient(ctx, ts)
	} else {
		hc = &http.Client{}
	}
	hc.Timeout = DefaultTimeout

	client := gh.NewClient(hc)
	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("%w: github base url: %v", domain.ErrConfiguration, err)
		}
		client.BaseURL = base
	}
	return &Fetcher{gh: client}, nil
}

// Scheme returns "github".
func (f *Fetcher) Scheme() string {
	return Scheme
}

// Location identifies a file in a repository.
type Location struct {
	Owner string
	Repo  string
	Path  string
	Ref   string
}

// ParseRef parses github://owner/repo/path[@ref].
func ParseRef(ref string) (Location, error) {
	scheme, rest, ok := strings.Cut(ref, "://")
	if !ok || !strings.EqualFold(scheme, Scheme) {
		return Location{}, fmt.Errorf("%w: not a github reference: %q", domain.ErrInvalidInput, ref)
	}

	var loc Location
	if at := strings.LastIndex(rest, "@"); at > strings.LastIndex(rest, "/") {
		loc.Ref = rest[at+1:]
		rest = rest[:at]
	}

	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Location{}, fmt.Errorf("%w: github reference must be owner/repo/path: %q", domain.ErrInvalidInput, ref)
	}
	loc.Owner, loc.Repo, loc.Path = parts[0], parts[1], parts[2]
	return loc, nil
}

// Fetch downloads the file and returns its local path.
// cleanup removes the temporary directory.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (string, func(), error) {
	noop := func() {}

	loc, err := ParseRef(ref)
	if err != nil {
		return "", noop, err
	}

	body, err := f.download(ctx, loc)
	if err != nil {
		return "", noop, err
	}
	defer body.Close()

	dir, err := os.MkdirTemp("", "clausewise-github-*")
	if err != nil {
		return "", noop, fmt.Errorf("creating temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	local := filepath.Join(dir, path.Base(loc.Path))
	if err := writeLimited(local, body); err != nil {
		cleanup()
		return "", noop, err
	}
	return local, cleanup, nil
}

// download returns the file body. Files over 1 MB come back from the
// contents API without inline content and are streamed instead.
func (f *Fetcher) download(ctx context.Context, loc Location) (io.ReadCloser, error) {
	opts := &gh.RepositoryContentGetOptions{Ref: loc.Ref}
	file, dir, _, err := f.gh.Repositories.GetContents(ctx, loc.Owner, loc.Repo, loc.Path, opts)
	if err != nil {
		return nil, wrapError(err, loc)
	}
	if file == nil || dir != nil {
		return nil, fmt.Errorf("%w: %s is a directory, not a file", domain.ErrInvalidInput, loc.Path)
	}

	if file.GetEncoding() == "base64" && file.Content != nil {
		decoded, err := file.GetContent()
		if err != nil {
			return nil, fmt.Errorf("decode content: %w", err)
		}
		return io.NopCloser(strings.NewReader(decoded)), nil
	}

	rc, _, err := f.gh.Repositories.DownloadContents(ctx, loc.Owner, loc.Repo, loc.Path, opts)
	if err != nil {
		return nil, wrapError(err, loc)
	}
	return rc, nil
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

// wrapError maps GitHub API failures to domain errors.
func wrapError(err error, loc Location) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%w: github rate limit exceeded", domain.ErrTransientAPI)
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return fmt.Errorf("%w: github secondary rate limit", domain.ErrTransientAPI)
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch code := respErr.Response.StatusCode; {
		case code == http.StatusNotFound:
			return fmt.Errorf("%w: %s/%s/%s", domain.ErrNotFound, loc.Owner, loc.Repo, loc.Path)
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return fmt.Errorf("%w: github rejected the request: %s", domain.ErrConfiguration, respErr.Message)
		case code >= 500:
			return fmt.Errorf("%w: github returned %d", domain.ErrTransientAPI, code)
		}
	}
	return fmt.Errorf("github %s/%s/%s: %w", loc.Owner, loc.Repo, loc.Path, err)
}
