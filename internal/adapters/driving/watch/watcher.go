// Package watch decodes policy documents dropped into an inbox directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is decoded.
const DefaultDebounce = 500 * time.Millisecond

// Decoder turns a file reference into a session.
type Decoder interface {
	Decode(ctx context.Context, ref string) (*domain.Session, error)
}

// Result reports the outcome of decoding one inbox file.
type Result struct {
	Path    string
	Session *domain.Session
	Err     error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithSupports replaces the file filter.
func WithSupports(fn func(path string) bool) Option {
	return func(w *Watcher) {
		if fn != nil {
			w.supports = fn
		}
	}
}

// Watcher decodes each new supported file in one directory.
// Files are decoded one at a time in the order they settle.
type Watcher struct {
	dir      string
	decoder  Decoder
	debounce time.Duration
	supports func(path string) bool

	mu      sync.Mutex
	pending map[string]*time.Timer
	done    map[string]bool
}

// New creates a watcher for dir.
func New(dir string, decoder Decoder, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		decoder:  decoder,
		debounce: DefaultDebounce,
		supports: defaultSupports,
		pending:  make(map[string]*time.Timer),
		done:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func defaultSupports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".docx", ".html", ".htm", ".txt":
		return true
	}
	return false
}

// Run watches until ctx is cancelled, calling onResult after each decode.
func (w *Watcher) Run(ctx context.Context, onResult func(Result)) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("inbox %s: %w", w.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: inbox %s is not a directory", domain.ErrInvalidInput, w.dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("Watching %s for new policies", w.dir)

	ready := make(chan string)
	quit := make(chan struct{})
	defer close(quit)
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event, ready, quit)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logger.Warn("Watcher event queue overflowed; some files may be missed")
				continue
			}
			return fmt.Errorf("watching %s: %w", w.dir, err)

		case path := <-ready:
			w.decode(ctx, path, onResult)
		}
	}
}

// handleEvent schedules or cancels a decode for the event's file.
func (w *Watcher) handleEvent(event fsnotify.Event, ready chan<- string, quit <-chan struct{}) {
	path := event.Name
	if !w.candidate(path) {
		return
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.forget(path)
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			return
		}
		w.schedule(path, ready, quit)
	}
}

// candidate reports whether path is a visible, supported file name.
func (w *Watcher) candidate(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
		return false
	}
	return w.supports(path)
}

func (w *Watcher) schedule(path string, ready chan<- string, quit <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done[path] {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		select {
		case ready <- path:
		case <-quit:
		}
	})
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
	delete(w.done, path)
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// decode handles a settled path once. A timer re-armed after it fired can
// deliver the same path again; that delivery is dropped.
func (w *Watcher) decode(ctx context.Context, path string, onResult func(Result)) {
	w.mu.Lock()
	delete(w.pending, path)
	if w.done[path] {
		w.mu.Unlock()
		return
	}
	w.done[path] = true
	w.mu.Unlock()

	logger.Section("Decoding " + filepath.Base(path))
	session, err := w.decoder.Decode(ctx, path)
	if err != nil {
		logger.Warn("Decoding %s failed: %v", path, err)
	}
	if onResult != nil {
		onResult(Result{Path: path, Session: session, Err: err})
	}
}
