// Package watcher reports changes to a bookmark store file on disk.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nikbrunner/bmpop/internal/logger"
)

// DefaultDebounceDuration is how long the file must be quiet before a
// change is reported.
const DefaultDebounceDuration = 200 * time.Millisecond

// ErrFileRemoved is reported when the watched file is deleted.
var ErrFileRemoved = errors.New("watched file was removed")

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithOnChange sets the callback invoked when the file changes.
func WithOnChange(fn func()) Option {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback invoked on watch errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Watcher) {
		w.log = l
	}
}

// Watcher monitors a file through its directory, so atomic replaces and
// SQLite sidecar files (-wal, -journal) are seen as well.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func()
	onError  func(error)
	log      logger.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher for path. It does nothing until Run is called.
func New(path string, opts ...Option) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     absPath,
		debounce: DefaultDebounceDuration,
		onChange: func() {},
		onError:  func(error) {},
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounceDuration
	}
	return w, nil
}

// Path returns the watched file path.
func (w *Watcher) Path() string {
	return w.path
}

// Run watches until ctx is cancelled. It returns nil on cancellation and an
// error if the directory cannot be watched.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.log.Debug("watching", logger.String("path", w.path))

	defer w.cancelPending()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.matches(event.Name) {
				continue
			}

			switch {
			case event.Op&fsnotify.Remove != 0 && filepath.Base(event.Name) == filepath.Base(w.path):
				w.onError(ErrFileRemoved)

			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.trigger()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", logger.Error(err))
			w.onError(err)
		}
	}
}

// matches reports whether name is the watched file or one of its sidecars.
func (w *Watcher) matches(name string) bool {
	base := filepath.Base(name)
	target := filepath.Base(w.path)
	return base == target || strings.HasPrefix(base, target+"-")
}

// trigger restarts the debounce timer.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
