package inference

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Handle whenever its artifact file is replaced.
//
// Design decision: The directory is watched instead of the file because:
//  1. SaveArtifact renames a temporary file over the artifact, which replaces
//     the inode a file watch would be bound to
//  2. The artifact may not exist yet when watching starts
type Watcher struct {
	handle  *Handle
	path    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// onReload is called after every reload attempt with its result.
	onReload func(error)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger for reload events.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithReloadHook registers fn to be called after every reload attempt.
func WithReloadHook(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// NewWatcher starts watching the directory of path. Call Run to process
// events and Close to release the watch.
func NewWatcher(handle *Handle, path string, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		handle:  handle,
		path:    filepath.Clean(path),
		watcher: fw,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	return w, nil
}

// Run processes file events until ctx is done or the watcher is closed.
// A reload that fails keeps the previous model in place.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("model watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	err := w.handle.Load(w.path)
	if err != nil {
		w.logger.Warn("model reload failed, keeping previous model", "path", w.path, "error", err)
	} else {
		w.logger.Info("model reloaded", "path", w.path)
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
