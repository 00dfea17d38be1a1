package catalog

import (
	"context"
	"fmt"
	"path/filepath"

	"cafe-calorie/internal/logging"
	"cafe-calorie/internal/planner"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher serves a catalog file and reloads it when the file changes.
// A file that fails to load leaves the previous catalog in place.
type Watcher struct {
	path    string
	store   *Static
	watcher *fsnotify.Watcher
	logger  zerolog.Logger

	// OnReload, when set, is called after every reload attempt.
	OnReload func(err error)
}

// NewWatcher loads path and prepares to watch it.
func NewWatcher(path string) (*Watcher, error) {
	cafes, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Editors often replace the file, so watch the directory.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	return &Watcher{
		path:    filepath.Clean(path),
		store:   NewStatic(cafes),
		watcher: fw,
		logger:  logging.With("catalog-watcher"),
	}, nil
}

// Dishes returns the most recently loaded catalog.
func (w *Watcher) Dishes(ctx context.Context) ([]planner.Dish, error) {
	return w.store.Dishes(ctx)
}

// Cafes returns the most recently loaded menus.
func (w *Watcher) Cafes() []Cafe {
	return w.store.Cafes()
}

// Reload reads the file again.
func (w *Watcher) Reload() error {
	cafes, err := LoadFile(w.path)
	if err != nil {
		return err
	}
	w.store.Replace(cafes)
	return nil
}

// Run processes file events until ctx is cancelled or the watcher is closed.
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
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			err := w.Reload()
			if err != nil {
				w.logger.Warn().Err(err).Str("path", w.path).Msg("catalog reload failed, keeping previous catalog")
			} else {
				w.logger.Info().Str("path", w.path).Msg("catalog reloaded")
			}
			if w.OnReload != nil {
				w.OnReload(err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("file watcher error")
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
