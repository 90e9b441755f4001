// Package watch reloads the checklist document when its file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/spacecheck/internal/domain/checklist"
)

// ChecklistWatcher watches the checklist file and reloads the store when
// the file is rewritten. Watching the parent directory instead of the file
// itself survives editors that save via rename.
type ChecklistWatcher struct {
	store    *checklist.Store
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger
}

// NewChecklistWatcher creates a watcher for the store's checklist file.
func NewChecklistWatcher(store *checklist.Store, path string, debounce time.Duration, logger zerolog.Logger) (*ChecklistWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce == 0 {
		debounce = 500 * time.Millisecond
	}
	return &ChecklistWatcher{
		store:    store,
		path:     filepath.Clean(path),
		debounce: debounce,
		watcher:  w,
		logger:   logger.With().Str("component", "checklist-watcher").Logger(),
	}, nil
}

// Run starts the event loop. It blocks until the context is cancelled.
func (w *ChecklistWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	debouncer := NewDebouncer(w.debounce, func() {
		if err := w.store.Reload(); err != nil {
			w.logger.Warn().Err(err).Msg("checklist reload failed, previous snapshot kept")
			return
		}
		w.logger.Info().
			Int64("version", w.store.Current().Version()).
			Msg("checklist reloaded")
	})
	defer debouncer.Stop()

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
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename) {
				debouncer.Trigger(ctx)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}
