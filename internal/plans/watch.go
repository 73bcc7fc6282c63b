package plans

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates a Library's cache whenever markdown under the
// plans root changes, so the inspector never serves a stale plan path.
// Bursts of filesystem events coalesce into a single invalidation per
// debounce window.
type Watcher struct {
	library  *Library
	logger   *slog.Logger
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

func NewWatcher(library *Library, logger *slog.Logger, debounce time.Duration) (*Watcher, error) {
	fileWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = time.Second
	}
	return &Watcher{
		library:  library,
		logger:   logger,
		debounce: debounce,
		watcher:  fileWatcher,
	}, nil
}

func (w *Watcher) Start(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.addRecursive(w.library.Root()); err != nil {
		return err
	}
	w.logger.Info("plan watcher started", "root", w.library.Root())

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("plan watcher stopped")
			return nil
		case event := <-w.watcher.Events:
			if w.handleEvent(event) {
				timer.Reset(w.debounce)
			}
		case <-timer.C:
			w.library.Invalidate()
		case err := <-w.watcher.Errors:
			if err != nil {
				w.logger.Error("plan watcher error", "error", err)
			}
		}
	}
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch path %s: %w", path, err)
		}
		return nil
	})
}

// handleEvent reports whether the event warrants an invalidation.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Error("failed to watch new plan directory", "path", event.Name, "error", err)
			}
			return true
		}
	}
	if filepath.Ext(event.Name) != ".md" {
		return false
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	w.logger.Info("plan changed", "path", event.Name, "op", event.Op.String())
	return true
}
