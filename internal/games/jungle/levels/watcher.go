package levels

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces editor save bursts into one reload.
const reloadDebounce = 200 * time.Millisecond

// Watcher reloads a catalog when level files in a directory change.
type Watcher struct {
	dir      string
	loader   *Loader
	catalog  *Catalog
	logger   *log.Logger
	onReload func([]Level)
}

// NewWatcher creates a watcher for dir that refreshes catalog.
// onReload, if non-nil, is called after every successful reload.
func NewWatcher(dir string, catalog *Catalog, logger *log.Logger, onReload func([]Level)) *Watcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{
		dir:      dir,
		loader:   NewLoader(dir),
		catalog:  catalog,
		logger:   logger,
		onReload: onReload,
	}
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("levels: create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("levels: watch %s: %w", w.dir, err)
	}
	w.logger.Info("Watching levels", "dir", w.dir)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("Level file changed", "file", filepath.Base(event.Name), "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.Reload()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)
		}
	}
}

// Reload rescans the directory and swaps the catalog contents. Broken files
// are logged and left out; an empty result keeps the old catalog.
func (w *Watcher) Reload() {
	levels, failures, err := w.loader.Check()
	if err != nil {
		w.logger.Error("Level reload failed", "error", err)
		return
	}
	for _, f := range failures {
		w.logger.Warn("Skipping level file", "file", f.Path, "error", f.Err)
	}
	if len(levels) == 0 {
		w.logger.Warn("No valid levels after reload, keeping previous catalog")
		return
	}

	w.catalog.Replace(levels)
	w.logger.Info("Levels reloaded", "count", len(levels))
	if w.onReload != nil {
		w.onReload(levels)
	}
}

func relevant(e fsnotify.Event) bool {
	if !isSupportedExtension(strings.ToLower(filepath.Ext(e.Name))) {
		return false
	}
	return e.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
