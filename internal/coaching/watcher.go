package coaching

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"workout_coach/internal/logger"
	"workout_coach/internal/models"
)

const reloadDebounce = 250 * time.Millisecond

// ReloadFunc receives the freshly parsed templates after the seed file changes.
type ReloadFunc func([]models.ResponseTemplate)

// Watcher reloads a template seed file when it changes on disk. Editors
// often replace files instead of writing in place, so the parent directory
// is watched and events are filtered by name.
type Watcher struct {
	path     string
	onReload ReloadFunc
	log      *logger.Logger
}

func NewWatcher(path string, onReload ReloadFunc, log *logger.Logger) *Watcher {
	return &Watcher{path: path, onReload: onReload, log: logger.OrNop(log)}
}

// Run blocks until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.log.Infow("template_watcher_started", "path", w.path)

	target := filepath.Clean(w.path)
	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.log.Debugw("template_file_event", "op", event.Op.String(), "file", event.Name)
				debounce = time.After(reloadDebounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Errorw("template_watcher_error", "error", err)
		case <-debounce:
			debounce = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	ts, err := LoadTemplateFile(w.path)
	if err != nil {
		// The previous bank stays in place.
		w.log.Warnw("template_reload_failed", "path", w.path, "error", err)
		return
	}
	w.onReload(ts)
	w.log.Infow("templates_reloaded", "path", w.path, "count", len(ts))
}
