package purge

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"workdeck/pkg/logger"
)

// PolicyWatcher hot-reloads the retention policy when its file changes.
// Reload events are debounced because editors fire bursts of writes; a
// file that fails to load leaves the active policy untouched.
type PolicyWatcher struct {
	sweeper  *Sweeper
	path     string
	debounce time.Duration
}

// NewPolicyWatcher watches path and swaps reloaded policies into the
// sweeper.
func NewPolicyWatcher(sweeper *Sweeper, path string) *PolicyWatcher {
	return &PolicyWatcher{
		sweeper:  sweeper,
		path:     path,
		debounce: 200 * time.Millisecond,
	}
}

// Watch blocks until the context is cancelled. The parent directory is
// watched rather than the file itself so atomic-rename saves keep
// working.
func (w *PolicyWatcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create policy watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info(ctx, "retention policy watcher started", "path", w.path)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("policy watcher events channel closed")
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.reload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("policy watcher errors channel closed")
			}
			logger.Warn(ctx, "policy watcher error", "error", err)
		}
	}
}

func (w *PolicyWatcher) reload(ctx context.Context) {
	policy, err := Load(w.path)
	if err != nil {
		logger.Error(ctx, "retention policy reload failed, keeping active policy",
			"path", w.path, "error", err)
		return
	}
	if err := w.sweeper.SetPolicy(policy); err != nil {
		logger.Error(ctx, "retention policy rejected, keeping active policy",
			"path", w.path, "error", err)
		return
	}
	logger.Info(ctx, "retention policy reloaded", "path", w.path,
		"schedule", policy.Schedule, "kinds", len(policy.RetentionDays))
}
