// Package watcher re-runs a batch whenever files land in the watched folders.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Trigger runs one batch. Its error is logged and watching continues.
type Trigger func(ctx context.Context) error

// Watch starts an fsnotify watcher on dirs (absolute paths, not recursive)
// and calls trigger once activity has been quiet for debounce. It returns
// when ctx is cancelled.
//
// Only create and write events count. A batch moving files out of a
// watched folder produces rename/remove events, which must not schedule
// another batch.
func Watch(ctx context.Context, dirs []string, debounce time.Duration, logger *slog.Logger, trigger Trigger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watcher: add %s: %w", d, err)
		}
	}
	logger.Info("watcher: started", slog.Any("dirs", dirs), slog.Duration("debounce", debounce))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			logger.Debug("watcher: running batch")
			if err := trigger(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}
				logger.Error("watcher: batch failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
