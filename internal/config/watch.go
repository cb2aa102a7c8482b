package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the config file when it changes on disk.
type Watcher struct {
	path     string
	fs       *fsnotify.Watcher
	clock    clock.Clock
	debounce time.Duration
	logger   *zap.SugaredLogger
}

// NewWatcher watches the directory holding path, so editors that replace the
// file instead of writing it in place are seen too.
func NewWatcher(path string, clk clock.Clock, logger *zap.SugaredLogger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Watcher{path: abs, fs: fs, clock: clk, debounce: 200 * time.Millisecond, logger: logger}, nil
}

// Run calls apply with every successfully reloaded config until ctx is
// cancelled. Bursts of events are coalesced. Invalid files are logged and
// skipped.
func (w *Watcher) Run(ctx context.Context, apply func(Config) error) error {
	defer w.fs.Close()

	var pending <-chan time.Time
	var timer *clock.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = w.clock.Timer(w.debounce)
			pending = timer.C
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("config watch error", "error", err)
		case <-pending:
			pending = nil
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Warnw("ignoring invalid config change", "path", w.path, "error", err)
				continue
			}
			if err := apply(cfg); err != nil {
				w.logger.Warnw("failed to apply config change", "error", err)
				continue
			}
			w.logger.Infow("config reloaded", "path", w.path)
		}
	}
}
