package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/colonyops/chirp/pkg/deferred"
)

// DefaultReloadDelay coalesces bursts of writes (editors often write a file
// in several steps) into a single reload.
const DefaultReloadDelay = 250 * time.Millisecond

// Watcher reloads the config file whenever it changes on disk.
type Watcher struct {
	path     string
	delay    time.Duration
	onChange func(*Config)
	log      zerolog.Logger
}

// NewWatcher creates a watcher for path. onChange receives every config that
// loads and validates successfully; invalid edits are logged and skipped.
func NewWatcher(path string, onChange func(*Config), log zerolog.Logger) *Watcher {
	return &Watcher{
		path:     path,
		delay:    DefaultReloadDelay,
		onChange: onChange,
		log:      log,
	}
}

// Run watches until ctx is cancelled. The parent directory is watched rather
// than the file so that atomic rename-over saves are picked up.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	reload, err := deferred.NewDebouncer(w.reload, w.delay, deferred.WithErrorHandler(func(err error) {
		w.log.Warn().Err(err).Str("path", w.path).Msg("config reload failed")
	}))
	if err != nil {
		return err
	}
	defer reload.Cancel()

	target := filepath.Clean(w.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.log.Debug().Str("op", ev.Op.String()).Msg("config change detected; scheduling reload")
				reload.Trigger(w.path)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) reload(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}

	w.log.Info().Str("path", path).Msg("config reloaded")
	w.onChange(cfg)
	return nil
}
