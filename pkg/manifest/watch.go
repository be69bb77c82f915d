package manifest

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watch reloads the manifest file at path whenever it changes and calls
// onChange with the result. It blocks until ctx is done.
//
// The parent directory is watched rather than the file, so editors that
// replace the file on save are still seen.
func Watch(ctx context.Context, path string, onChange func(*Manifest, error), opts WatchOptions) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "manifest")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Debug("watching manifest", "path", abs)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(opts.Debounce)
			} else {
				timer.Reset(opts.Debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			m, err := Load(ctx, abs, LoadOptions{})
			if err != nil {
				logger.Warn("manifest reload failed", "path", abs, "error", err)
			} else {
				logger.Info("manifest reloaded", "path", abs)
			}
			onChange(m, err)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("manifest watcher error", "error", err)
		}
	}
}
