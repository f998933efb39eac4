package batch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/pdfraster/constants"
	"github.com/joseph-ayodele/pdfraster/internal/common"
)

// WatchConfig configures Watch.
type WatchConfig struct {
	Root        string
	InitialScan bool          // also emit PDFs already present
	SkipHidden  bool
	Debounce    time.Duration // coalesce bursts of writes to one emit
}

// Watch emits the path of every PDF created or rewritten under cfg.Root,
// recursively, until ctx ends. Both channels are closed when it stops.
func Watch(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "watcher", "root", cfg.Root)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, common.WrapError(err, "create watcher")
	}

	var initial []string
	err = filepath.WalkDir(cfg.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if cfg.SkipHidden && path != cfg.Root && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return w.Add(path)
		}
		if cfg.InitialScan && constants.IsPDFExt(filepath.Ext(path)) {
			initial = append(initial, path)
		}
		return nil
	})
	if err != nil {
		_ = w.Close()
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, common.NotFoundError("watch root "+cfg.Root, err)
		}
		return nil, nil, common.WrapError(err, "watch "+cfg.Root)
	}

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("failed to close watcher", "error", err)
			}
		}()

		emit := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, p := range initial {
			if !emit(p) {
				return
			}
		}

		pending := map[string]struct{}{}
		var timer *time.Timer
		var fire <-chan time.Time
		flush := func() bool {
			for p := range pending {
				delete(pending, p)
				if !emit(p) {
					return false
				}
			}
			return true
		}

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) {
					// New directories are watched too; Add fails harmlessly for files.
					if err := w.Add(e.Name); err == nil {
						logger.Debug("watching new directory", "path", e.Name)
					}
				}
				if cfg.SkipHidden && isHidden(e.Name) {
					continue
				}
				if !constants.IsPDFExt(filepath.Ext(e.Name)) || !(e.Has(fsnotify.Create) || e.Has(fsnotify.Write)) {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce <= 0 {
					if !flush() {
						return
					}
					continue
				}
				if timer == nil {
					timer = time.NewTimer(cfg.Debounce)
				} else {
					timer.Reset(cfg.Debounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				if !flush() {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}
