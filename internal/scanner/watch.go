package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"medley/internal/config"
	"medley/internal/logging"
)

// Watcher observes the library roots with fsnotify and invokes a callback
// after filesystem activity settles. Events are debounced so a large copy
// triggers a single rescan instead of one per file.
type Watcher struct {
	cfg      *config.Config
	logger   *slog.Logger
	debounce time.Duration
	onSettle func(context.Context)
}

// NewWatcher constructs a watcher that calls onSettle after activity quiets.
func NewWatcher(cfg *config.Config, logger *slog.Logger, onSettle func(context.Context)) *Watcher {
	debounce := time.Duration(cfg.Scanner.WatchDebounceSeconds) * time.Second
	if debounce <= 0 {
		debounce = 5 * time.Second
	}
	return &Watcher{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "watcher"),
		debounce: debounce,
		onSettle: onSettle,
	}
}

// Run watches until the context is canceled. Subdirectories created while
// watching are added to the watch set as they appear.
func (w *Watcher) Run(ctx context.Context) error {
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer notifier.Close()

	for _, root := range w.cfg.Library.Roots {
		if err := addRecursive(notifier, root); err != nil {
			w.logger.Warn("watch root", logging.String(logging.FieldPath, root), logging.Error(err))
		}
	}
	w.logger.Info("watching library roots", logging.Int("roots", len(w.cfg.Library.Roots)))

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-notifier.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(notifier, event.Name); err != nil {
						w.logger.Warn("watch new directory", logging.String(logging.FieldPath, event.Name), logging.Error(err))
					}
				}
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
				!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("filesystem event", logging.String(logging.FieldPath, event.Name), logging.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case err, ok := <-notifier.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", logging.Error(err))
		case <-timerC:
			timer = nil
			timerC = nil
			w.logger.Info("filesystem activity settled, triggering scan")
			w.onSettle(ctx)
		}
	}
}

func addRecursive(notifier *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		return notifier.Add(path)
	})
}
