package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"medley/internal/config"
	"medley/internal/deps"
	"medley/internal/library"
	"medley/internal/logging"
	"medley/internal/media/thumbs"
	"medley/internal/notifications"
	"medley/internal/scanner"
	"medley/internal/search"
	"medley/internal/workflow"
)

// Daemon coordinates the scanner, workflow, and API server and enforces
// single-instance execution via a lock file.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *library.Store
	workflow *workflow.Manager
	scanner  *scanner.Scanner
	searcher *search.Searcher
	notifier notifications.Service
	thumbs   *thumbs.Generator

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
	Workflow     workflow.Status
	Dependencies []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *library.Store, logger *slog.Logger, wf *workflow.Manager, scan *scanner.Scanner, searcher *search.Searcher, notifier notifications.Service) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil || scan == nil {
		return nil, errors.New("daemon requires config, store, logger, workflow manager, and scanner")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "medleyd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: wf,
		scanner:  scan,
		searcher: searcher,
		notifier: notifier,
		thumbs:   thumbs.NewGenerator(cfg),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	server, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = server
	return d, nil
}

// Start acquires the daemon lock and launches background processing.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another medley daemon instance is already running")
	}

	// Items stranded mid-stage by the previous run, clean shutdown or not,
	// go back to their entry status before the workflow starts picking work.
	if reset, err := d.store.ResetStuckProcessing(ctx); err != nil {
		d.logger.Warn("reset stuck processing failed", logging.Error(err))
	} else if reset > 0 {
		d.logger.Info("reset stuck items from previous run", logging.Int64("count", reset))
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}

	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			d.workflow.Stop()
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.startBackgroundScans()
	d.logger.Info("medley daemon started",
		logging.String("lock", d.lockPath),
		logging.String("database", d.store.Path()))
	return nil
}

// startBackgroundScans kicks off the initial scan, the periodic rescan
// ticker, and the filesystem watcher when enabled.
func (d *Daemon) startBackgroundScans() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.TriggerScan(d.ctx)
	}()

	if interval := time.Duration(d.cfg.Scanner.RescanIntervalMins) * time.Minute; interval > 0 {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-d.ctx.Done():
					return
				case <-ticker.C:
					d.TriggerScan(d.ctx)
				}
			}
		}()
	}

	if d.cfg.Scanner.WatchEnabled {
		watcher := scanner.NewWatcher(d.cfg, d.logger, func(ctx context.Context) {
			d.TriggerScan(ctx)
		})
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			if err := watcher.Run(d.ctx); err != nil && !errors.Is(err, context.Canceled) {
				d.logger.Warn("watcher stopped", logging.Error(err))
			}
		}()
	}
}

// TriggerScan runs a library scan and fires the completion notification.
func (d *Daemon) TriggerScan(ctx context.Context) scanner.Result {
	result, err := d.scanner.Scan(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			d.logger.Error("library scan failed", logging.Error(err))
			if notifyErr := d.notifier.NotifyError(ctx, err, "library scan"); notifyErr != nil {
				d.logger.Debug("scan error notification failed", logging.Error(notifyErr))
			}
		}
		return result
	}
	if result.Added > 0 || result.Changed > 0 || result.Missing > 0 {
		if err := d.notifier.NotifyScanCompleted(ctx, result.Added, result.Changed, result.Missing); err != nil {
			d.logger.Debug("scan notification failed", logging.Error(err))
		}
	}
	return result
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if d.api != nil {
		d.api.stop()
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("medley daemon stopped")
}

// Running reports whether the daemon is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status reports daemon runtime information including dependency health.
func (d *Daemon) Status(ctx context.Context) Status {
	wfStatus, err := d.workflow.Status(ctx)
	if err != nil {
		d.logger.Warn("workflow status failed", logging.Error(err))
	}

	statuses := deps.CheckBinaries(deps.Requirements(d.cfg))
	statuses = append(statuses, deps.CheckOllama(ctx, d.cfg))

	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		Workflow:     wfStatus,
		Dependencies: statuses,
	}
}
