package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"adscope/internal/config"
	"adscope/internal/deps"
	"adscope/internal/extractor"
	"adscope/internal/features/objects"
	"adscope/internal/logging"
	"adscope/internal/ocr"
	"adscope/internal/records"
)

// Daemon ties the assembler, the optional record cache, and the API server
// together and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *records.Store
	assembler *extractor.Assembler
	depStatus []deps.Status

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon. The record store may be nil when caching is
// disabled.
func New(cfg *config.Config, store *records.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "adscoped.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock, runs the dependency preflight, and brings
// the API server up.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another adscope daemon instance is already running")
	}

	d.depStatus = deps.CheckBinaries(deps.Requirements(d.cfg))
	for _, dep := range d.depStatus {
		if dep.Available {
			d.logger.Info("dependency available",
				logging.String("name", dep.Name),
				logging.String("command", dep.Command))
			continue
		}
		// Missing video tooling degrades to image-only service rather than
		// refusing to start.
		d.logger.Warn("dependency missing",
			logging.String("name", dep.Name),
			logging.String("detail", dep.Detail))
	}

	d.assembler = extractor.New(d.cfg, d.logger, d.buildOCREngine(), objects.NewNoop())

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	server, err := newAPIServer(d.cfg, d, d.logger)
	if err != nil {
		_ = d.lock.Unlock()
		cancel()
		return err
	}
	d.api = server
	if err := d.api.start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return err
	}

	d.running.Store(true)
	d.logger.Info("adscope daemon started", logging.String("lock", d.lockPath))
	return nil
}

// buildOCREngine selects the recognizer: tesseract when OCR is enabled and the
// binary was found, the noop engine otherwise. A missing optional binary
// degrades rather than fails.
func (d *Daemon) buildOCREngine() ocr.Engine {
	if !d.cfg.OCR.Enabled {
		return ocr.NoopEngine{}
	}
	if !deps.Available(d.depStatus, deps.NameTesseract) {
		d.logger.Warn("ocr enabled but tesseract missing, text recognition disabled")
		return ocr.NoopEngine{}
	}
	return ocr.NewTesseract(d.cfg, d.logger)
}

// Stop shuts the API server down and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("adscope daemon stopped")
}

// Close stops the daemon and closes the record cache.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether Start succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// APIAddr returns the bound API address, resolving ":0" binds to the actual
// listener port. Empty when the server is not running.
func (d *Daemon) APIAddr() string {
	if d.api == nil || d.api.listener == nil {
		return ""
	}
	return d.api.listener.Addr().String()
}
