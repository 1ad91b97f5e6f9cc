package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"prism/internal/config"
	"prism/internal/libinfo"
	"prism/internal/logging"
	"prism/internal/mirror"
	"prism/internal/notifications"
	"prism/internal/orphan"
	"prism/internal/preflight"
	"prism/internal/scheduler"
	"prism/internal/services/jellyfin"
	"prism/internal/watch"
)

// Daemon coordinates the background mirror services and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *mirror.Store
	host      jellyfin.Service
	scheduler *scheduler.Manager
	watcher   *watch.Watcher
	projector *libinfo.Projector
	logPath   string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Scheduler    scheduler.StatusSummary
	DatabasePath string
	LockFilePath string
	PID          int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *mirror.Store, host jellyfin.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || host == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, host, and logger")
	}

	sched := scheduler.NewManager(cfg, store, host, logger)
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		store:     store,
		host:      host,
		scheduler: sched,
		watcher:   watch.New(cfg, store, host, sched.Kick, logger),
		projector: libinfo.NewProjector(store, host),
		logPath:   filepath.Join(cfg.Paths.LogDir, "prism.log"),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start launches the background services and acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another prism daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	d.logPreflight(d.ctx)

	if reset, err := d.store.ResetStuckSyncing(d.ctx); err != nil {
		logging.WarnWithContext(d.logger, "interrupted syncs not reset", "stuck_reset_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the mirror database"),
			logging.String(logging.FieldImpact, "mirrors may show a stale syncing status"))
	} else if reset > 0 {
		d.logger.Info("interrupted syncs reset to pending", logging.Int64("mirrors", reset))
	}

	if err := d.scheduler.Start(d.ctx); err != nil {
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		_ = d.lock.Unlock()
		return fmt.Errorf("start scheduler: %w", err)
	}
	if d.cfg.Sync.Watch {
		if err := d.watcher.Start(d.ctx); err != nil {
			logging.WarnWithContext(d.logger, "filesystem watcher not started", "watch_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "changes are picked up by interval polling only"))
		}
	}

	d.running.Store(true)
	d.logger.Info("prism daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background services and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.watcher.Stop()
	d.scheduler.Stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "daemon lock not released", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the lock file manually if the daemon will not restart"))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("prism daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// SyncNow requests an immediate sync pass. An empty mirrorID syncs every mirror.
func (d *Daemon) SyncNow(mirrorID string) {
	d.scheduler.Kick(mirrorID)
}

// CleanupNow removes mirrors whose source or mirror library disappeared.
func (d *Daemon) CleanupNow(ctx context.Context) (*orphan.Result, error) {
	return d.scheduler.CleanupNow(ctx)
}

// ListMirrors returns all mirror records.
func (d *Daemon) ListMirrors(ctx context.Context) ([]*mirror.Mirror, error) {
	if d.store == nil {
		return nil, errors.New("mirror store unavailable")
	}
	return d.store.ListMirrors(ctx)
}

// ListAlternatives returns all configured language alternatives.
func (d *Daemon) ListAlternatives(ctx context.Context) ([]*mirror.Alternative, error) {
	if d.store == nil {
		return nil, errors.New("mirror store unavailable")
	}
	return d.store.ListAlternatives(ctx)
}

// Libraries returns the media server libraries annotated with mirror ownership.
func (d *Daemon) Libraries(ctx context.Context) ([]libinfo.Library, error) {
	return d.projector.List(ctx)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		Scheduler:    d.scheduler.Status(ctx),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
		PID:          os.Getpid(),
	}
}

func (d *Daemon) logPreflight(ctx context.Context) {
	for _, result := range preflight.RunAll(ctx, d.cfg) {
		d.logPreflightResult(result)
	}

	// Unreachable hosts were already reported by the Jellyfin check above.
	if info, err := d.host.SystemInfo(ctx); err == nil {
		d.logger.Info("jellyfin host",
			logging.String("server", info.ServerName),
			logging.String("version", info.Version))
	}

	mirrors, err := d.store.ListMirrors(ctx)
	if err != nil || len(mirrors) == 0 {
		return
	}
	libraries, err := d.host.ListLibraries(ctx)
	if err != nil {
		d.logger.Debug("mirror preflight skipped", logging.Error(err))
		return
	}
	for _, result := range preflight.RunMirrorChecks(mirrors, libraries) {
		d.logPreflightResult(result)
	}
}

func (d *Daemon) logPreflightResult(result preflight.Result) {
	if result.Passed {
		d.logger.Info("preflight check passed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail))
		return
	}
	logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
		logging.String("check", result.Name),
		logging.String("detail", result.Detail),
		logging.String(logging.FieldErrorHint, "fix the reported issue and restart the daemon"),
		logging.String(logging.FieldImpact, "mirror syncs may fail until resolved"))
}

