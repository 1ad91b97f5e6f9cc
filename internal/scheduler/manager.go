package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"log/slog"

	"prism/internal/classify"
	"prism/internal/config"
	"prism/internal/logging"
	"prism/internal/mirror"
	"prism/internal/notifications"
	"prism/internal/orphan"
	"prism/internal/reconcile"
	"prism/internal/services/jellyfin"
)

// Manager drives the recurring reconciliation loops: a sync cycle over every
// mirror at the configured interval, and a slower orphan-cleanup sweep. A
// kick channel lets the watcher and the control socket request an immediate
// cycle without waiting out the interval.
type Manager struct {
	cfg      *config.Config
	store    *mirror.Store
	host     jellyfin.Service
	syncer   *reconcile.Syncer
	cleaner  *orphan.Cleaner
	notifier notifications.Service
	logger   *slog.Logger

	syncInterval    time.Duration
	cleanupInterval time.Duration

	kicks chan string

	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastErr   error
	lastCycle time.Time
}

// NewManager constructs a scheduler manager.
func NewManager(cfg *config.Config, store *mirror.Store, host jellyfin.Service, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, host, notifications.NewService(cfg), logger)
}

// NewManagerWithNotifier constructs a scheduler manager with a custom notifier (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *mirror.Store, host jellyfin.Service, notifier notifications.Service, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "scheduler")
	return &Manager{
		cfg:             cfg,
		store:           store,
		host:            host,
		syncer:          reconcile.NewSyncer(store, classify.New(cfg), logger),
		cleaner:         orphan.NewCleaner(store, host, logger),
		notifier:        notifier,
		logger:          logger,
		syncInterval:    time.Duration(cfg.Sync.Interval) * time.Second,
		cleanupInterval: time.Duration(cfg.Sync.CleanupInterval) * time.Second,
		kicks:           make(chan string, 16),
	}
}

// Start begins the background loops.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("scheduler already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(2)
	m.mu.Unlock()

	go m.runSync(runCtx)
	go m.runCleanup(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Kick requests an immediate sync cycle. An empty mirror id syncs every
// mirror. The request is dropped when the kick backlog is full; the pending
// cycles cover it.
func (m *Manager) Kick(mirrorID string) {
	select {
	case m.kicks <- mirrorID:
	default:
	}
}
