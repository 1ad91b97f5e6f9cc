package scheduler

import (
	"context"
	"errors"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"prism/internal/logging"
	"prism/internal/mirror"
	"prism/internal/reconcile"
	"prism/internal/services"
	"prism/internal/services/jellyfin"
)

func (m *Manager) runSync(ctx context.Context) {
	defer m.wg.Done()

	// Converge once right after startup; a daemon restart should not wait a
	// full interval to repair mirrors that drifted while it was down.
	m.runCycle(ctx, "", false)

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.syncInterval):
			m.runCycle(ctx, "", false)
		case id := <-m.kicks:
			m.runCycle(ctx, id, true)
		}
	}
}

// runCycle synchronizes mirrors against one library listing. Routine polls
// stay quiet on success; requested cycles (kicks) send a completion
// notification so watcher-triggered syncs surface to the user.
func (m *Manager) runCycle(ctx context.Context, onlyID string, notify bool) {
	ctx = services.WithOperation(ctx, "sync")
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, m.logger)
	start := time.Now()

	libraries, err := m.host.ListLibraries(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		m.setLastError(err)
		logging.ErrorWithContext(logger, "list libraries", "library_list_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check jellyfin.url and jellyfin.api_key"),
			logging.String(logging.FieldImpact, "sync cycle skipped"),
		)
		return
	}
	byID := make(map[string]jellyfin.VirtualLibrary, len(libraries))
	for _, lib := range libraries {
		byID[lib.ID] = lib
	}

	mirrors, err := m.cycleMirrors(ctx, onlyID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		m.setLastError(err)
		logging.ErrorWithContext(logger, "load mirrors", "mirror_list_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check database access"),
		)
		return
	}

	synced, failed := 0, 0
	for _, mir := range mirrors {
		if ctx.Err() != nil {
			return
		}
		source, ok := byID[mir.SourceLibraryID]
		if !ok || len(source.Locations) == 0 {
			logging.WarnWithContext(logger, "source library unavailable; mirror skipped", "sync_skipped",
				logging.String(logging.FieldMirrorID, mir.ID),
				logging.String(logging.FieldLibraryID, mir.SourceLibraryID),
				logging.Alert("source_missing"),
				logging.String(logging.FieldImpact, "cleanup removes the mirror if the source stays gone"),
			)
			continue
		}

		err := m.syncer.Synchronize(ctx, mir, source.Locations, nil)
		switch {
		case err == nil:
			synced++
			m.refreshAfterSync(ctx, logger, mir)
		case errors.Is(err, context.Canceled):
			return
		case errors.Is(err, reconcile.ErrSyncInProgress):
			logger.Debug("mirror already syncing", logging.String(logging.FieldMirrorID, mir.ID))
		default:
			failed++
			m.setLastError(err)
			if nerr := m.notifier.NotifyMirrorFailed(ctx, mir.DisplayName(), err); nerr != nil {
				logger.Debug("mirror failure notification failed", logging.Error(nerr))
			}
		}
	}

	m.mu.Lock()
	m.lastCycle = time.Now()
	m.mu.Unlock()

	if synced == 0 && failed == 0 {
		return
	}
	logger.Info("sync cycle finished",
		logging.Int("synced", synced),
		logging.Int("failed", failed),
		logging.Duration("elapsed", time.Since(start)),
	)
	if notify {
		if err := m.notifier.NotifySyncCompleted(ctx, synced, failed, time.Since(start)); err != nil {
			logger.Debug("sync notification failed", logging.Error(err))
		}
	}
}

func (m *Manager) cycleMirrors(ctx context.Context, onlyID string) ([]*mirror.Mirror, error) {
	if onlyID == "" {
		return m.store.ListMirrors(ctx)
	}
	mir, err := m.store.GetMirror(ctx, onlyID)
	if err != nil {
		return nil, err
	}
	if mir == nil {
		return nil, nil
	}
	return []*mirror.Mirror{mir}, nil
}

// refreshAfterSync queues a default-mode metadata scan so newly linked
// content shows up without waiting for the server's own schedule.
func (m *Manager) refreshAfterSync(ctx context.Context, logger *slog.Logger, mir *mirror.Mirror) {
	if !m.cfg.Sync.RefreshAfterSync || !mir.Registered() {
		return
	}
	opts := jellyfin.RefreshOptions{
		MetadataRefreshMode: jellyfin.RefreshDefault,
		ImageRefreshMode:    jellyfin.RefreshDefault,
	}
	if err := m.host.RefreshLibrary(ctx, mir.TargetLibraryID, opts); err != nil {
		logger.Debug("post-sync refresh failed",
			logging.Error(err),
			logging.String(logging.FieldMirrorID, mir.ID),
		)
	}
}
