package scheduler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"prism/internal/logging"
	"prism/internal/orphan"
	"prism/internal/services"
)

func (m *Manager) runCleanup(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.cleanupInterval):
			if _, err := m.CleanupNow(ctx); err != nil && !errors.Is(err, context.Canceled) {
				m.setLastError(err)
			}
		}
	}
}

// CleanupNow runs one orphan-cleanup pass and reports the outcome. The
// periodic sweep and the control socket both use it.
func (m *Manager) CleanupNow(ctx context.Context) (*orphan.Result, error) {
	ctx = services.WithOperation(ctx, "cleanup")
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, m.logger)

	result, err := m.cleaner.CleanupOrphanedMirrors(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.ErrorWithContext(logger, "orphan cleanup", "cleanup_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check jellyfin connectivity and database access"),
			)
		}
		return nil, err
	}
	if result.Cleaned == 0 {
		return result, nil
	}

	logger.Info("orphan cleanup finished",
		logging.Int("cleaned", result.Cleaned),
		logging.Int64("bytes_freed", result.BytesFreed),
	)
	for _, reason := range result.Reasons {
		logger.Info("mirror cleaned", logging.String("reason", reason))
	}
	if len(result.UnmirroredSourceIDs) > 0 {
		logger.Info("sources left without mirrors",
			logging.String("library_ids", strings.Join(result.UnmirroredSourceIDs, ", ")),
		)
	}
	if err := m.notifier.NotifyCleanupCompleted(ctx, result.Cleaned, result.BytesFreed); err != nil {
		logger.Debug("cleanup notification failed", logging.Error(err))
	}
	return result, nil
}
