package scheduler

import (
	"context"
	"time"

	"prism/internal/logging"
	"prism/internal/mirror"
)

// StatusSummary represents lightweight scheduler diagnostics.
type StatusSummary struct {
	Running   bool
	LastError string
	LastCycle time.Time
	Stats     mirror.Summary
}

// Status returns the latest scheduler information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastCycle := m.lastCycle
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read mirror stats", logging.Error(err))
	}

	summary := StatusSummary{Running: running, LastCycle: lastCycle, Stats: stats}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
