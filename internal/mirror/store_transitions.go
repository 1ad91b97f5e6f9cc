package mirror

import (
	"context"
	"fmt"
)

// BeginSync claims a mirror for syncing. It reports false when another worker
// already holds the claim, so concurrent schedulers never sync the same tree.
func (s *Store) BeginSync(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE mirrors
         SET status = ?, progress_percent = 0, progress_message = '', last_error = NULL, updated_at = ?
         WHERE id = ? AND status != ?`,
		StatusSyncing,
		nowTimestamp(),
		id,
		StatusSyncing,
	)
	if err != nil {
		return false, fmt.Errorf("claim mirror for sync: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim mirror for sync: %w", err)
	}
	return rows == 1, nil
}

// SetSyncProgress records progress for an in-flight sync. Updates after the
// claim has been released are dropped silently.
func (s *Store) SetSyncProgress(ctx context.Context, id string, percent float64, message string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE mirrors SET progress_percent = ?, progress_message = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		percent,
		message,
		nowTimestamp(),
		id,
		StatusSyncing,
	); err != nil {
		return fmt.Errorf("update sync progress: %w", err)
	}
	return nil
}

// FinishSync marks a mirror as fully synchronized.
func (s *Store) FinishSync(ctx context.Context, id string, fileCount int) error {
	timestamp := nowTimestamp()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE mirrors
         SET status = ?, progress_percent = 100, progress_message = '',
             last_error = NULL, last_synced_at = ?, last_sync_file_count = ?, updated_at = ?
         WHERE id = ?`,
		StatusSynced,
		timestamp,
		fileCount,
		timestamp,
		id,
	); err != nil {
		return fmt.Errorf("finish sync: %w", err)
	}
	return nil
}

// FailSync records a sync failure. The progress fields keep their last values
// so operators can see how far the run got.
func (s *Store) FailSync(ctx context.Context, id string, message string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE mirrors SET status = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		StatusError,
		message,
		nowTimestamp(),
		id,
	); err != nil {
		return fmt.Errorf("record sync failure: %w", err)
	}
	return nil
}

// ReleaseSync returns an interrupted mirror to pending so the next scheduler
// pass picks it up again.
func (s *Store) ReleaseSync(ctx context.Context, id string, message string) error {
	if message == "" {
		message = InterruptedMessage
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE mirrors SET status = ?, progress_message = ?, updated_at = ? WHERE id = ?`,
		StatusPending,
		message,
		nowTimestamp(),
		id,
	); err != nil {
		return fmt.Errorf("release sync claim: %w", err)
	}
	return nil
}

// ResetStuckSyncing returns mirrors left in syncing by a crashed or killed
// daemon back to pending. Called once during startup before workers run.
func (s *Store) ResetStuckSyncing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE mirrors SET status = ?, progress_message = ?, updated_at = ? WHERE status = ?`,
		StatusPending,
		InterruptedMessage,
		nowTimestamp(),
		StatusSyncing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck mirrors: %w", err)
	}
	return res.RowsAffected()
}
