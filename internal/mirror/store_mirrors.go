package mirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrDuplicateSource indicates the alternative already mirrors the source library.
var ErrDuplicateSource = errors.New("source library already mirrored for alternative")

// NewMirror inserts a mirror in the pending state and returns the stored row.
// ID, status, and timestamps are assigned here; the remaining fields are taken
// from the argument.
func (s *Store) NewMirror(ctx context.Context, m *Mirror) (*Mirror, error) {
	if m == nil {
		return nil, errors.New("mirror is nil")
	}
	if strings.TrimSpace(m.AlternativeID) == "" {
		return nil, errors.New("alternative id is required")
	}
	timestamp := nowTimestamp()
	id := uuid.NewString()

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO mirrors (
            id, alternative_id, source_library_id, source_library_name,
            target_path, target_library_id, target_library_name, collection_type,
            status, progress_percent, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		m.AlternativeID,
		m.SourceLibraryID,
		nullableString(m.SourceLibraryName),
		m.TargetPath,
		nullableString(m.TargetLibraryID),
		nullableString(m.TargetLibraryName),
		nullableString(m.CollectionType),
		StatusPending,
		0.0,
		timestamp,
		timestamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSource, m.SourceLibraryID)
		}
		return nil, fmt.Errorf("insert mirror: %w", err)
	}

	return s.GetMirror(ctx, id)
}

// GetMirror fetches a mirror by identifier. Returns nil when absent.
func (s *Store) GetMirror(ctx context.Context, id string) (*Mirror, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+mirrorColumns+` FROM mirrors WHERE id = ?`, id)
	m, err := scanMirror(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mirror: %w", err)
	}
	return m, nil
}

// ListMirrors returns mirrors filtered by status set (or all mirrors when no
// status is provided), ordered by creation time.
func (s *Store) ListMirrors(ctx context.Context, statuses ...Status) ([]*Mirror, error) {
	ctx = ensureContext(ctx)
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + mirrorColumns + ` FROM mirrors`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list mirrors: %w", err)
	}
	defer rows.Close()

	var mirrors []*Mirror
	for rows.Next() {
		m, err := scanMirror(rows)
		if err != nil {
			return nil, err
		}
		mirrors = append(mirrors, m)
	}
	return mirrors, rows.Err()
}

// UpdateMirror persists registration and naming fields. Status transitions go
// through BeginSync/FinishSync/FailSync so claims stay atomic.
func (s *Store) UpdateMirror(ctx context.Context, m *Mirror) error {
	if m == nil {
		return errors.New("mirror is nil")
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE mirrors
         SET source_library_name = ?, target_path = ?, target_library_id = ?,
             target_library_name = ?, collection_type = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(m.SourceLibraryName),
		m.TargetPath,
		nullableString(m.TargetLibraryID),
		nullableString(m.TargetLibraryName),
		nullableString(m.CollectionType),
		nowTimestamp(),
		m.ID,
	); err != nil {
		return fmt.Errorf("update mirror: %w", err)
	}
	return nil
}

// RemoveMirror deletes a mirror record. The target tree on disk is untouched.
func (s *Store) RemoveMirror(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM mirrors WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete mirror: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns aggregated mirror counts per lifecycle state.
func (s *Store) Stats(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM mirrors GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("mirror stats: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var statusStr string
		var count int
		if err := rows.Scan(&statusStr, &count); err != nil {
			return Summary{}, err
		}
		summary.Total += count
		switch Status(statusStr) {
		case StatusPending:
			summary.Pending = count
		case StatusSyncing:
			summary.Syncing = count
		case StatusSynced:
			summary.Synced = count
		case StatusError:
			summary.Errored = count
		}
	}
	return summary, rows.Err()
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
