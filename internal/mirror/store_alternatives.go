package mirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrDuplicateName indicates an alternative with the same name already exists.
var ErrDuplicateName = errors.New("alternative name already in use")

// NewAlternative inserts a language alternative and returns the stored row.
func (s *Store) NewAlternative(ctx context.Context, name, languageTag string) (*Alternative, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("alternative name is required")
	}
	timestamp := nowTimestamp()
	id := uuid.NewString()

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO alternatives (id, name, language_tag, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		id,
		name,
		languageTag,
		timestamp,
		timestamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		return nil, fmt.Errorf("insert alternative: %w", err)
	}

	return s.GetAlternative(ctx, id)
}

// GetAlternative fetches an alternative by identifier. Returns nil when absent.
func (s *Store) GetAlternative(ctx context.Context, id string) (*Alternative, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+alternativeColumns+` FROM alternatives WHERE id = ?`, id)
	alt, err := scanAlternative(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get alternative: %w", err)
	}
	return alt, nil
}

// ListAlternatives returns all alternatives ordered by creation time, with
// mirror counts populated.
func (s *Store) ListAlternatives(ctx context.Context) ([]*Alternative, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+alternativeColumns+` FROM alternatives ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list alternatives: %w", err)
	}
	defer rows.Close()

	var alternatives []*Alternative
	for rows.Next() {
		alt, err := scanAlternative(rows)
		if err != nil {
			return nil, err
		}
		alternatives = append(alternatives, alt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	counts, err := s.mirrorCounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, alt := range alternatives {
		alt.MirrorCount = counts[alt.ID]
	}
	return alternatives, nil
}

func (s *Store) mirrorCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT alternative_id, COUNT(1) FROM mirrors GROUP BY alternative_id`)
	if err != nil {
		return nil, fmt.Errorf("count mirrors: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var altID string
		var count int
		if err := rows.Scan(&altID, &count); err != nil {
			return nil, err
		}
		counts[altID] = count
	}
	return counts, rows.Err()
}

// RemoveAlternative deletes an alternative and, via foreign key cascade, its
// mirror records and user assignments. Target trees on disk are untouched.
func (s *Store) RemoveAlternative(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM alternatives WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete alternative: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed")
}
