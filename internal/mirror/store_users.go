package mirror

import (
	"context"
	"fmt"
)

// AssignUserLanguage maps a media server user to an alternative. Reassigning
// an already-mapped user replaces the previous assignment.
func (s *Store) AssignUserLanguage(ctx context.Context, userID, alternativeID string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO user_languages (user_id, alternative_id, updated_at)
         VALUES (?, ?, ?)
         ON CONFLICT(user_id) DO UPDATE SET alternative_id = excluded.alternative_id, updated_at = excluded.updated_at`,
		userID,
		alternativeID,
		nowTimestamp(),
	); err != nil {
		return fmt.Errorf("assign user language: %w", err)
	}
	return nil
}

// UnassignUserLanguage removes a user's language assignment. It reports
// whether an assignment existed.
func (s *Store) UnassignUserLanguage(ctx context.Context, userID string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM user_languages WHERE user_id = ?`, userID)
	if err != nil {
		return false, fmt.Errorf("unassign user language: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unassign user language: %w", err)
	}
	return rows > 0, nil
}

// ListUserLanguages returns all user assignments ordered by user ID.
func (s *Store) ListUserLanguages(ctx context.Context) ([]*UserLanguage, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT user_id, alternative_id, updated_at FROM user_languages ORDER BY user_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list user languages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var assignments []*UserLanguage
	for rows.Next() {
		var (
			userID        string
			alternativeID string
			updatedRaw    string
		)
		if err := rows.Scan(&userID, &alternativeID, &updatedRaw); err != nil {
			return nil, fmt.Errorf("scan user language: %w", err)
		}
		assignment := &UserLanguage{UserID: userID, AlternativeID: alternativeID}
		if updated, err := parseTimeString(updatedRaw); err == nil {
			assignment.UpdatedAt = updated
		}
		assignments = append(assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user languages: %w", err)
	}
	return assignments, nil
}

// ListUserLanguagesForAlternative returns assignments that point at one alternative.
func (s *Store) ListUserLanguagesForAlternative(ctx context.Context, alternativeID string) ([]*UserLanguage, error) {
	assignments, err := s.ListUserLanguages(ctx)
	if err != nil {
		return nil, err
	}
	filtered := assignments[:0]
	for _, assignment := range assignments {
		if assignment.AlternativeID == alternativeID {
			filtered = append(filtered, assignment)
		}
	}
	return filtered, nil
}
