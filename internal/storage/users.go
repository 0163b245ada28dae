package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// UserLanguage returns the language a user registered with, or ErrNotFound
// for unregistered users.
func (s *Storage) UserLanguage(ctx context.Context, userID int64) (string, error) {
	var language string
	err := s.db.GetContext(ctx, &language,
		`SELECT language FROM users WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("storage: get user %d: %w", userID, err)
	}
	return language, nil
}

// RegisterUser creates or updates the user's language preference.
func (s *Storage) RegisterUser(ctx context.Context, userID int64, language string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, language, admin, reports)
		VALUES ($1, $2, FALSE, 0)
		ON CONFLICT (user_id) DO UPDATE SET language = EXCLUDED.language`,
		userID, language)
	if err != nil {
		return fmt.Errorf("storage: register user %d: %w", userID, err)
	}
	return nil
}

// IncrementUserReports bumps the per-user report counter.
func (s *Storage) IncrementUserReports(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET reports = reports + 1 WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("storage: increment reports for %d: %w", userID, err)
	}
	return nil
}
