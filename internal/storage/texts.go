package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Text resolves one localized bot text.
func (s *Storage) Text(ctx context.Context, language, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value,
		`SELECT value FROM texts WHERE language = $1 AND key = $2`, language, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("storage: text %s/%s: %w", language, key, err)
	}
	return value, nil
}

// CommandHelp returns the localized help lines in display order.
func (s *Storage) CommandHelp(ctx context.Context, language string) ([]string, error) {
	var lines []string
	err := s.db.SelectContext(ctx, &lines, `
		SELECT text FROM commands
		WHERE language = $1
		ORDER BY position`, language)
	if err != nil {
		return nil, fmt.Errorf("storage: command help for %s: %w", language, err)
	}
	return lines, nil
}
