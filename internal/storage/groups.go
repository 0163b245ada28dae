package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/elpekenin/docker-bot-tasks/internal/model"
)

// Group fetches the configuration of a chat.
func (s *Storage) Group(ctx context.Context, groupID int64) (model.Group, error) {
	var g model.Group
	err := s.db.GetContext(ctx, &g, `
		SELECT group_id, language, pokestop, timezone, confirmation
		FROM groups
		WHERE group_id = $1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Group{}, ErrGroupNotRegistered
	}
	if err != nil {
		return model.Group{}, fmt.Errorf("storage: get group %d: %w", groupID, err)
	}
	return g, nil
}

// SaveGroup registers a chat or updates its configuration in place. The
// returned flag is true when the chat had no row before.
func (s *Storage) SaveGroup(ctx context.Context, g model.Group) (bool, error) {
	// xmax is zero only on a freshly inserted row.
	var created bool
	err := s.db.GetContext(ctx, &created, `
		INSERT INTO groups (group_id, language, pokestop, timezone, confirmation)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (group_id) DO UPDATE
		SET language     = EXCLUDED.language,
		    pokestop     = EXCLUDED.pokestop,
		    timezone     = EXCLUDED.timezone,
		    confirmation = EXCLUDED.confirmation
		RETURNING (xmax = 0)`,
		g.GroupID, g.Language, g.Pokestop, g.Timezone, g.Confirmation)
	if err != nil {
		return false, fmt.Errorf("storage: save group %d: %w", g.GroupID, err)
	}
	return created, nil
}

// GroupsByTimezone lists the registered chats of one GMT bucket.
func (s *Storage) GroupsByTimezone(ctx context.Context, timezone string) ([]model.Group, error) {
	var groups []model.Group
	err := s.db.SelectContext(ctx, &groups, `
		SELECT group_id, language, pokestop, timezone, confirmation
		FROM groups
		WHERE timezone = $1`, timezone)
	if err != nil {
		return nil, fmt.Errorf("storage: groups by timezone %s: %w", timezone, err)
	}
	return groups, nil
}
