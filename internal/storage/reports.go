package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/elpekenin/docker-bot-tasks/internal/model"
)

const reportColumns = `group_id, message_id, location_id, longitude, latitude, reward, timezone, pokestop`

// InsertReport persists a finalized report keyed by its rendered message id.
func (s *Storage) InsertReport(ctx context.Context, r model.Report) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (group_id, message_id) DO UPDATE SET
			location_id = EXCLUDED.location_id,
			longitude   = EXCLUDED.longitude,
			latitude    = EXCLUDED.latitude,
			reward      = EXCLUDED.reward,
			timezone    = EXCLUDED.timezone,
			pokestop    = EXCLUDED.pokestop`,
		r.GroupID, r.MessageID, r.LocationID, r.Longitude, r.Latitude,
		r.Reward, r.Timezone, r.Pokestop)
	if err != nil {
		return fmt.Errorf("storage: insert report %d/%d: %w", r.GroupID, r.MessageID, err)
	}
	return nil
}

// ConfirmReport replaces an unconfirmed placeholder once a reward was picked.
// The upsert also covers the case where the placeholder row went missing.
func (s *Storage) ConfirmReport(ctx context.Context, r model.Report) error {
	return s.InsertReport(ctx, r)
}

// FindReport resolves a message id into a report. It first matches the
// rendered report message, then falls back to the location message, and tags
// the result with how it matched.
func (s *Storage) FindReport(ctx context.Context, groupID int64, messageID int) (model.Report, model.ReportMatch, error) {
	var r model.Report
	err := s.db.GetContext(ctx, &r, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE group_id = $1 AND message_id = $2`, groupID, messageID)
	if err == nil {
		return r, model.MatchMessageID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Report{}, 0, fmt.Errorf("storage: find report %d/%d: %w", groupID, messageID, err)
	}

	err = s.db.GetContext(ctx, &r, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE group_id = $1 AND location_id = $2`, groupID, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Report{}, 0, ErrNotFound
	}
	if err != nil {
		return model.Report{}, 0, fmt.Errorf("storage: find report by location %d/%d: %w", groupID, messageID, err)
	}
	return r, model.MatchLocationID, nil
}

// DeleteReport removes a single report row.
func (s *Storage) DeleteReport(ctx context.Context, groupID int64, messageID int) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM reports WHERE group_id = $1 AND message_id = $2`,
		groupID, messageID)
	if err != nil {
		return fmt.Errorf("storage: delete report %d/%d: %w", groupID, messageID, err)
	}
	return nil
}

// ReportsByReward lists a chat's confirmed reports dropping the given reward.
func (s *Storage) ReportsByReward(ctx context.Context, groupID int64, reward string) ([]model.Report, error) {
	var reports []model.Report
	err := s.db.SelectContext(ctx, &reports, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE group_id = $1 AND reward = $2
		ORDER BY message_id`, groupID, reward)
	if err != nil {
		return nil, fmt.Errorf("storage: reports by reward %q: %w", reward, err)
	}
	return reports, nil
}

// ReportsByTimezone lists every report filed in groups of one GMT bucket.
func (s *Storage) ReportsByTimezone(ctx context.Context, timezone string) ([]model.Report, error) {
	var reports []model.Report
	err := s.db.SelectContext(ctx, &reports, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE timezone = $1
		ORDER BY group_id, message_id`, timezone)
	if err != nil {
		return nil, fmt.Errorf("storage: reports by timezone %s: %w", timezone, err)
	}
	return reports, nil
}

// DeleteReportsByTimezone wipes the report rows of one GMT bucket and returns
// how many were removed.
func (s *Storage) DeleteReportsByTimezone(ctx context.Context, timezone string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reports WHERE timezone = $1`, timezone)
	if err != nil {
		return 0, fmt.Errorf("storage: delete reports by timezone %s: %w", timezone, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
