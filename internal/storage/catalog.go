package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/elpekenin/docker-bot-tasks/internal/model"
)

// Languages lists every language the texts table is localized to.
func (s *Storage) Languages(ctx context.Context) ([]string, error) {
	var languages []string
	err := s.db.SelectContext(ctx, &languages,
		`SELECT DISTINCT language FROM texts ORDER BY language`)
	if err != nil {
		return nil, fmt.Errorf("storage: list languages: %w", err)
	}
	return languages, nil
}

// Categories lists the task categories available in one language.
func (s *Storage) Categories(ctx context.Context, language string) ([]string, error) {
	var categories []string
	err := s.db.SelectContext(ctx, &categories, `
		SELECT DISTINCT category FROM (
			SELECT category FROM tasks WHERE language = $1
			UNION
			SELECT category FROM multi_tasks WHERE language = $1
		) c ORDER BY category`, language)
	if err != nil {
		return nil, fmt.Errorf("storage: categories for %s: %w", language, err)
	}
	return categories, nil
}

// TasksByCategory lists single-reward catalog entries of one category.
func (s *Storage) TasksByCategory(ctx context.Context, language, category string) ([]model.Task, error) {
	var tasks []model.Task
	err := s.db.SelectContext(ctx, &tasks, `
		SELECT language, category, task, reward, cp, shiny, event
		FROM tasks
		WHERE language = $1 AND category = $2
		ORDER BY reward, task`, language, category)
	if err != nil {
		return nil, fmt.Errorf("storage: tasks for %s/%s: %w", language, category, err)
	}
	return tasks, nil
}

// MultiTasksByCategory lists catalog entries with several candidate rewards.
func (s *Storage) MultiTasksByCategory(ctx context.Context, language, category string) ([]model.MultiTask, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT language, category, task, rewards, shiny, event
		FROM multi_tasks
		WHERE language = $1 AND category = $2
		ORDER BY task`, language, category)
	if err != nil {
		return nil, fmt.Errorf("storage: multi tasks for %s/%s: %w", language, category, err)
	}
	defer rows.Close()

	var tasks []model.MultiTask
	for rows.Next() {
		var mt model.MultiTask
		if err := rows.Scan(&mt.Language, &mt.Category, &mt.Task,
			pq.Array(&mt.Rewards), pq.Array(&mt.Shiny), &mt.Event); err != nil {
			return nil, fmt.Errorf("storage: scan multi task: %w", err)
		}
		tasks = append(tasks, mt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: multi tasks for %s/%s: %w", language, category, err)
	}
	return tasks, nil
}

// Rewards lists every reward, single or multi, known for one language.
func (s *Storage) Rewards(ctx context.Context, language string) ([]string, error) {
	var rewards []string
	err := s.db.SelectContext(ctx, &rewards, `
		SELECT DISTINCT reward FROM (
			SELECT reward FROM tasks WHERE language = $1
			UNION
			SELECT unnest(rewards) AS reward FROM multi_tasks WHERE language = $1
		) r ORDER BY reward`, language)
	if err != nil {
		return nil, fmt.Errorf("storage: rewards for %s: %w", language, err)
	}
	return rewards, nil
}

// RewardCP returns the combat power associated with a reward, 0 when the
// catalog does not track one.
func (s *Storage) RewardCP(ctx context.Context, language, reward string) (int, error) {
	var cp int
	err := s.db.GetContext(ctx, &cp, `
		SELECT cp FROM tasks
		WHERE language = $1 AND reward = $2 AND cp > 0
		LIMIT 1`, language, reward)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("storage: cp for %s/%s: %w", language, reward, err)
	}
	return cp, nil
}

// DeleteEventTasks removes all event-only catalog entries once the event ends.
func (s *Storage) DeleteEventTasks(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE event`)
	if err != nil {
		return 0, fmt.Errorf("storage: delete event tasks: %w", err)
	}
	single, _ := res.RowsAffected()

	res, err = s.db.ExecContext(ctx, `DELETE FROM multi_tasks WHERE event`)
	if err != nil {
		return single, fmt.Errorf("storage: delete event multi tasks: %w", err)
	}
	multi, _ := res.RowsAffected()
	return single + multi, nil
}
