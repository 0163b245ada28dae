package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/elpekenin/docker-bot-tasks/internal/model"
)

// Store is the slice of the storage layer the catalog reads from.
type Store interface {
	Categories(ctx context.Context, language string) ([]string, error)
	TasksByCategory(ctx context.Context, language, category string) ([]model.Task, error)
	MultiTasksByCategory(ctx context.Context, language, category string) ([]model.MultiTask, error)
	Rewards(ctx context.Context, language string) ([]string, error)
	RewardCP(ctx context.Context, language, reward string) (int, error)
}

// Service answers catalog queries for the conversation and commands.
type Service struct {
	store Store
}

// NewService builds a catalog service on top of the storage layer.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Categories lists the task categories of one language.
func (s *Service) Categories(ctx context.Context, language string) ([]string, error) {
	return s.store.Categories(ctx, language)
}

// TaskOptions renders the keyboard labels of one category, single-reward
// entries first, then multi-reward ones.
func (s *Service) TaskOptions(ctx context.Context, language, category string) ([]string, error) {
	tasks, err := s.store.TasksByCategory(ctx, language, category)
	if err != nil {
		return nil, err
	}
	multi, err := s.store.MultiTasksByCategory(ctx, language, category)
	if err != nil {
		return nil, err
	}

	options := make([]string, 0, len(tasks)+len(multi))
	for _, t := range tasks {
		options = append(options, TaskLabel(t))
	}
	for _, mt := range multi {
		options = append(options, MultiTaskLabel(mt))
	}
	return options, nil
}

// AvailableRewards lists every reward the catalog knows for one language.
func (s *Service) AvailableRewards(ctx context.Context, language string) ([]string, error) {
	return s.store.Rewards(ctx, language)
}

// RewardCP looks up the combat power of a reward, 0 when untracked.
func (s *Service) RewardCP(ctx context.Context, language, reward string) (int, error) {
	return s.store.RewardCP(ctx, language, StripShiny(reward))
}

// TaskLabel renders a single-reward catalog entry as a keyboard option,
// e.g. "Larvitar✨, Catch 3 dragon-type Pokemon\n💯: 842".
func TaskLabel(t model.Task) string {
	reward := t.Reward
	if t.Shiny {
		reward += ShinyMark
	}
	label := reward + ", " + t.Task
	if t.CP > 0 {
		label += fmt.Sprintf("\n%s: %d", CPMark, t.CP)
	}
	return label
}

// MultiTaskLabel renders a multi-reward catalog entry, candidates joined by
// '/', e.g. "Magikarp✨/Dratini, Make an excellent throw".
func MultiTaskLabel(mt model.MultiTask) string {
	tokens := make([]string, 0, len(mt.Rewards))
	for i, reward := range mt.Rewards {
		if i < len(mt.Shiny) && mt.Shiny[i] {
			reward += ShinyMark
		}
		tokens = append(tokens, reward)
	}
	return strings.Join(tokens, "/") + ", " + mt.Task
}
