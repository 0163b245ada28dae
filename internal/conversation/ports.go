// Package conversation implements the multi-step report flow: a location
// entry trigger, optional confirmation and point-of-interest steps, a
// category pick and a task answer, ending in a persisted report and cleanup
// of the transient messages.
package conversation

import (
	"context"
	"time"

	"github.com/elpekenin/docker-bot-tasks/internal/model"
)

// Button is a single inline keyboard button.
type Button struct {
	Text   string
	Unique string
	Data   string
	URL    string
}

// Message is a transport-neutral outbound message.
type Message struct {
	Text string
	HTML bool
	// Buttons render as a single-row inline keyboard.
	Buttons []Button
	// Options render as a one-time reply keyboard, one option per row.
	Options []string
	// RemoveKeyboard hides any visible reply keyboard.
	RemoveKeyboard bool
	// ClearButtons removes the inline keyboard on edit.
	ClearButtons bool
}

// Messenger sends, edits and deletes chat messages. Send returns the id of
// the delivered message.
type Messenger interface {
	Send(ctx context.Context, chatID int64, msg Message) (int, error)
	SendLocation(ctx context.Context, chatID int64, latitude, longitude float64) (int, error)
	Edit(ctx context.Context, chatID int64, messageID int, msg Message) error
	Delete(ctx context.Context, chatID int64, messageID int) error
}

// Repository is the slice of the storage layer the conversation needs.
type Repository interface {
	Group(ctx context.Context, chatID int64) (model.Group, error)
	UserLanguage(ctx context.Context, userID int64) (string, error)
	Text(ctx context.Context, language, key string) (string, error)
	InsertReport(ctx context.Context, r model.Report) error
	ConfirmReport(ctx context.Context, r model.Report) error
	IncrementUserReports(ctx context.Context, userID int64) error
}

// Catalog answers category, task and reward queries.
type Catalog interface {
	Categories(ctx context.Context, language string) ([]string, error)
	TaskOptions(ctx context.Context, language, category string) ([]string, error)
	AvailableRewards(ctx context.Context, language string) ([]string, error)
	RewardCP(ctx context.Context, language, reward string) (int, error)
}

// Deferrer schedules work to run after a delay without blocking the caller.
// The outbound dispatcher satisfies it in production.
type Deferrer interface {
	After(ctx context.Context, action string, delay time.Duration, run func() error) error
}
