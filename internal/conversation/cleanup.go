package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/elpekenin/docker-bot-tasks/core/logger"
	"log/slog"
)

// Cleaner removes the transient messages of a terminated session. A failed
// deletion never aborts the remaining ones; failures are aggregated and
// logged.
type Cleaner struct {
	msgr     Messenger
	deferrer Deferrer
	grace    time.Duration
}

// NewCleaner builds a cleaner. The grace delay is how long error notices stay
// readable before deferred cleanup removes them.
func NewCleaner(msgr Messenger, deferrer Deferrer, grace time.Duration) *Cleaner {
	return &Cleaner{msgr: msgr, deferrer: deferrer, grace: grace}
}

// Now deletes every id immediately, attempting each exactly once.
func (cl *Cleaner) Now(ctx context.Context, chatID int64, ids []int) error {
	var errs *multierror.Error
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		if err := cl.msgr.Delete(ctx, chatID, id); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("delete message %d: %w", id, err))
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		logger.Warn(ctx, "conversation", "cleanup.partial",
			slog.Int64("chat_id", chatID),
			slog.Int("messages", len(ids)),
			slog.Int("failed", errs.Len()),
			slog.String("err", err.Error()),
		)
		return err
	}
	logger.Debug(ctx, "conversation", "cleanup.done",
		slog.Int64("chat_id", chatID),
		slog.Int("messages", len(ids)),
	)
	return nil
}

// Later schedules the deletion after the grace delay. The session must
// already be ended; scheduling never blocks and a full queue degrades to an
// immediate synchronous sweep.
func (cl *Cleaner) Later(ctx context.Context, chatID int64, ids []int) {
	if len(ids) == 0 {
		return
	}
	if cl.deferrer == nil {
		_ = cl.Now(ctx, chatID, ids)
		return
	}
	err := cl.deferrer.After(ctx, "conversation.cleanup", cl.grace, func() error {
		return cl.Now(ctx, chatID, ids)
	})
	if err != nil {
		logger.Warn(ctx, "conversation", "cleanup.defer_failed",
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
		_ = cl.Now(ctx, chatID, ids)
	}
}
