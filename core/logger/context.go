package logger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"log/slog"
)

// contextKey is a private type to avoid collisions in context.
type contextKey string

const (
	ctxRID      contextKey = "rid"
	ctxUpdateID contextKey = "update_id"
	ctxUserID   contextKey = "user_id"
	ctxChatID   contextKey = "chat_id"
	ctxLogger   contextKey = "logger"
)

// WithLogger stores the provided slog.Logger in context for propagation across layers.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxLogger, log)
}

// FromContext extracts slog.Logger from context or returns global default.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if v := ctx.Value(ctxLogger); v != nil {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// WithRID attaches request correlation id into context.
func WithRID(ctx context.Context, rid string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRID, rid)
}

// RIDFrom extracts rid from context if present.
func RIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v := ctx.Value(ctxRID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithUpdateMeta attaches common update identifiers to context.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUpdateID, updateID)
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxChatID, chatID)
	return ctx
}

func updateMetaFrom(ctx context.Context) (int, int64, int64) {
	if ctx == nil {
		return 0, 0, 0
	}
	updateID, _ := ctx.Value(ctxUpdateID).(int)
	userID, _ := ctx.Value(ctxUserID).(int64)
	chatID, _ := ctx.Value(ctxChatID).(int64)
	return updateID, userID, chatID
}

// BuildRID derives a stable correlation id from update, chat, and user identifiers.
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", updateID, chatID, userID)
}

// CompactRID shortens a raw rid for KV output, keeping the update id prefix.
func CompactRID(rid string) string {
	if idx := strings.Index(rid, ":"); idx > 0 {
		return rid[:idx]
	}
	return rid
}

// LogEvent emits a record through the given logger enriching it with context metadata.
func LogEvent(ctx context.Context, log *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if log == nil {
		log = FromContext(ctx)
	}
	if log == nil {
		return
	}
	all := make([]slog.Attr, 0, len(attrs)+4)
	all = append(all, slog.String("event", event))
	all = append(all, attrs...)
	if rid := RIDFrom(ctx); rid != "" {
		all = append(all, slog.String("rid", rid))
	}
	if updateID, userID, chatID := updateMetaFrom(ctx); updateID != 0 || userID != 0 || chatID != 0 {
		all = append(all,
			slog.Int("update_id", updateID),
			slog.Int64("user_id", userID),
			slog.Int64("chat_id", chatID),
		)
	}
	log.LogAttrs(ctx, level, event, all...)
}

// Debug logs a debug event through the context logger.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelDebug, event, attrs...)
}

// Info logs an info event through the context logger.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelInfo, event, attrs...)
}

// Warn logs a warning event through the context logger.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelWarn, event, attrs...)
}

// Error logs an error event through the context logger.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelError, event, attrs...)
}

// RoundMS rounds a duration to whole milliseconds for log output.
func RoundMS(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}

// SanitizeLimit strips control characters and truncates a string for safe logging.
func SanitizeLimit(s string, limit int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	if limit > 0 && len(cleaned) > limit {
		return cleaned[:limit] + "..."
	}
	return cleaned
}

// SummarizeStrings joins up to max items for preview logging, reporting truncation.
func SummarizeStrings(items []string, max int) (string, bool) {
	if len(items) == 0 {
		return "", false
	}
	if max <= 0 || len(items) <= max {
		return strings.Join(items, ","), false
	}
	return strings.Join(items[:max], ",") + ",+" + strconv.Itoa(len(items)-max), true
}
