package router

import (
	"time"

	tg "github.com/elpekenin/docker-bot-tasks/core/telegram"
	"github.com/elpekenin/docker-bot-tasks/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Conversation is the minimal interface the text router needs from the
// report conversation engine.
type Conversation interface {
	// InProgress reports whether the chat has an active session.
	InProgress(chatID int64) bool
	// HandleText routes a text update into the chat's active session.
	HandleText(c tele.Context) error
	// HandleEntryText consumes a coordinate-pair entry trigger. It returns
	// false when the text is not an entry trigger.
	HandleEntryText(c tele.Context) (bool, error)
	// HandleLocation consumes a native location share entry trigger.
	HandleLocation(c tele.Context) error
}

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoutes builds handlers for text and location routing. Commands win over
// an active session so group maintenance stays usable mid-conversation; the
// entry trigger is evaluated last.
func TextRoutes(conv Conversation, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, func() error {
					return cmd.Handler(c)
				})
			}
		}

		if conv != nil && conv.InProgress(c.Chat().ID) {
			return handleWithSummary(c, "conversation", start, func() error {
				return conv.HandleText(c)
			})
		}

		if conv != nil {
			consumed, err := conv.HandleEntryText(c)
			if consumed || err != nil {
				logHandlerSummary(c, "conversation.entry", start, "", err)
				return err
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	locHandler := func(c tele.Context) error {
		start := time.Now()
		if conv == nil {
			logHandlerSummary(c, "location", start, "skip", nil)
			return nil
		}
		return handleWithSummary(c, "conversation.location", start, func() error {
			return conv.HandleLocation(c)
		})
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
		{
			Endpoint: tele.OnLocation,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(locHandler)),
		},
	}
}
