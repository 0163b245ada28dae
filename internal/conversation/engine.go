package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/elpekenin/docker-bot-tasks/core/logger"
	"github.com/elpekenin/docker-bot-tasks/internal/catalog"
	"github.com/elpekenin/docker-bot-tasks/internal/session"
	"github.com/elpekenin/docker-bot-tasks/internal/storage"
	"github.com/elpekenin/docker-bot-tasks/internal/texts"
	"log/slog"
)

// Callback uniques used by the conversation's inline keyboards.
const (
	CallbackConfirm = "report_confirm"
	CallbackCancel  = "report_cancel"
	CallbackPick    = "report_pick"
)

const busyNotice = "Another report is already in progress in this chat, finish it first."

// fallbackTexts keeps the flow alive when a localized text is missing.
var fallbackTexts = map[string]string{
	texts.KeyConfirmation: "Report a task at this location?",
	texts.KeyPokestop:     "What is the name of the Pokestop?",
	texts.KeyCategory:     "What does the task reward?",
	texts.KeyTask:         "Which task is it?",
	texts.KeyKeyboard:     "Please use the keyboard to answer.",
	texts.KeyLocation:     "Location",
	texts.KeyReported:     "Reported by",
	texts.KeyConfirmed:    "Confirmed by",
	texts.KeyUnknown:      "❓",
	texts.KeyRegister:     "You need to register in a private chat before reporting.",
	texts.KeyOpenPrivate:  "Open private chat",
}

// Options wires an Engine.
type Options struct {
	Sessions   *session.Store
	Messenger  Messenger
	Repository Repository
	Catalog    Catalog
	Deferrer   Deferrer
	// GraceDelay is how long error notices stay visible before cleanup.
	GraceDelay time.Duration
	// BotURL is the deep link offered to unregistered users.
	BotURL string
}

// Engine drives the report conversation.
type Engine struct {
	sessions *session.Store
	msgr     Messenger
	repo     Repository
	catalog  Catalog
	cleaner  *Cleaner
	botURL   string
}

// New builds a conversation engine.
func New(opts Options) *Engine {
	return &Engine{
		sessions: opts.Sessions,
		msgr:     opts.Messenger,
		repo:     opts.Repository,
		catalog:  opts.Catalog,
		cleaner:  NewCleaner(opts.Messenger, opts.Deferrer, opts.GraceDelay),
		botURL:   opts.BotURL,
	}
}

// Inbound is one update, already reduced to what the engine needs.
type Inbound struct {
	ChatID    int64
	MessageID int
	UserID    int64
	Username  string
	Text      string
	Latitude  float64
	Longitude float64
}

// InProgress reports whether the chat has a live session.
func (e *Engine) InProgress(chatID int64) bool {
	return e.sessions.InProgress(chatID)
}

// StartFromLocation opens a session from a native location share. The share
// itself becomes the report's location message and is kept on success.
func (e *Engine) StartFromLocation(ctx context.Context, in Inbound) error {
	var err error
	e.sessions.Do(in.ChatID, func() {
		if s, ok := e.sessions.Get(in.ChatID); ok {
			err = e.rejectBusy(ctx, s, in)
			return
		}
		s, beginErr := e.sessions.Begin(in.ChatID, in.UserID, in.Username)
		if beginErr != nil {
			err = beginErr
			return
		}
		s.Latitude, s.Longitude = in.Latitude, in.Longitude
		s.LocationID = in.MessageID
		err = e.enter(ctx, s)
	})
	return err
}

// StartFromCoordinates opens a session from a typed coordinate pair. It
// returns false when the text is not a coordinate entry trigger. The typed
// message is transient; a location echo takes its place as the report's
// location message.
func (e *Engine) StartFromCoordinates(ctx context.Context, in Inbound) (bool, error) {
	lat, lon, ok := ParseCoordinates(in.Text)
	if !ok {
		return false, nil
	}

	var err error
	e.sessions.Do(in.ChatID, func() {
		if s, active := e.sessions.Get(in.ChatID); active {
			err = e.rejectBusy(ctx, s, in)
			return
		}
		s, beginErr := e.sessions.Begin(in.ChatID, in.UserID, in.Username)
		if beginErr != nil {
			err = beginErr
			return
		}
		s.Latitude, s.Longitude = lat, lon
		s.Track(in.MessageID)

		echoID, sendErr := e.msgr.SendLocation(ctx, in.ChatID, lat, lon)
		if sendErr != nil {
			e.sessions.End(in.ChatID)
			err = sendErr
			return
		}
		s.LocationID = echoID
		err = e.enter(ctx, s)
	})
	return true, err
}

// rejectBusy notices the user that a report is already running. The trigger
// and the notice join the live session's transient messages.
func (e *Engine) rejectBusy(ctx context.Context, s *session.Session, in Inbound) error {
	logger.Debug(ctx, "conversation", "entry.rejected",
		slog.Int64("chat_id", in.ChatID),
		slog.String("state", s.State.String()),
	)
	s.Track(in.MessageID)
	id, err := e.msgr.Send(ctx, in.ChatID, Message{Text: busyNotice})
	if err != nil {
		return err
	}
	s.Track(id)
	return nil
}

// enter resolves the chat configuration and moves into the first state.
func (e *Engine) enter(ctx context.Context, s *session.Session) error {
	g, err := e.repo.Group(ctx, s.ChatID)
	if errors.Is(err, storage.ErrGroupNotRegistered) {
		notice := "This group is not registered, ask an admin to run <code>/add_group</code> first."
		if id, sendErr := e.msgr.Send(ctx, s.ChatID, Message{Text: notice, HTML: true}); sendErr == nil {
			s.Track(id)
		}
		// The notice stays readable for the grace delay before the sweep.
		e.terminateLater(ctx, s, true)
		return nil
	}
	if err != nil {
		_ = e.terminateNow(ctx, s, true)
		return err
	}
	s.Group = g

	logger.Info(ctx, "conversation", "entry",
		slog.Int64("chat_id", s.ChatID),
		slog.Int64("user_id", s.UserID),
		slog.Bool("confirmation", g.Confirmation),
		slog.Bool("pokestop", g.Pokestop),
	)

	if g.Confirmation {
		prompt := e.text(ctx, g.Language, texts.KeyConfirmation)
		id, err := e.msgr.Send(ctx, s.ChatID, Message{
			Text: prompt,
			Buttons: []Button{
				{Text: "✅", Unique: CallbackConfirm},
				{Text: "❌", Unique: CallbackCancel},
			},
		})
		if err != nil {
			return err
		}
		s.Track(id)
		s.State = session.StateConfirmation
		return nil
	}
	return e.proceed(ctx, s)
}

// proceed runs the steps after the (possibly skipped) confirmation gate.
func (e *Engine) proceed(ctx context.Context, s *session.Session) error {
	_, err := e.repo.UserLanguage(ctx, s.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return e.requireRegistration(ctx, s)
	}
	if err != nil {
		_ = e.terminateNow(ctx, s, true)
		return err
	}

	if s.Group.Pokestop {
		prompt := e.text(ctx, s.Group.Language, texts.KeyPokestop)
		id, err := e.msgr.Send(ctx, s.ChatID, Message{Text: prompt, RemoveKeyboard: true})
		if err != nil {
			return err
		}
		s.Track(id)
		s.State = session.StatePokestop
		return nil
	}
	return e.askCategory(ctx, s)
}

// requireRegistration points an unregistered user at the private chat and
// winds the session down after the grace delay.
func (e *Engine) requireRegistration(ctx context.Context, s *session.Session) error {
	msg := Message{Text: e.text(ctx, s.Group.Language, texts.KeyRegister)}
	if e.botURL != "" {
		msg.Buttons = []Button{{
			Text: e.text(ctx, s.Group.Language, texts.KeyOpenPrivate),
			URL:  e.botURL,
		}}
	}
	if id, err := e.msgr.Send(ctx, s.ChatID, msg); err == nil {
		s.Track(id)
	}
	e.terminateLater(ctx, s, true)
	return nil
}

func (e *Engine) askCategory(ctx context.Context, s *session.Session) error {
	categories, err := e.catalog.Categories(ctx, s.Group.Language)
	if err != nil {
		return err
	}
	prompt := e.text(ctx, s.Group.Language, texts.KeyCategory)
	id, err := e.msgr.Send(ctx, s.ChatID, Message{
		Text:    prompt,
		Options: append(categories, catalog.CancelRow),
	})
	if err != nil {
		return err
	}
	s.Track(id)
	s.State = session.StateCategory
	return nil
}

// HandleMessage routes a text update into the chat's live session.
func (e *Engine) HandleMessage(ctx context.Context, in Inbound) error {
	var err error
	e.sessions.Do(in.ChatID, func() {
		s, ok := e.sessions.Get(in.ChatID)
		if !ok {
			return
		}

		if catalog.IsCancel(in.Text) {
			s.Track(in.MessageID)
			logger.Info(ctx, "conversation", "cancelled",
				slog.Int64("chat_id", s.ChatID),
				slog.String("state", s.State.String()),
			)
			err = e.terminateNow(ctx, s, true)
			return
		}

		switch s.State {
		case session.StatePokestop:
			s.Track(in.MessageID)
			s.Pokestop = strings.TrimSpace(in.Text)
			err = e.askCategory(ctx, s)
		case session.StateCategory:
			s.Track(in.MessageID)
			err = e.handleCategory(ctx, s, in.Text)
		case session.StateTask:
			s.Track(in.MessageID)
			err = e.finalize(ctx, s, in)
		default:
			// Unrelated chatter during the confirmation gate is ignored.
		}
	})
	return err
}

func (e *Engine) handleCategory(ctx context.Context, s *session.Session, answer string) error {
	categories, err := e.catalog.Categories(ctx, s.Group.Language)
	if err != nil {
		return err
	}
	answer = strings.TrimSpace(answer)
	known := false
	for _, c := range categories {
		if c == answer {
			known = true
			break
		}
	}
	if !known {
		return e.failKeyboard(ctx, s)
	}

	s.Category = answer
	options, err := e.catalog.TaskOptions(ctx, s.Group.Language, answer)
	if err != nil {
		return err
	}
	prompt := e.text(ctx, s.Group.Language, texts.KeyTask)
	id, err := e.msgr.Send(ctx, s.ChatID, Message{
		Text:    prompt,
		Options: append(options, catalog.CancelRow),
	})
	if err != nil {
		return err
	}
	s.Track(id)
	s.State = session.StateTask
	return nil
}

// HandleDecision consumes the confirmation gate's inline decision. Stale
// buttons of already terminated sessions are ignored.
func (e *Engine) HandleDecision(ctx context.Context, in Inbound, proceed bool) error {
	var err error
	e.sessions.Do(in.ChatID, func() {
		s, ok := e.sessions.Get(in.ChatID)
		if !ok || s.State != session.StateConfirmation {
			return
		}
		if proceed {
			err = e.proceed(ctx, s)
			return
		}
		logger.Info(ctx, "conversation", "cancelled",
			slog.Int64("chat_id", s.ChatID),
			slog.String("state", s.State.String()),
		)
		err = e.terminateNow(ctx, s, true)
	})
	return err
}

// failKeyboard handles an answer that ignored the keyboard: notice, then a
// deferred sweep of the whole session including the location message.
func (e *Engine) failKeyboard(ctx context.Context, s *session.Session) error {
	notice := e.text(ctx, s.Group.Language, texts.KeyKeyboard)
	if id, err := e.msgr.Send(ctx, s.ChatID, Message{Text: notice, RemoveKeyboard: true}); err == nil {
		s.Track(id)
	}
	e.terminateLater(ctx, s, true)
	return nil
}

// terminateNow ends the session and deletes its transient messages right
// away. The location message is only included on failure paths.
func (e *Engine) terminateNow(ctx context.Context, s *session.Session, includeLocation bool) error {
	ids := s.Pending()
	if includeLocation {
		ids = append(ids, s.LocationID)
	}
	e.sessions.End(s.ChatID)
	return e.cleaner.Now(ctx, s.ChatID, ids)
}

// terminateLater ends the session immediately but defers the message sweep
// by the grace delay, so the chat is free for a new report at once.
func (e *Engine) terminateLater(ctx context.Context, s *session.Session, includeLocation bool) {
	ids := s.Pending()
	if includeLocation {
		ids = append(ids, s.LocationID)
	}
	e.sessions.End(s.ChatID)
	e.cleaner.Later(ctx, s.ChatID, ids)
}

// text resolves a localized text, falling back to a built-in default so a
// missing row never stalls a conversation.
func (e *Engine) text(ctx context.Context, language, key string) string {
	v, err := e.repo.Text(ctx, language, key)
	if err != nil || v == "" {
		return fallbackTexts[key]
	}
	return v
}
