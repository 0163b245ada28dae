package app

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/elpekenin/docker-bot-tasks/core/telegram/keyboard"
	tgsender "github.com/elpekenin/docker-bot-tasks/core/telegram/sender"
	"github.com/elpekenin/docker-bot-tasks/internal/conversation"
)

// botMessenger adapts the Telebot client to the conversation's Messenger
// port. The bot is bound at startup, after the runtime is built.
type botMessenger struct {
	bot atomic.Pointer[tele.Bot]
}

func (m *botMessenger) Bind(b *tele.Bot) {
	m.bot.Store(b)
}

func (m *botMessenger) client() (*tele.Bot, error) {
	b := m.bot.Load()
	if b == nil {
		return nil, fmt.Errorf("app: bot not started yet")
	}
	return b, nil
}

// messageRef makes a (chat, message) pair editable and deletable.
type messageRef struct {
	chatID    int64
	messageID int
}

func (r messageRef) MessageSig() (string, int64) {
	return strconv.Itoa(r.messageID), r.chatID
}

func sendOptions(msg conversation.Message) *tele.SendOptions {
	opts := &tele.SendOptions{DisableWebPagePreview: true}
	if msg.HTML {
		opts.ParseMode = tele.ModeHTML
	}
	switch {
	case msg.ClearButtons:
		opts.ReplyMarkup = keyboard.EmptyInline()
	case len(msg.Buttons) > 0:
		btns := make([]keyboard.InlineBtn, 0, len(msg.Buttons))
		for _, b := range msg.Buttons {
			btns = append(btns, keyboard.InlineBtn{
				Text:   b.Text,
				Unique: b.Unique,
				Data:   b.Data,
				URL:    b.URL,
			})
		}
		opts.ReplyMarkup = keyboard.InlineRow(btns...)
	case len(msg.Options) > 0:
		opts.ReplyMarkup = keyboard.OneTimeList(msg.Options)
	case msg.RemoveKeyboard:
		opts.ReplyMarkup = keyboard.RemoveKeyboard()
	}
	return opts
}

func (m *botMessenger) Send(_ context.Context, chatID int64, msg conversation.Message) (int, error) {
	b, err := m.client()
	if err != nil {
		return 0, err
	}
	sent, err := b.Send(tele.ChatID(chatID), msg.Text, sendOptions(msg))
	if err != nil {
		return 0, err
	}
	return sent.ID, nil
}

func (m *botMessenger) SendLocation(_ context.Context, chatID int64, latitude, longitude float64) (int, error) {
	b, err := m.client()
	if err != nil {
		return 0, err
	}
	loc := &tele.Location{Lat: float32(latitude), Lng: float32(longitude)}
	sent, err := b.Send(tele.ChatID(chatID), loc)
	if err != nil {
		return 0, err
	}
	return sent.ID, nil
}

func (m *botMessenger) Edit(_ context.Context, chatID int64, messageID int, msg conversation.Message) error {
	b, err := m.client()
	if err != nil {
		return err
	}
	_, err = b.Edit(messageRef{chatID: chatID, messageID: messageID}, msg.Text, sendOptions(msg))
	return err
}

func (m *botMessenger) Delete(_ context.Context, chatID int64, messageID int) error {
	b, err := m.client()
	if err != nil {
		return err
	}
	return b.Delete(messageRef{chatID: chatID, messageID: messageID})
}

// runtimeDeferrer forwards deferred work to the outbound dispatcher once the
// runtime exists. Before binding it falls back to a plain timer goroutine.
type runtimeDeferrer struct {
	d atomic.Pointer[tgsender.Dispatcher]
}

func (r *runtimeDeferrer) Bind(d *tgsender.Dispatcher) {
	r.d.Store(d)
}

func (r *runtimeDeferrer) After(ctx context.Context, action string, delay time.Duration, run func() error) error {
	disp := r.d.Load()
	if disp == nil {
		go func() {
			time.Sleep(delay)
			_ = run()
		}()
		return nil
	}
	return disp.EnqueueAfter(ctx, action, delay, run)
}
