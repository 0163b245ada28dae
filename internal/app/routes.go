package app

import (
	tele "gopkg.in/telebot.v4"

	"github.com/elpekenin/docker-bot-tasks/core/telegram/callbacks"
	"github.com/elpekenin/docker-bot-tasks/core/telegram/helpers"
	"github.com/elpekenin/docker-bot-tasks/internal/conversation"
)

func inboundFrom(c tele.Context) conversation.Inbound {
	in := conversation.Inbound{Text: c.Text()}
	if chat := c.Chat(); chat != nil {
		in.ChatID = chat.ID
	}
	if m := c.Message(); m != nil {
		in.MessageID = m.ID
		if m.Location != nil {
			in.Latitude = float64(m.Location.Lat)
			in.Longitude = float64(m.Location.Lng)
		}
	}
	if u := c.Sender(); u != nil {
		in.UserID = u.ID
		in.Username = u.Username
	}
	return in
}

func isGroupChat(c tele.Context) bool {
	chat := c.Chat()
	return chat != nil && (chat.Type == tele.ChatGroup || chat.Type == tele.ChatSuperGroup)
}

// convAdapter satisfies the text router's Conversation interface on top of
// the engine.
type convAdapter struct {
	engine *conversation.Engine
}

func (a *convAdapter) InProgress(chatID int64) bool {
	return a.engine.InProgress(chatID)
}

func (a *convAdapter) HandleText(c tele.Context) error {
	return a.engine.HandleMessage(helpers.BuildContext(c), inboundFrom(c))
}

func (a *convAdapter) HandleEntryText(c tele.Context) (bool, error) {
	if !isGroupChat(c) {
		return false, nil
	}
	return a.engine.StartFromCoordinates(helpers.BuildContext(c), inboundFrom(c))
}

func (a *convAdapter) HandleLocation(c tele.Context) error {
	if !isGroupChat(c) {
		return nil
	}
	m := c.Message()
	if m == nil || m.Location == nil {
		return nil
	}
	return a.engine.StartFromLocation(helpers.BuildContext(c), inboundFrom(c))
}

// Callback handlers of the conversation's inline keyboards.

func (a *App) handleConfirm(c tele.Context) error {
	return a.engine.HandleDecision(helpers.BuildContext(c), inboundFrom(c), true)
}

func (a *App) handleCancel(c tele.Context) error {
	return a.engine.HandleDecision(helpers.BuildContext(c), inboundFrom(c), false)
}

func (a *App) handlePick(c tele.Context) error {
	m := c.Message()
	if m == nil || c.Sender() == nil {
		return nil
	}
	sel := conversation.Selection{
		ChatID:    m.Chat.ID,
		MessageID: m.ID,
		UserID:    c.Sender().ID,
		Username:  c.Sender().Username,
		OldText:   m.Text,
		Payload:   callbacks.CallbackPayload(c),
	}
	return a.engine.ConfirmSelection(helpers.BuildContext(c), sel)
}
