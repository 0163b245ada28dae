package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes a convenience wrapper for inline button properties.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
	URL    string
}

// RemoveKeyboard returns a markup that hides the reply keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// OneTimeList builds a one-time reply keyboard with one option per row, the
// layout used for category and task pickers.
func OneTimeList(options []string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{OneTimeKeyboard: true, ResizeKeyboard: true}
	rows := make([]tele.Row, 0, len(options))
	for _, label := range options {
		rows = append(rows, markup.Row(markup.Text(label)))
	}
	markup.Reply(rows...)
	return markup
}

// InlineRow builds an inline keyboard with all buttons on a single row.
func InlineRow(buttons ...InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	row := make([]tele.InlineButton, 0, len(buttons))
	for _, btn := range buttons {
		if btn.URL != "" {
			row = append(row, *markup.URL(btn.Text, btn.URL).Inline())
			continue
		}
		row = append(row, *markup.Data(btn.Text, btn.Unique, btn.Data).Inline())
	}
	markup.InlineKeyboard = [][]tele.InlineButton{row}
	return markup
}

// EmptyInline returns a markup that clears an inline keyboard on edit.
func EmptyInline() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{}}
}
