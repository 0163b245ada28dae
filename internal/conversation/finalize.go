package conversation

import (
	"context"
	"strconv"
	"strings"

	"github.com/elpekenin/docker-bot-tasks/core/logger"
	"github.com/elpekenin/docker-bot-tasks/internal/catalog"
	"github.com/elpekenin/docker-bot-tasks/internal/model"
	"github.com/elpekenin/docker-bot-tasks/internal/session"
	"github.com/elpekenin/docker-bot-tasks/internal/texts"
	"log/slog"
)

// finalize turns the task answer into a report message. An answer without a
// '/' carries a single reward and is persisted immediately; anything else
// produces a placeholder with one inline button per candidate. Either way the
// session terminates here.
func (e *Engine) finalize(ctx context.Context, s *session.Session, in Inbound) error {
	lang := s.Group.Language
	tokens := catalog.RewardTokens(in.Text)
	if len(tokens) == 0 {
		return e.failKeyboard(ctx, s)
	}

	known, err := e.catalog.AvailableRewards(ctx, lang)
	if err != nil {
		return err
	}
	for _, tok := range tokens {
		if !containsString(known, catalog.StripShiny(tok)) {
			return e.failKeyboard(ctx, s)
		}
	}

	label := s.Pokestop
	if label == "" {
		label = e.text(ctx, lang, texts.KeyLocation)
	}
	link := MapsLink(label, s.Latitude, s.Longitude)
	reported := e.text(ctx, lang, texts.KeyReported)

	if !strings.Contains(in.Text, "/") {
		return e.finalizeSingle(ctx, s, in, link, reported, tokens[0])
	}
	return e.finalizeMulti(ctx, s, in, link, reported, tokens)
}

func (e *Engine) finalizeSingle(ctx context.Context, s *session.Session, in Inbound, link, reported, token string) error {
	body := renderReport(link, in.Text, reported, in.Username)
	id, err := e.msgr.Send(ctx, s.ChatID, Message{Text: body, HTML: true, RemoveKeyboard: true})
	if err != nil {
		return err
	}

	report := model.Report{
		GroupID:    s.ChatID,
		MessageID:  id,
		LocationID: s.LocationID,
		Longitude:  s.Longitude,
		Latitude:   s.Latitude,
		Reward:     catalog.StripShiny(token),
		Timezone:   s.Group.Timezone,
		Pokestop:   s.Pokestop,
	}
	if err := e.repo.InsertReport(ctx, report); err != nil {
		_ = e.terminateNow(ctx, s, false)
		return err
	}
	if err := e.repo.IncrementUserReports(ctx, s.UserID); err != nil {
		logger.Warn(ctx, "conversation", "report.counter_failed",
			slog.Int64("user_id", s.UserID),
			slog.String("err", err.Error()),
		)
	}

	logger.Info(ctx, "conversation", "report.filed",
		slog.Int64("chat_id", s.ChatID),
		slog.String("reward", report.Reward),
	)
	return e.terminateNow(ctx, s, false)
}

func (e *Engine) finalizeMulti(ctx context.Context, s *session.Session, in Inbound, link, reported string, tokens []string) error {
	unknown := e.text(ctx, s.Group.Language, texts.KeyUnknown)
	body := renderUnknown(link, in.Text, unknown, reported, in.Username)

	buttons := make([]Button, 0, len(tokens))
	for _, tok := range tokens {
		buttons = append(buttons, Button{
			Text:   tok,
			Unique: CallbackPick,
			Data:   encodeSelection(tok, s.Longitude, s.Latitude, s.Pokestop, s.LocationID),
		})
	}

	id, err := e.msgr.Send(ctx, s.ChatID, Message{Text: body, HTML: true, Buttons: buttons})
	if err != nil {
		return err
	}

	placeholder := model.Report{
		GroupID:    s.ChatID,
		MessageID:  id,
		LocationID: s.LocationID,
		Longitude:  s.Longitude,
		Latitude:   s.Latitude,
		Reward:     model.RewardUnconfirmed,
		Timezone:   s.Group.Timezone,
		Pokestop:   s.Pokestop,
	}
	if err := e.repo.InsertReport(ctx, placeholder); err != nil {
		_ = e.terminateNow(ctx, s, false)
		return err
	}

	logger.Info(ctx, "conversation", "report.pending",
		slog.Int64("chat_id", s.ChatID),
		slog.Int("candidates", len(tokens)),
	)
	return e.terminateNow(ctx, s, false)
}

// Selection is an inline reward pick on a placeholder report. OldText is the
// plain text of the placeholder message as Telegram reports it.
type Selection struct {
	ChatID    int64
	MessageID int
	UserID    int64
	Username  string
	OldText   string
	Payload   string
}

// ConfirmSelection resolves a multi-reward placeholder: the message is
// rewritten with the picked reward and the placeholder row is upserted. It
// runs outside any session, possibly long after the conversation ended.
func (e *Engine) ConfirmSelection(ctx context.Context, sel Selection) error {
	reward, lon, lat, pokestop, locationID, err := decodeSelection(sel.Payload)
	if err != nil {
		return err
	}

	g, err := e.repo.Group(ctx, sel.ChatID)
	if err != nil {
		return err
	}

	cp, err := e.catalog.RewardCP(ctx, g.Language, catalog.StripShiny(reward))
	if err != nil {
		logger.Warn(ctx, "conversation", "selection.cp_lookup_failed",
			slog.String("reward", reward),
			slog.String("err", err.Error()),
		)
	}

	body := renderSelection(sel.OldText, reward, cp, lat, lon,
		e.text(ctx, g.Language, texts.KeyConfirmed), sel.Username)
	if err := e.msgr.Edit(ctx, sel.ChatID, sel.MessageID, Message{
		Text:         body,
		HTML:         true,
		ClearButtons: true,
	}); err != nil {
		return err
	}

	report := model.Report{
		GroupID:    sel.ChatID,
		MessageID:  sel.MessageID,
		LocationID: locationID,
		Longitude:  lon,
		Latitude:   lat,
		Reward:     catalog.StripShiny(reward),
		Timezone:   g.Timezone,
		Pokestop:   pokestop,
	}
	if err := e.repo.ConfirmReport(ctx, report); err != nil {
		return err
	}
	if err := e.repo.IncrementUserReports(ctx, sel.UserID); err != nil {
		logger.Warn(ctx, "conversation", "report.counter_failed",
			slog.Int64("user_id", sel.UserID),
			slog.String("err", err.Error()),
		)
	}

	logger.Info(ctx, "conversation", "report.confirmed",
		slog.Int64("chat_id", sel.ChatID),
		slog.String("reward", report.Reward),
	)
	return nil
}

// renderSelection rebuilds a placeholder message around the picked reward.
// Telegram hands the old text back without entities, so the maps link is
// rebuilt from the payload coordinates.
func renderSelection(oldText, reward string, cp int, lat, lon float64, confirmed, username string) string {
	rows := strings.Split(oldText, "\n")

	out := make([]string, 0, len(rows)+2)
	out = append(out, MapsLink(rows[0], lat, lon))

	if len(rows) > 1 {
		seg := strings.SplitN(rows[1], ",", 2)
		line := "<b>" + reward + "</b>"
		if len(seg) == 2 {
			line += ",<i>" + seg[1] + "</i>"
		}
		out = append(out, line)
	} else {
		out = append(out, "<b>"+reward+"</b>")
	}
	if cp > 0 {
		out = append(out, catalog.CPMark+": "+strconv.Itoa(cp))
	}
	if len(rows) > 2 {
		out = append(out, rows[2:]...)
	}
	out = append(out, confirmed+" @"+username)
	return strings.Join(out, "\n")
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
