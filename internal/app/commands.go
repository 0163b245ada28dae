package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/elpekenin/docker-bot-tasks/core/telegram/helpers"
	"github.com/elpekenin/docker-bot-tasks/core/telegram/keyboard"
	"github.com/elpekenin/docker-bot-tasks/core/telegram/middleware"
	"github.com/elpekenin/docker-bot-tasks/internal/conversation"
	"github.com/elpekenin/docker-bot-tasks/internal/model"
	"github.com/elpekenin/docker-bot-tasks/internal/storage"
	"github.com/elpekenin/docker-bot-tasks/internal/texts"
)

const defaultLanguage = "english"

// defaultTexts back localized rows that may be missing from the texts table.
var defaultTexts = map[string]string{
	texts.KeyStart:      "Hi! Pick the language you want to use:",
	texts.KeyRegistered: "You are registered now. Happy reporting!",
	texts.KeyPrivate:    "Pick one of the languages on the keyboard to register.",
	texts.KeyDefault:    "I did not understand that. Try /help.",
	texts.KeyNoReports:  "No reports yet.",
	texts.KeyLocation:   "Location",
	texts.KeyReset:      "A new day began, yesterday's reports were cleared.",
}

func (a *App) textFor(ctx context.Context, language, key string) string {
	v, err := a.store.Text(ctx, language, key)
	if err != nil || v == "" {
		return defaultTexts[key]
	}
	return v
}

// chatLanguage resolves the language for replies: the group's configured one,
// or the sender's registration in private chats.
func (a *App) chatLanguage(ctx context.Context, c tele.Context) string {
	chat := c.Chat()
	if chat != nil && chat.Type == tele.ChatPrivate {
		if c.Sender() != nil {
			if lang, err := a.store.UserLanguage(ctx, c.Sender().ID); err == nil {
				return lang
			}
		}
		return defaultLanguage
	}
	if chat != nil {
		if g, err := a.store.Group(ctx, chat.ID); err == nil {
			return g.Language
		}
	}
	return defaultLanguage
}

// cleanupLater removes helper messages after the configured grace delay so
// command chatter does not pile up in group chats.
func (a *App) cleanupLater(ctx context.Context, chatID int64, ids ...int) {
	grace := time.Duration(a.cfg.Reports.GraceDelaySeconds) * time.Second
	_ = a.deferrer.After(ctx, "commands.cleanup", grace, func() error {
		for _, id := range ids {
			if id != 0 {
				_ = a.msgr.Delete(ctx, chatID, id)
			}
		}
		return nil
	})
}

func (a *App) isOwner(c tele.Context) bool {
	owner := a.cfg.Telegram.OwnerUsername
	return owner != "" && c.Sender() != nil &&
		strings.EqualFold(c.Sender().Username, owner)
}

// handleStart shows the language picker in a private chat.
func (a *App) handleStart(c tele.Context) error {
	if c.Chat() == nil || c.Chat().Type != tele.ChatPrivate {
		return nil
	}
	ctx := helpers.BuildContext(c)
	languages, err := a.store.Languages(ctx)
	if err != nil {
		return err
	}
	prompt := a.textFor(ctx, defaultLanguage, texts.KeyStart)
	return helpers.SendText(c, prompt, &tele.SendOptions{
		ReplyMarkup: keyboard.OneTimeList(languages),
	})
}

// handleSetLang updates the sender's language. With no argument it falls
// back to the /start keyboard.
func (a *App) handleSetLang(c tele.Context) error {
	if c.Chat() == nil || c.Chat().Type != tele.ChatPrivate || c.Sender() == nil {
		return nil
	}
	args := c.Args()
	if len(args) == 0 {
		return a.handleStart(c)
	}

	ctx := helpers.BuildContext(c)
	languages, err := a.store.Languages(ctx)
	if err != nil {
		return err
	}
	for _, lang := range languages {
		if strings.EqualFold(lang, args[0]) {
			if err := a.store.RegisterUser(ctx, c.Sender().ID, lang); err != nil {
				return err
			}
			return helpers.SendText(c, a.textFor(ctx, lang, texts.KeyRegistered),
				&tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()})
		}
	}
	return helpers.SendText(c, a.textFor(ctx, defaultLanguage, texts.KeyPrivate))
}

// handlePrivateText registers the sender when the text names a known
// language. It is the text fallback, so it only acts in private chats.
func (a *App) handlePrivateText(c tele.Context) error {
	if c.Chat() == nil || c.Chat().Type != tele.ChatPrivate || c.Sender() == nil {
		return nil
	}
	ctx := helpers.BuildContext(c)
	languages, err := a.store.Languages(ctx)
	if err != nil {
		return err
	}

	answer := strings.TrimSpace(c.Text())
	for _, lang := range languages {
		if strings.EqualFold(lang, answer) {
			if err := a.store.RegisterUser(ctx, c.Sender().ID, lang); err != nil {
				return err
			}
			return helpers.SendText(c, a.textFor(ctx, lang, texts.KeyRegistered),
				&tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()})
		}
	}
	return helpers.SendText(c, a.textFor(ctx, defaultLanguage, texts.KeyPrivate))
}

// handleHelp sends the localized command overview.
func (a *App) handleHelp(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	lang := a.chatLanguage(ctx, c)
	lines, err := a.store.CommandHelp(ctx, lang)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return helpers.SendText(c, a.textFor(ctx, lang, texts.KeyDefault))
	}
	return helpers.SendHTML(c, strings.Join(lines, "\n"))
}

// handleRewards lists every reward the catalog knows for the chat's language.
func (a *App) handleRewards(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	lang := a.chatLanguage(ctx, c)
	rewards, err := a.catalog.AvailableRewards(ctx, lang)
	if err != nil {
		return err
	}
	if len(rewards) == 0 {
		return helpers.SendText(c, a.textFor(ctx, lang, texts.KeyNoReports))
	}
	return helpers.SendText(c, strings.Join(rewards, "\n"))
}

// handleGet sends the chat's reports for a reward to the requester's private
// chat, one maps link per report; a trailing "1" adds raw coordinates. The
// command and any error notice are swept after the grace delay.
func (a *App) handleGet(c tele.Context) error {
	if !isGroupChat(c) || c.Sender() == nil {
		return nil
	}
	ctx := helpers.BuildContext(c)
	lang := a.chatLanguage(ctx, c)
	chatID := c.Chat().ID
	commandID := 0
	if c.Message() != nil {
		commandID = c.Message().ID
	}

	args := c.Args()
	raw := false
	if len(args) > 0 && args[len(args)-1] == "1" {
		raw = true
		args = args[:len(args)-1]
	}
	reward := strings.TrimSpace(strings.Join(args, " "))
	if reward == "" {
		return helpers.SendText(c, "Usage: /get <reward> [1]")
	}

	reports, err := a.store.ReportsByReward(ctx, chatID, reward)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		id, sendErr := a.msgr.Send(ctx, chatID, conversation.Message{
			Text: a.textFor(ctx, lang, texts.KeyNoReports),
		})
		if sendErr != nil {
			return sendErr
		}
		a.cleanupLater(ctx, chatID, id, commandID)
		return nil
	}

	lines := make([]string, 0, len(reports)+1)
	lines = append(lines, "<b>"+reward+"</b>")
	for _, r := range reports {
		label := r.Pokestop
		if label == "" {
			label = a.textFor(ctx, lang, texts.KeyLocation)
		}
		line := conversation.MapsLink(label, r.Latitude, r.Longitude)
		if raw {
			line += fmt.Sprintf(" <code>%v,%v</code>", r.Latitude, r.Longitude)
		}
		lines = append(lines, line)
	}

	_, err = a.msgr.Send(ctx, c.Sender().ID, conversation.Message{
		Text: strings.Join(lines, "\n"),
		HTML: true,
	})
	if err != nil {
		// The user never opened a private chat with the bot.
		id, sendErr := a.msgr.Send(ctx, chatID, conversation.Message{
			Text: a.textFor(ctx, lang, texts.KeyPrivate),
		})
		if sendErr != nil {
			return sendErr
		}
		a.cleanupLater(ctx, chatID, id, commandID)
		return nil
	}
	a.cleanupLater(ctx, chatID, commandID)
	return nil
}

// handleGetTimezones lists the GMT buckets groups may register with.
func (a *App) handleGetTimezones(c tele.Context) error {
	return helpers.SendText(c, strings.Join(texts.Timezones(), "\n"))
}

var (
	errGroupUsage      = errors.New("app: bad group arguments")
	errUnknownLanguage = errors.New("app: unknown language")
	errUnknownTimezone = errors.New("app: unknown timezone")
)

// parseGroupArgs validates /add_group arguments: <language> <pokestop>
// <timezone> [confirmation]. The language is matched case-insensitively and
// the catalog's canonical casing is what gets stored.
func parseGroupArgs(languages, args []string) (model.Group, error) {
	if len(args) < 3 {
		return model.Group{}, errGroupUsage
	}

	var g model.Group
	for _, lang := range languages {
		if strings.EqualFold(lang, args[0]) {
			g.Language = lang
			break
		}
	}
	if g.Language == "" {
		return model.Group{}, errUnknownLanguage
	}

	pokestop, err := strconv.ParseBool(args[1])
	if err != nil {
		return model.Group{}, errGroupUsage
	}
	g.Pokestop = pokestop

	if !texts.ValidTimezone(args[2]) {
		return model.Group{}, errUnknownTimezone
	}
	g.Timezone = args[2]

	if len(args) > 3 {
		if g.Confirmation, err = strconv.ParseBool(args[3]); err != nil {
			return model.Group{}, errGroupUsage
		}
	}
	return g, nil
}

// handleAddGroup registers the chat or updates its configuration:
// /add_group <language> <pokestop> <timezone> [confirmation].
func (a *App) handleAddGroup(c tele.Context) error {
	if !isGroupChat(c) || c.Sender() == nil {
		return nil
	}
	if !middleware.IsChatAdmin(c, c.Sender().ID) {
		return helpers.SendText(c, "Only group admins can register the group.")
	}
	ctx := helpers.BuildContext(c)

	languages, err := a.store.Languages(ctx)
	if err != nil {
		return err
	}

	g, err := parseGroupArgs(languages, c.Args())
	switch {
	case errors.Is(err, errUnknownLanguage):
		return helpers.SendText(c, "Unknown language, pick one of: "+strings.Join(languages, ", "))
	case errors.Is(err, errUnknownTimezone):
		return helpers.SendText(c, "Unknown timezone, see /get_timezones.")
	case err != nil:
		return helpers.SendHTML(c, "Usage: <code>/add_group &lt;language&gt; &lt;pokestop&gt; &lt;timezone&gt; [confirmation]</code>")
	}
	g.GroupID = c.Chat().ID

	created, err := a.store.SaveGroup(ctx, g)
	if err != nil {
		return err
	}
	if created {
		return helpers.SendText(c, "Group registered, you can start reporting.")
	}
	return helpers.SendText(c, "Group settings updated.")
}

// handleDelete removes the report a /delete reply points at, together with
// its report and location messages. The lookup matches the rendered report
// message first and falls back to the location message.
func (a *App) handleDelete(c tele.Context) error {
	if !isGroupChat(c) || c.Sender() == nil {
		return nil
	}
	if !middleware.IsChatAdmin(c, c.Sender().ID) {
		return nil
	}
	ctx := helpers.BuildContext(c)

	m := c.Message()
	if m == nil || m.ReplyTo == nil {
		return helpers.SendText(c, "Reply to a report with /delete to remove it.")
	}

	chatID := c.Chat().ID
	report, _, err := a.store.FindReport(ctx, chatID, m.ReplyTo.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return helpers.SendText(c, "That message is not a report.")
	}
	if err != nil {
		return err
	}

	if err := a.store.DeleteReport(ctx, chatID, report.MessageID); err != nil {
		return err
	}
	for _, id := range []int{report.MessageID, report.LocationID, m.ID} {
		if id == 0 {
			continue
		}
		if delErr := a.msgr.Delete(ctx, chatID, id); delErr != nil {
			// The row is gone; a missing message is not worth failing over.
			continue
		}
	}
	return nil
}

// handleDeleteTimezone wipes every report of one GMT bucket, messages and
// rows alike. Owner only; used for the midnight task rollover.
func (a *App) handleDeleteTimezone(c tele.Context) error {
	if !a.isOwner(c) {
		return nil
	}
	ctx := helpers.BuildContext(c)

	args := c.Args()
	if len(args) != 1 || !texts.ValidTimezone(args[0]) {
		return helpers.SendText(c, "Usage: /delete_timezone <GMT+X>")
	}
	timezone := args[0]

	reports, err := a.store.ReportsByTimezone(ctx, timezone)
	if err != nil {
		return err
	}
	for _, r := range reports {
		for _, id := range []int{r.MessageID, r.LocationID} {
			if id == 0 {
				continue
			}
			_ = a.msgr.Delete(ctx, r.GroupID, id)
		}
	}

	removed, err := a.store.DeleteReportsByTimezone(ctx, timezone)
	if err != nil {
		return err
	}

	// Tell every affected group; the warning itself disappears after the
	// grace delay.
	groups, err := a.store.GroupsByTimezone(ctx, timezone)
	if err != nil {
		return err
	}
	for _, g := range groups {
		id, sendErr := a.msgr.Send(ctx, g.GroupID, conversation.Message{
			Text: a.textFor(ctx, g.Language, texts.KeyReset),
		})
		if sendErr != nil {
			continue
		}
		a.cleanupLater(ctx, g.GroupID, id)
	}

	return helpers.SendText(c, fmt.Sprintf("Removed %d reports in %s.", removed, timezone))
}

// handleDeleteEvents drops the event-only catalog entries once an event ends.
func (a *App) handleDeleteEvents(c tele.Context) error {
	if !a.isOwner(c) {
		return nil
	}
	ctx := helpers.BuildContext(c)
	removed, err := a.store.DeleteEventTasks(ctx)
	if err != nil {
		return err
	}
	return helpers.SendText(c, fmt.Sprintf("Removed %d event tasks.", removed))
}
