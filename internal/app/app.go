// Package app wires storage, catalog and the report conversation into the
// Telegram runtime.
package app

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	coretelegram "github.com/elpekenin/docker-bot-tasks/core/telegram"
	"github.com/elpekenin/docker-bot-tasks/core/telegram/commands"
	"github.com/elpekenin/docker-bot-tasks/core/telegram/router"
	"github.com/elpekenin/docker-bot-tasks/internal/catalog"
	"github.com/elpekenin/docker-bot-tasks/internal/conversation"
	"github.com/elpekenin/docker-bot-tasks/internal/session"
	"github.com/elpekenin/docker-bot-tasks/internal/storage"
)

// App is the assembled bot application.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	store    *storage.Storage
	catalog  *catalog.Service
	sessions *session.Store
	engine   *conversation.Engine
	msgr     *botMessenger
	deferrer *runtimeDeferrer
}

// New assembles the application from configuration and an open database.
func New(cfg *Config, db *sqlx.DB) (*App, error) {
	store := storage.New(db)
	catalogSvc := catalog.NewService(store)
	msgr := &botMessenger{}
	deferrer := &runtimeDeferrer{}
	sessions := session.NewStore()

	engine := conversation.New(conversation.Options{
		Sessions:   sessions,
		Messenger:  msgr,
		Repository: store,
		Catalog:    catalogSvc,
		Deferrer:   deferrer,
		GraceDelay: time.Duration(cfg.Reports.GraceDelaySeconds) * time.Second,
		BotURL:     cfg.Telegram.BotURL,
	})

	return &App{
		cfg:      cfg,
		db:       db,
		store:    store,
		catalog:  catalogSvc,
		sessions: sessions,
		engine:   engine,
		msgr:     msgr,
		deferrer: deferrer,
	}, nil
}

// TelegramRunOptions builds the registry, routes and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)
	a.registerCallbacks(reg)
	reg.SetTextFallback(a.handlePrivateText)

	conv := &convAdapter{engine: a.engine}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
	})
	routes = append(routes, router.TextRoutes(conv, reg, router.TextOptions{})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:   a.cfg.CoreConfig(),
		Registry: reg,
		Routes:   routes,
		OnStart: func(_ context.Context, rt coretelegram.Runtime) error {
			a.msgr.Bind(rt.Bot)
			a.deferrer.Bind(rt.Dispatcher)
			return nil
		},
		OnStop: func(_ context.Context, _ coretelegram.Runtime) error {
			return a.db.Close()
		},
	}, nil
}

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Register and pick your language",
	})
	reg.RegisterCommand("/set_lang", commands.Command{
		Handler:     a.handleSetLang,
		Description: "Change your language",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp,
		Description: "How to report tasks",
	})
	reg.RegisterCommand("/rewards", commands.Command{
		Handler:     a.handleRewards,
		Description: "List the rewards you can report",
	})
	reg.RegisterCommand("/get", commands.Command{
		Handler:     a.handleGet,
		Description: "List reports for a reward",
	})
	reg.RegisterCommand("/get_timezones", commands.Command{
		Handler:     a.handleGetTimezones,
		Description: "List the timezones for /add_group",
	})
	reg.RegisterCommand("/add_group", commands.Command{
		Handler:     a.handleAddGroup,
		Description: "Register this group",
	})
	reg.RegisterCommand("/delete", commands.Command{
		Handler:     a.handleDelete,
		Description: "Delete the report you reply to",
	})
	reg.RegisterCommand("/delete_timezone", commands.Command{
		Handler:     a.handleDeleteTimezone,
		Description: "Wipe the reports of a timezone",
		Hidden:      true,
	})
	reg.RegisterCommand("/delete_events", commands.Command{
		Handler:     a.handleDeleteEvents,
		Description: "Drop event catalog entries",
		Hidden:      true,
	})
}

func (a *App) registerCallbacks(reg *coretelegram.Registry) {
	_ = reg.RegisterCallback(conversation.CallbackConfirm, a.handleConfirm)
	_ = reg.RegisterCallback(conversation.CallbackCancel, a.handleCancel)
	_ = reg.RegisterCallback(conversation.CallbackPick, a.handlePick)
}

// Bot exposes the bound Telebot client for tests and maintenance tooling.
func (a *App) Bot() *tele.Bot {
	return a.msgr.bot.Load()
}
