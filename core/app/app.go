// Package app is the calendar bot: slash commands, date input and the
// inline-keyboard callbacks that drive selections.
package app

import (
	"errors"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/datepicker/core/config"
	"github.com/m3rciful/datepicker/core/selection"
	tg "github.com/m3rciful/datepicker/core/telegram"
	"github.com/m3rciful/datepicker/core/telegram/callbacks"
	"github.com/m3rciful/datepicker/core/telegram/commands"
	tghelpers "github.com/m3rciful/datepicker/core/telegram/helpers"
	"github.com/m3rciful/datepicker/core/telegram/router"
	"github.com/m3rciful/datepicker/core/telegram/state"
)

// Options wires the bot to its stores.
type Options struct {
	Store    *selection.Store
	Sessions state.Manager
	AdminID  int64
	Now      func() time.Time
}

// Bot holds the handlers. It shares the selection store with the HTTP API.
type Bot struct {
	store    *selection.Store
	sessions state.Manager
	adminID  int64
	now      func() time.Time
}

// New validates opts and returns a Bot.
func New(opts Options) (*Bot, error) {
	if opts.Store == nil {
		return nil, errors.New("app: nil selection store")
	}
	if opts.Sessions == nil {
		opts.Sessions = state.NewMemoryManager()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Bot{store: opts.Store, sessions: opts.Sessions, adminID: opts.AdminID, now: opts.Now}, nil
}

// Register adds commands, callback handlers and the date-input fallback.
func (b *Bot) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", commands.Command{Handler: b.handleStart, Description: "Начать работу"})
	reg.RegisterCommand("/calendar", commands.Command{Handler: b.handleCalendar, Description: "Показать календарь", Aliases: []string{"cal"}})
	reg.RegisterCommand("/selection", commands.Command{Handler: b.handleSelection, Description: "Текущий выбор"})
	reg.RegisterCommand("/clear", commands.Command{Handler: b.handleClear, Description: "Очистить выбор"})
	reg.RegisterCommand("/stats", commands.Command{Handler: b.handleStats, Description: "Статистика", AdminOnly: true})

	handlers := map[callbacks.Kind]tele.HandlerFunc{
		callbacks.KindNavigate:  b.onNavigate,
		callbacks.KindSelectDay: b.onSelectDay,
		callbacks.KindSetMode:   b.onSetMode,
		callbacks.KindIgnore:    b.onIgnore,
	}
	for kind, h := range handlers {
		if err := reg.RegisterCallback(kind, h); err != nil {
			return err
		}
	}
	reg.SetTextFallback(b.handleDateText)
	return nil
}

// Routes returns every route the bot serves.
func (b *Bot) Routes(reg *tg.Registry) []tg.Route {
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       b.adminID,
		OnAdminReject: b.onAdminReject,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{Fallback: b}))
	return append(routes, router.TextRoutes(reg, router.TextOptions{Fallback: b})...)
}

// RunOptions assembles everything RunTelegram needs.
func (b *Bot) RunOptions(cfg *coreconfig.Config) (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	if err := b.Register(reg); err != nil {
		return tg.RunOptions{}, err
	}
	return tg.RunOptions{
		Config:   cfg,
		Registry: reg,
		Middlewares: tg.DefaultMiddlewares(cfg, b.onLimited,
			tg.Middleware{Name: "session", Use: state.WithSession(b.sessions)},
		),
		Routes: b.Routes(reg),
	}, nil
}

// UnknownText answers text that is neither a command nor a date.
func (b *Bot) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, msgUnknownText)
	}
}

// UnknownCallback answers button data that does not decode.
func (b *Bot) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.Answer(c, msgUnsupported)
	}
}

func (b *Bot) onLimited(c tele.Context) error {
	if c.Callback() != nil {
		return tghelpers.Answer(c, msgSlowDown)
	}
	return nil
}

func (b *Bot) onAdminReject(c tele.Context) error {
	return tghelpers.SendText(c, msgAdminOnly)
}

// session returns the view session loaded by middleware, or reads it.
func (b *Bot) session(c tele.Context) state.Session {
	if s, ok := state.FromContext(c); ok {
		return s
	}
	return b.sessions.Get(tghelpers.SenderID(c))
}
