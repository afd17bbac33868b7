package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/datepicker/core/config"
	"github.com/m3rciful/datepicker/core/logger"
	tghelpers "github.com/m3rciful/datepicker/core/telegram/helpers"
	tgsender "github.com/m3rciful/datepicker/core/telegram/sender"
)

// Middleware is a named global middleware registered via bot.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route binds a handler to a telebot endpoint (command string or tele.On*).
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	DispatcherOptions tgsender.Options

	Middlewares []Middleware
	Routes      []Route

	// Settings overrides the bot settings; Token, Poller and Client are
	// filled from Config when empty.
	Settings tele.Settings

	DisableWebhookCleanup bool

	OnStart func(ctx context.Context, bot *tele.Bot) error
}

// RunTelegram builds the bot, wires routes and blocks until ctx is done.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil {
		return errors.New("telegram: nil config provided")
	}
	cfg := opts.Config
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	settings := opts.Settings
	if settings.Token == "" {
		settings.Token = cfg.Telegram.Token
	}
	if settings.Poller == nil {
		settings.Poller = BuildPoller(cfg)
	}
	if settings.Client == nil {
		settings.Client = BuildHTTPClient(ClientOptions{})
	}
	if settings.OnError == nil {
		settings.OnError = func(err error, c tele.Context) {
			ctx := context.Background()
			if c != nil {
				ctx = tghelpers.BuildContext(c)
			}
			logger.LogEvent(ctx, logger.TG, slog.LevelError, "handler.error",
				slog.String("status", "fail"),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		}
	}

	start := time.Now()
	bot, err := tele.NewBot(settings)
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	attrs := []slog.Attr{slog.Int64("duration_ms", logger.Elapsed(start))}
	switch p := settings.Poller.(type) {
	case *tele.Webhook:
		attrs = append(attrs, slog.String("mode", coreconfig.RunModeWebhook), slog.String("listen", p.Listen))
	default:
		attrs = append(attrs, slog.String("mode", coreconfig.RunModeLongpoll))
		if !opts.DisableWebhookCleanup && !settings.Offline && strings.EqualFold(cfg.Telegram.RunMode, coreconfig.RunModeLongpoll) {
			if err := bot.RemoveWebhook(false); err != nil {
				logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "webhook.delete",
					slog.String("status", "fail"),
					slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
				)
			}
		}
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "bot.ready", attrs...)

	dispatcher := tgsender.NewDispatcher(opts.DispatcherOptions)
	tghelpers.SetDispatcher(dispatcher)
	defer func() {
		tghelpers.SetDispatcher(nil)
		dispatcher.Close()
	}()

	names := make([]string, 0, len(opts.Middlewares))
	for _, mw := range opts.Middlewares {
		if mw.Use == nil {
			continue
		}
		bot.Use(mw.Use)
		names = append(names, mw.Name)
	}
	for _, route := range opts.Routes {
		if route.Endpoint == nil || route.Handler == nil {
			continue
		}
		bot.Handle(route.Endpoint, route.Handler)
	}
	logger.LogEvent(ctx, logger.TWire, slog.LevelInfo, "wire.middlewares",
		slog.String("middlewares", strings.Join(names, ",")),
		slog.Int("routes", len(opts.Routes)),
	)

	if !settings.Offline {
		SetupCommands(bot, reg)
	}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, bot); err != nil {
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		bot.Start()
		close(done)
	}()

	select {
	case <-ctx.Done():
		bot.Stop()
		<-done
		logger.LogEvent(context.Background(), logger.TG, slog.LevelInfo, "bot.stopped")
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	case <-done:
		return nil
	}
}
