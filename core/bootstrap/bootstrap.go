// Package bootstrap builds the long-lived service components from config.
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/m3rciful/datepicker/core/api"
	"github.com/m3rciful/datepicker/core/app"
	coreconfig "github.com/m3rciful/datepicker/core/config"
	"github.com/m3rciful/datepicker/core/logger"
	"github.com/m3rciful/datepicker/core/selection"
	"github.com/m3rciful/datepicker/core/telegram/state"
)

// Options control the bootstrap pipeline.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Now        func() time.Time
}

// Result exposes the components sharing one selection store. Bot is nil
// when no bot token is configured.
type Result struct {
	Store *selection.Store
	API   *api.Server
	Bot   *app.Bot
}

// Run initializes the logger, the selection store, the HTTP API and, when
// enabled, the Telegram bot.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	cfg := opts.Config

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	store := selection.NewStore()
	server, err := api.NewServer(api.Options{
		Addr:            cfg.HTTP.Addr(),
		Token:           cfg.HTTP.Token,
		CORSOrigins:     cfg.HTTP.CORSOrigins,
		Store:           store,
		Now:             opts.Now,
		ShutdownTimeout: time.Duration(cfg.HTTP.ShutdownSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: api: %w", err)
	}

	res := &Result{Store: store, API: server}
	if cfg.BotEnabled() {
		res.Bot, err = app.New(app.Options{
			Store:    store,
			Sessions: state.NewMemoryManager(),
			AdminID:  cfg.Telegram.AdminID,
			Now:      opts.Now,
		})
		if err != nil {
			return nil, fmt.Errorf("bootstrap: bot: %w", err)
		}
	}
	return res, nil
}
