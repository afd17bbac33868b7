// Package cmd runs the service: config, bootstrap, then the HTTP API and
// the optional bot side by side until a signal arrives.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/datepicker/core/bootstrap"
	coreconfig "github.com/m3rciful/datepicker/core/config"
	"github.com/m3rciful/datepicker/core/logger"
	coretelegram "github.com/m3rciful/datepicker/core/telegram"
)

// Options describe how to load configuration, bootstrap and run.
type Options struct {
	// ConfigPath wins over ConfigEnvVar, which wins over DefaultConfigPath.
	ConfigPath        string
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (*coreconfig.Config, error)
	Bootstrap  func(cfg *coreconfig.Config) (*bootstrap.Result, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

// ResolveConfigPath picks the config file location.
func ResolveConfigPath(opts Options) string {
	if opts.ConfigPath != "" {
		return opts.ConfigPath
	}
	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	if p := os.Getenv(env); p != "" {
		return p
	}
	return opts.DefaultConfigPath
}

// Run loads configuration, bootstraps and serves until ctx is cancelled or
// SIGINT/SIGTERM arrives. A failure in either the API or the bot stops both.
func Run(ctx context.Context, opts Options) error {
	if opts.LoadConfig == nil {
		opts.LoadConfig = coreconfig.Load
	}
	if opts.Bootstrap == nil {
		opts.Bootstrap = func(cfg *coreconfig.Config) (*bootstrap.Result, error) {
			return bootstrap.Run(bootstrap.Options{Config: cfg})
		}
	}
	if opts.ShutdownLogger == nil {
		opts.ShutdownLogger = logger.Shutdown
	}
	if opts.RunTelegram == nil {
		opts.RunTelegram = coretelegram.RunTelegram
	}

	cfgPath := ResolveConfigPath(opts)
	if cfgPath == "" {
		return errors.New("cmd: config path not provided")
	}
	log.Printf("loading config: %s", cfgPath)
	cfg, err := opts.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}

	startedAt := time.Now()
	res, err := opts.Bootstrap(cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}
	defer func() {
		if err := opts.ShutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	// Everything that can fail is built before the first goroutine starts.
	botOpts, err := telegramOptions(res, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return res.API.Run(gctx) })
	if botOpts != nil {
		g.Go(func() error { return opts.RunTelegram(gctx, *botOpts) })
	}

	logger.Info(ctx, "app", "ready",
		slog.Bool("active", botOpts != nil),
		slog.Int64("duration_ms", logger.Elapsed(startedAt)),
	)
	err = g.Wait()
	logger.Info(context.Background(), "app", "shutdown", slog.String("status", logger.StatusOf(err)))
	return err
}

// telegramOptions returns nil when the bot is disabled.
func telegramOptions(res *bootstrap.Result, cfg *coreconfig.Config) (*coretelegram.RunOptions, error) {
	if res.Bot == nil {
		return nil, nil
	}
	runOpts, err := res.Bot.RunOptions(cfg)
	if err != nil {
		return nil, fmt.Errorf("cmd: telegram options build failed: %w", err)
	}
	return &runOpts, nil
}
