package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/datepicker/core/bootstrap"
	coreconfig "github.com/m3rciful/datepicker/core/config"
	coretelegram "github.com/m3rciful/datepicker/core/telegram"
)

func testConfig(botToken string) *coreconfig.Config {
	cfg := &coreconfig.Config{}
	cfg.HTTP.Listen = "127.0.0.1"
	cfg.HTTP.Token = "secret"
	cfg.Telegram.Token = botToken
	return cfg
}

func testOptions(cfg *coreconfig.Config, runTelegram func(context.Context, coretelegram.RunOptions) error) Options {
	return Options{
		ConfigPath: "unused.yaml",
		LoadConfig: func(string) (*coreconfig.Config, error) { return cfg, nil },
		Bootstrap: func(cfg *coreconfig.Config) (*bootstrap.Result, error) {
			return bootstrap.Run(bootstrap.Options{Config: cfg, LoggerInit: func(*coreconfig.Config) error { return nil }})
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram:    runTelegram,
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("DP_CONFIG", "/env.yaml")
	assert.Equal(t, "/flag.yaml", ResolveConfigPath(Options{ConfigPath: "/flag.yaml", ConfigEnvVar: "DP_CONFIG"}))
	assert.Equal(t, "/env.yaml", ResolveConfigPath(Options{ConfigEnvVar: "DP_CONFIG", DefaultConfigPath: "/d.yaml"}))
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, "/d.yaml", ResolveConfigPath(Options{DefaultConfigPath: "/d.yaml"}))
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	botStarted := make(chan struct{})
	opts := testOptions(testConfig("123:abc"), func(ctx context.Context, ro coretelegram.RunOptions) error {
		assert.NotNil(t, ro.Registry)
		close(botStarted)
		<-ctx.Done()
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- Run(ctx, opts) }()

	select {
	case <-botStarted:
	case <-time.After(5 * time.Second):
		t.Fatal("bot was not started")
	}
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestTelegramOptionsBuiltBeforeStart(t *testing.T) {
	cfg := testConfig("123:abc")
	res, err := bootstrap.Run(bootstrap.Options{Config: cfg, LoggerInit: func(*coreconfig.Config) error { return nil }})
	require.NoError(t, err)

	ro, err := telegramOptions(res, cfg)
	require.NoError(t, err)
	require.NotNil(t, ro)
	assert.Same(t, cfg, ro.Config)
	assert.NotNil(t, ro.Registry)
	assert.NotEmpty(t, ro.Routes)

	res.Bot = nil
	ro, err = telegramOptions(res, cfg)
	require.NoError(t, err)
	assert.Nil(t, ro)
}

func TestRunBotFailureStopsAPI(t *testing.T) {
	boom := errors.New("bot failed")
	opts := testOptions(testConfig("123:abc"), func(context.Context, coretelegram.RunOptions) error {
		return boom
	})
	err := Run(context.Background(), opts)
	assert.ErrorIs(t, err, boom)
}

func TestRunSkipsBotWithoutToken(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	called := false
	opts := testOptions(testConfig(""), func(context.Context, coretelegram.RunOptions) error {
		called = true
		return nil
	})
	require.NoError(t, Run(ctx, opts))
	assert.False(t, called)
}

func TestRunLoadError(t *testing.T) {
	opts := testOptions(nil, nil)
	opts.LoadConfig = func(string) (*coreconfig.Config, error) { return nil, errors.New("nope") }
	assert.ErrorContains(t, Run(context.Background(), opts), "failed to load config")

	opts.ConfigPath = ""
	opts.DefaultConfigPath = ""
	t.Setenv("CONFIG_PATH", "")
	assert.ErrorContains(t, Run(context.Background(), opts), "config path not provided")
}
