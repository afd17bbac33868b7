package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func baseConfig() *Config {
	return &Config{HTTP: HTTPConfig{Token: "secret"}}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := baseConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.HTTP.Port != 3000 {
		t.Errorf("port = %d, want 3000", cfg.HTTP.Port)
	}
	if len(cfg.HTTP.CORSOrigins) != 1 || cfg.HTTP.CORSOrigins[0] != "*" {
		t.Errorf("cors = %v, want [*]", cfg.HTTP.CORSOrigins)
	}
	if cfg.HTTP.ShutdownSeconds != 5 {
		t.Errorf("shutdown = %d, want 5", cfg.HTTP.ShutdownSeconds)
	}
	if cfg.BotEnabled() {
		t.Error("bot must be disabled without a token")
	}
	if cfg.Telegram.RunMode != "" {
		t.Errorf("run mode touched for disabled bot: %q", cfg.Telegram.RunMode)
	}
}

func TestNormalizeRequiresAPIToken(t *testing.T) {
	err := Normalize(&Config{})
	if err == nil || !strings.Contains(err.Error(), "http.token") {
		t.Fatalf("expected http.token error, got %v", err)
	}
}

func TestNormalizeRunModes(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		want    string
		wantErr string
	}{
		{name: "default longpoll", mutate: func(c *Config) {}, want: RunModeLongpoll},
		{name: "polling alias", mutate: func(c *Config) { c.Telegram.RunMode = " Polling " }, want: RunModeLongpoll},
		{name: "unknown", mutate: func(c *Config) { c.Telegram.RunMode = "push" }, wantErr: "invalid telegram.run_mode"},
		{name: "webhook without url", mutate: func(c *Config) { c.Telegram.RunMode = "webhook" }, wantErr: "webhook.url"},
		{name: "webhook port clash", mutate: func(c *Config) {
			c.Telegram.RunMode = "webhook"
			c.Webhook = WebhookConfig{URL: "https://example.org/hook", Listen: "0.0.0.0", Port: 3000}
		}, wantErr: "collides"},
		{name: "webhook ok", mutate: func(c *Config) {
			c.Telegram.RunMode = "WEBHOOK"
			c.Webhook = WebhookConfig{URL: "https://example.org/hook", Listen: "0.0.0.0", Port: 8443}
		}, want: RunModeWebhook},
		{name: "negative timeout", mutate: func(c *Config) { c.Telegram.LongPollTimeoutSeconds = -1 }, wantErr: "longpoll_timeout_seconds"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.Telegram.Token = "123:abc"
			tc.mutate(cfg)
			err := Normalize(cfg)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if cfg.Telegram.RunMode != tc.want {
				t.Fatalf("run mode = %q, want %q", cfg.Telegram.RunMode, tc.want)
			}
		})
	}
}

func TestNormalizeRateLimitExclusions(t *testing.T) {
	cfg := baseConfig()
	cfg.RateLimit.ExcludeUpdates = []string{" Callback ", "MESSAGE"}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := cfg.RateLimit.ExcludeUpdates; got[0] != UpdateCallback || got[1] != UpdateMessage {
		t.Fatalf("exclusions = %v", got)
	}

	cfg = baseConfig()
	cfg.RateLimit.ExcludeUpdates = []string{"inline_query"}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for unsupported update kind")
	}
}

func TestLoadOverlaysEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
http:
  listen: 127.0.0.1
  port: 8080
  token: from-file
  cors_origins: ["https://a.example", " "]
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("API_TOKEN", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Token != "from-env" {
		t.Errorf("token = %q, want env override", cfg.HTTP.Token)
	}
	if cfg.HTTP.Addr() != "127.0.0.1:8080" {
		t.Errorf("addr = %q", cfg.HTTP.Addr())
	}
	if len(cfg.HTTP.CORSOrigins) != 1 || cfg.HTTP.CORSOrigins[0] != "https://a.example" {
		t.Errorf("cors = %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("API_TOKEN", "env-only")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Token != "env-only" || cfg.HTTP.Port != 3000 {
		t.Fatalf("unexpected config: %+v", cfg.HTTP)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("http: [oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
