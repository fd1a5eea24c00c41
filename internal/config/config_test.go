package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.IdentityURL == "" || cfg.StudioURL == "" {
		t.Error("default endpoints must be set")
	}
	if cfg.Mode != "description" {
		t.Errorf("default mode = %q", cfg.Mode)
	}
	if cfg.OnError != "stop" {
		t.Errorf("default on_error = %q", cfg.OnError)
	}
	if cfg.Poll.Interval != 5*time.Second {
		t.Errorf("default poll interval = %v", cfg.Poll.Interval)
	}
	if cfg.Poll.MaxAttempts != 120 {
		t.Errorf("default max attempts = %d", cfg.Poll.MaxAttempts)
	}
	if cfg.BufferSize != 512*1024 {
		t.Errorf("default buffer size = %d", cfg.BufferSize)
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
identity_url: "http://localhost:8080"
studio_url: "http://localhost:8081"
accounts:
  - "+15550001111"
  - "+15550002222"
mode: "lyrics"
output: "mem://"
on_error: "skip"
poll:
  interval: "2s"
  max_attempts: 30
http_timeout: "1m"
buffer_size: "1MB"
progress: true
log_level: "debug"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.IdentityURL != "http://localhost:8080" {
		t.Errorf("identity_url = %q", cfg.IdentityURL)
	}
	if len(cfg.Accounts) != 2 {
		t.Errorf("accounts = %v", cfg.Accounts)
	}
	if cfg.Mode != "lyrics" {
		t.Errorf("mode = %q", cfg.Mode)
	}
	if cfg.OnError != "skip" {
		t.Errorf("on_error = %q", cfg.OnError)
	}
	if cfg.Poll.Interval != 2*time.Second {
		t.Errorf("poll interval = %v", cfg.Poll.Interval)
	}
	if cfg.Poll.MaxAttempts != 30 {
		t.Errorf("max attempts = %d", cfg.Poll.MaxAttempts)
	}
	if cfg.HTTPTimeout != time.Minute {
		t.Errorf("http_timeout = %v", cfg.HTTPTimeout)
	}
	if cfg.BufferSize != 1024*1024 {
		t.Errorf("buffer_size = %d", cfg.BufferSize)
	}
	if !cfg.Progress {
		t.Error("progress not set")
	}
}

func TestLoadFromFilePartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(`mode: "lyrics"`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	// Unset keys keep their defaults.
	if cfg.Mode != "lyrics" {
		t.Errorf("mode = %q", cfg.Mode)
	}
	if cfg.Poll.Interval != Default().Poll.Interval {
		t.Errorf("poll interval = %v", cfg.Poll.Interval)
	}
}

func TestLoadFromFileBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("poll:\n  interval: \"soon\""), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for unparseable interval")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CROON_IDENTITY_URL", "http://id.test")
	t.Setenv("CROON_ACCOUNTS", "+1, +2 ,+1")
	t.Setenv("CROON_POLL_INTERVAL", "250ms")
	t.Setenv("CROON_BUFFER_SIZE", "64KB")
	t.Setenv("CROON_PROGRESS", "1")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.IdentityURL != "http://id.test" {
		t.Errorf("identity_url = %q", cfg.IdentityURL)
	}
	if len(cfg.Accounts) != 2 || cfg.Accounts[0] != "+1" || cfg.Accounts[1] != "+2" {
		t.Errorf("accounts = %v", cfg.Accounts)
	}
	if cfg.Poll.Interval != 250*time.Millisecond {
		t.Errorf("poll interval = %v", cfg.Poll.Interval)
	}
	if cfg.BufferSize != 64*1024 {
		t.Errorf("buffer_size = %d", cfg.BufferSize)
	}
	if !cfg.Progress {
		t.Error("progress not set")
	}
}

func TestLoadFromEnvBadValue(t *testing.T) {
	t.Setenv("CROON_POLL_MAX_ATTEMPTS", "lots")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err == nil {
		t.Error("expected error for unparseable max attempts")
	}
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Accounts = []string{"+15550001111"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"no accounts", func(c *Config) { c.Accounts = nil }, true},
		{"no identity url", func(c *Config) { c.IdentityURL = "" }, true},
		{"no studio url", func(c *Config) { c.StudioURL = "" }, true},
		{"bad mode", func(c *Config) { c.Mode = "interpretive" }, true},
		{"custom mode ok", func(c *Config) { c.Mode = "custom" }, false},
		{"bad policy", func(c *Config) { c.OnError = "panic" }, true},
		{"zero interval", func(c *Config) { c.Poll.Interval = 0 }, true},
		{"zero attempts", func(c *Config) { c.Poll.MaxAttempts = 0 }, true},
		{"zero buffer", func(c *Config) { c.BufferSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := Default()
	base.Accounts = []string{"+1"}

	merged := base.Merge(Config{
		Mode:     "lyrics",
		Accounts: []string{"+2", "+3"},
		Poll:     PollConfig{MaxAttempts: 10},
	})

	if merged.Mode != "lyrics" {
		t.Errorf("mode = %q", merged.Mode)
	}
	if len(merged.Accounts) != 2 {
		t.Errorf("accounts = %v", merged.Accounts)
	}
	if merged.Poll.MaxAttempts != 10 {
		t.Errorf("max attempts = %d", merged.Poll.MaxAttempts)
	}
	// Untouched values survive the merge.
	if merged.Poll.Interval != base.Poll.Interval {
		t.Errorf("poll interval = %v", merged.Poll.Interval)
	}
	if merged.IdentityURL != base.IdentityURL {
		t.Errorf("identity_url = %q", merged.IdentityURL)
	}
}

func TestCleanAccounts(t *testing.T) {
	got := cleanAccounts([]string{" +1 ", "+2", "+1", "", "+2"})
	if len(got) != 2 || got[0] != "+1" || got[1] != "+2" {
		t.Errorf("cleanAccounts = %v", got)
	}
}
