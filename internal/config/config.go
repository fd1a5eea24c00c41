package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/croonlabs/croon/internal/progress"
)

// Config defines configuration for the croon CLI.
type Config struct {
	IdentityURL string     `yaml:"identity_url"`
	StudioURL   string     `yaml:"studio_url"`
	Accounts    []string   `yaml:"accounts"`
	Mode        string     `yaml:"mode"`
	Output      string     `yaml:"output"`
	OnError     string     `yaml:"on_error"`
	Poll        PollConfig `yaml:"poll"`
	HTTPTimeout time.Duration
	BufferSize  int64
	Progress    bool   `yaml:"progress"`
	LogLevel    string `yaml:"log_level"`
}

// PollConfig defines completion polling cadence.
type PollConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		IdentityURL: "https://clerk.suno.com",
		StudioURL:   "https://studio-api.suno.ai",
		Mode:        "description",
		Output:      "file://.",
		OnError:     "stop",
		Poll: PollConfig{
			Interval:    5 * time.Second,
			MaxAttempts: 120,
		},
		HTTPTimeout: 30 * time.Second,
		BufferSize:  512 * 1024,
		LogLevel:    "info",
	}
}

// yamlConfig is used for YAML unmarshaling with string durations and sizes.
type yamlConfig struct {
	IdentityURL string         `yaml:"identity_url"`
	StudioURL   string         `yaml:"studio_url"`
	Accounts    []string       `yaml:"accounts"`
	Mode        string         `yaml:"mode"`
	Output      string         `yaml:"output"`
	OnError     string         `yaml:"on_error"`
	Poll        yamlPollConfig `yaml:"poll"`
	HTTPTimeout string         `yaml:"http_timeout"`
	BufferSize  string         `yaml:"buffer_size"`
	Progress    bool           `yaml:"progress"`
	LogLevel    string         `yaml:"log_level"`
}

type yamlPollConfig struct {
	Interval    string `yaml:"interval"`
	MaxAttempts int    `yaml:"max_attempts"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.IdentityURL != "" {
		cfg.IdentityURL = yc.IdentityURL
	}
	if yc.StudioURL != "" {
		cfg.StudioURL = yc.StudioURL
	}
	if len(yc.Accounts) > 0 {
		cfg.Accounts = cleanAccounts(yc.Accounts)
	}
	if yc.Mode != "" {
		cfg.Mode = yc.Mode
	}
	if yc.Output != "" {
		cfg.Output = yc.Output
	}
	if yc.OnError != "" {
		cfg.OnError = yc.OnError
	}
	if yc.Poll.Interval != "" {
		d, err := time.ParseDuration(yc.Poll.Interval)
		if err != nil {
			return Config{}, fmt.Errorf("parse poll.interval: %w", err)
		}
		cfg.Poll.Interval = d
	}
	if yc.Poll.MaxAttempts != 0 {
		cfg.Poll.MaxAttempts = yc.Poll.MaxAttempts
	}
	if yc.HTTPTimeout != "" {
		d, err := time.ParseDuration(yc.HTTPTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse http_timeout: %w", err)
		}
		cfg.HTTPTimeout = d
	}
	if yc.BufferSize != "" {
		size, err := progress.ParseBytes(yc.BufferSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse buffer_size: %w", err)
		}
		cfg.BufferSize = size
	}
	cfg.Progress = yc.Progress
	if yc.LogLevel != "" {
		cfg.LogLevel = yc.LogLevel
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the CROON_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("CROON_IDENTITY_URL"); v != "" {
		c.IdentityURL = v
	}
	if v := os.Getenv("CROON_STUDIO_URL"); v != "" {
		c.StudioURL = v
	}
	if v := os.Getenv("CROON_ACCOUNTS"); v != "" {
		c.Accounts = cleanAccounts(strings.Split(v, ","))
	}
	if v := os.Getenv("CROON_MODE"); v != "" {
		c.Mode = v
	}
	if v := os.Getenv("CROON_OUTPUT"); v != "" {
		c.Output = v
	}
	if v := os.Getenv("CROON_ON_ERROR"); v != "" {
		c.OnError = v
	}
	if v := os.Getenv("CROON_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse CROON_POLL_INTERVAL: %w", err)
		}
		c.Poll.Interval = d
	}
	if v := os.Getenv("CROON_POLL_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse CROON_POLL_MAX_ATTEMPTS: %w", err)
		}
		c.Poll.MaxAttempts = n
	}
	if v := os.Getenv("CROON_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse CROON_HTTP_TIMEOUT: %w", err)
		}
		c.HTTPTimeout = d
	}
	if v := os.Getenv("CROON_BUFFER_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse CROON_BUFFER_SIZE: %w", err)
		}
		c.BufferSize = size
	}
	if v := os.Getenv("CROON_PROGRESS"); v != "" {
		c.Progress = v == "true" || v == "1"
	}
	if v := os.Getenv("CROON_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.IdentityURL == "" {
		return errors.New("config: identity_url is required")
	}
	if c.StudioURL == "" {
		return errors.New("config: studio_url is required")
	}
	if len(c.Accounts) == 0 {
		return errors.New("config: at least one account is required")
	}
	switch c.Mode {
	case "description", "lyrics", "custom":
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	switch c.OnError {
	case "stop", "skip":
	default:
		return fmt.Errorf("config: unknown on_error policy %q", c.OnError)
	}
	if c.Poll.Interval <= 0 {
		return errors.New("config: poll.interval must be positive")
	}
	if c.Poll.MaxAttempts <= 0 {
		return errors.New("config: poll.max_attempts must be positive")
	}
	if c.BufferSize <= 0 {
		return errors.New("config: buffer_size must be positive")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.IdentityURL != "" {
		c.IdentityURL = override.IdentityURL
	}
	if override.StudioURL != "" {
		c.StudioURL = override.StudioURL
	}
	if len(override.Accounts) > 0 {
		c.Accounts = override.Accounts
	}
	if override.Mode != "" {
		c.Mode = override.Mode
	}
	if override.Output != "" {
		c.Output = override.Output
	}
	if override.OnError != "" {
		c.OnError = override.OnError
	}
	if override.Poll.Interval != 0 {
		c.Poll.Interval = override.Poll.Interval
	}
	if override.Poll.MaxAttempts != 0 {
		c.Poll.MaxAttempts = override.Poll.MaxAttempts
	}
	if override.HTTPTimeout != 0 {
		c.HTTPTimeout = override.HTTPTimeout
	}
	if override.BufferSize != 0 {
		c.BufferSize = override.BufferSize
	}
	if override.Progress {
		c.Progress = override.Progress
	}
	if override.LogLevel != "" {
		c.LogLevel = override.LogLevel
	}
	return c
}

// cleanAccounts trims whitespace and drops duplicates, keeping order.
func cleanAccounts(raw []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range raw {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}
