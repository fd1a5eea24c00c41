package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/croonlabs/croon/internal/config"
)

func TestRunNoArgs(t *testing.T) {
	if code := run(nil); code != ExitInvalidArgs {
		t.Errorf("run() = %d, want %d", code, ExitInvalidArgs)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if code := run([]string{"serenade"}); code != ExitInvalidArgs {
		t.Errorf("run(serenade) = %d, want %d", code, ExitInvalidArgs)
	}
}

func TestRunHelp(t *testing.T) {
	if code := run([]string{"help"}); code != ExitSuccess {
		t.Errorf("run(help) = %d, want %d", code, ExitSuccess)
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b ", []string{"a", "b"}},
		{"a,,b", []string{"a", "b"}},
		{"", nil},
	}

	for _, tt := range tests {
		if got := splitList(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitList(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLoadConfigLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "mode: \"lyrics\"\npoll:\n  interval: \"1s\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CROON_MODE", "description")

	cfg, err := loadConfig(path, config.Config{OnError: "skip"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	// Environment beats the file, flags beat both.
	if cfg.Mode != "description" {
		t.Errorf("mode = %q", cfg.Mode)
	}
	if cfg.OnError != "skip" {
		t.Errorf("on_error = %q", cfg.OnError)
	}
	if cfg.Poll.Interval != time.Second {
		t.Errorf("poll interval = %v", cfg.Poll.Interval)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig("/nonexistent/config.yaml", config.Config{}); err == nil {
		t.Error("expected error for missing config file")
	}
}
