package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
		{5 * 1024 * 1024 * 1024, "5.00 GB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.bytes); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"512", 512, false},
		{"512B", 512, false},
		{"64KB", 64 * 1024, false},
		{"1MB", 1024 * 1024, false},
		{"2GB", 2 * 1024 * 1024 * 1024, false},
		{"1.5KB", 1536, false},
		{"plenty", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseBytes(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseBytes(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseBytes(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m 30s"},
		{3725 * time.Second, "1h 2m 5s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestReporterCounters(t *testing.T) {
	r := NewReporter(Options{TotalAssets: 3, Output: &bytes.Buffer{}})

	r.AssetStarted()
	r.AssetCompleted(2048)
	r.AssetStarted()
	r.AssetFailed()

	if got := r.completedAssets.Load(); got != 1 {
		t.Errorf("completed = %d", got)
	}
	if got := r.failedAssets.Load(); got != 1 {
		t.Errorf("failed = %d", got)
	}
	if got := r.inProgress.Load(); got != 0 {
		t.Errorf("in progress = %d", got)
	}
	if got := r.completedBytes.Load(); got != 2048 {
		t.Errorf("bytes = %d", got)
	}
}

func TestReporterFinalStatus(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(Options{TotalAssets: 2, Output: &buf})
	r.startTime = time.Now()

	r.AssetStarted()
	r.AssetCompleted(1024)
	r.AssetStarted()
	r.AssetFailed()

	r.printFinalStatus()

	out := buf.String()
	if !strings.Contains(out, "Downloaded 1/2 assets") {
		t.Errorf("final status missing summary: %q", out)
	}
	if !strings.Contains(out, "Failed: 1 assets") {
		t.Errorf("final status missing failure line: %q", out)
	}
}

func TestReporterStopIdempotent(t *testing.T) {
	r := NewReporter(Options{TotalAssets: 1, Output: &bytes.Buffer{}})
	r.Start()
	r.Stop()
	r.Stop()
}
