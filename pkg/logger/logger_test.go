package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestTrimPathDepth(t *testing.T) {
	tests := []struct {
		path  string
		depth int
		want  string
	}{
		{"a/b/c/d.go", 3, "b/c/d.go"},
		{"c/d.go", 3, "c/d.go"},
		{"d.go", 1, "d.go"},
	}
	for _, tt := range tests {
		if got := trimPathDepth(tt.path, tt.depth); got != tt.want {
			t.Errorf("trimPathDepth(%q, %d) = %q, want %q", tt.path, tt.depth, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" Warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewWithOptions(t *testing.T) {
	t.Setenv("ENV", "")
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	log := NewWithOptions(Options{Level: "warn", Writer: &buf})

	log.Info("hidden")
	log.With("request_id", "abc").Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "request_id=abc") {
		t.Errorf("missing request_id attribute: %q", out)
	}
	if !strings.Contains(out, "caller=pkg/logger/logger_test.go:") {
		t.Errorf("missing caller attribute after With: %q", out)
	}
}
