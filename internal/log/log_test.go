package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "warn", true)
	l.Info("hidden")
	l.Warn("shown", "joint", "elbow")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message passed a warn logger")
	}
	if !strings.Contains(out, `"joint":"elbow"`) {
		t.Errorf("expected JSON attributes, got %q", out)
	}
}
