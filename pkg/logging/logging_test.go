package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Output: &buf})
	logger.Info("mounted", "route", "/home")

	if got := buf.String(); !strings.Contains(got, "route=/home") {
		t.Errorf("output %q should contain route=/home", got)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Output: &buf, Format: FormatJSON})
	logger.Info("mounted", "route", "/home")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if record["route"] != "/home" {
		t.Errorf("route = %v, want /home", record["route"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	level, err := ParseLevel("warn")
	if err != nil {
		t.Fatal(err)
	}
	logger := New(Options{Output: &buf, Level: level})
	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		level, err := ParseLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error: %v", tt.in, err)
			continue
		}
		if level.Level() != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, level.Level(), tt.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestJournalKey(t *testing.T) {
	if got := journalKey("spa.route-id"); got != "SPA_ROUTE_ID" {
		t.Errorf("journalKey = %q, want SPA_ROUTE_ID", got)
	}
}
