package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/jwebster45206/story-adventure/internal/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		level       slog.Level
		wantJSON    bool
		wantSource  bool
	}{
		{"production json", "production", slog.LevelInfo, true, false},
		{"development text", "development", slog.LevelInfo, false, false},
		{"debug adds source", "development", slog.LevelDebug, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := newLogger(&buf, &config.Config{Environment: tt.environment, LogLevel: tt.level})
			WithAdventure(log, "abc").Info("hello")

			out := buf.String()
			if tt.wantJSON {
				var entry map[string]any
				if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
					t.Fatalf("expected JSON output, got %q", out)
				}
				if entry["service"] != serviceName || entry["adventure_id"] != "abc" {
					t.Errorf("missing attributes in %v", entry)
				}
			} else if !strings.Contains(out, "service="+serviceName) || !strings.Contains(out, "adventure_id=abc") {
				t.Errorf("missing attributes in %q", out)
			}

			if got := strings.Contains(out, "source="); got != tt.wantSource {
				t.Errorf("expected source=%t in %q", tt.wantSource, out)
			}
		})
	}
}

func TestNewLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, &config.Config{LogLevel: slog.LevelWarn})
	log.Info("quiet")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}
}
