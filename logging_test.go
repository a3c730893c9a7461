package ircchain

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, test := range tests {
		if actual := parseLevel(test.input); actual != test.expected {
			t.Errorf("%q: expected %s, got %s", test.input, test.expected, actual)
		}
	}
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ircchain.log")
	logger, closer, err := NewLogger(path, "warn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Info("dropped")
	logger.Warn("kept", "nick", "alice")
	if err := closer.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(buf)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", lines)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON, got %q", lines[0])
	}
	if entry["msg"] != "kept" || entry["nick"] != "alice" || entry["level"] != "WARN" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestNewLoggerStderr(t *testing.T) {
	logger, closer, err := NewLogger("", "info")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logger == nil {
		t.Fatalf("expected a logger")
	}
	if err := closer.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
