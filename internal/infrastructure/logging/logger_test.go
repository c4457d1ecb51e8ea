package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beaconfleet/beacon-core/internal/infrastructure/config"
)

func TestNew_JSONFormat(t *testing.T) {
	cfg := config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}

	logger := New(cfg, "1.0.0")

	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNew_TextFormat(t *testing.T) {
	cfg := config.LoggingConfig{
		Level:  "debug",
		Format: "text",
		Output: "stderr",
	}

	logger := New(cfg, "1.0.0")

	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNew_FileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "beacon.log")
	cfg := config.LoggingConfig{
		Level:  "info",
		Format: "json",
		File: config.FileLoggingConfig{
			Enabled: true,
			Path:    logPath,
		},
	}

	logger := New(cfg, "test")
	logger.Info("file logging works", "key", "value")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	if !strings.Contains(string(data), "file logging works") {
		t.Errorf("log file missing expected entry, got: %s", data)
	}

	if !strings.Contains(string(data), `"service":"beacon-core"`) {
		t.Errorf("log file missing service attribute, got: %s", data)
	}
}

func TestNew_FileOutputBadPath(t *testing.T) {
	cfg := config.LoggingConfig{
		Level:  "info",
		Format: "json",
		File: config.FileLoggingConfig{
			Enabled: true,
			Path:    "/nonexistent-dir/never/beacon.log",
		},
	}

	// Must not panic; falls back to stdout
	logger := New(cfg, "test")
	if logger == nil {
		t.Fatal("expected non-nil fallback logger")
	}
	logger.Info("still alive")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.expected {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestWith(t *testing.T) {
	logger := Default()
	child := logger.With("component", "test")

	if child == nil {
		t.Fatal("With() returned nil")
	}

	if child == logger {
		t.Error("With() should return a new logger")
	}
}
