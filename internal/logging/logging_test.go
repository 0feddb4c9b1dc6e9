package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(Config{Level: "warn", Format: "json"}, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("component", "test").Msg("visible")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line at warn level, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["message"] != "visible" || entry["component"] != "test" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Fatalf("timestamp missing: %#v", entry)
	}
}

func TestNewLoggerConsoleAndFallbackLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(Config{Level: "nonsense", Format: "console"}, &buf)

	logger.Debug().Msg("debug")
	logger.Info().Msg("info line")

	out := buf.String()
	if strings.Contains(out, "debug") {
		t.Fatalf("unknown level should fall back to info: %q", out)
	}
	if !strings.Contains(out, "info line") || strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected console output, got %q", out)
	}
}

func TestOutput(t *testing.T) {
	if output("stdout") != os.Stdout {
		t.Fatal("stdout should select os.Stdout")
	}
	if output("") != os.Stderr {
		t.Fatal("default output should be stderr")
	}
}
