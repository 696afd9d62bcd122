package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewJSONLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := New(Options{Level: "warn", Out: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closeFn()

	logger.Info().Msg("hidden")
	logger.Warn().Str("user", "alice").Msg("alert")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["level"] != "warn" || rec["user"] != "alice" || rec["message"] != "alert" {
		t.Fatalf("unexpected record %v", rec)
	}
	if _, ok := rec["time"]; !ok {
		t.Fatalf("record has no timestamp: %v", rec)
	}
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Level: "chatty", Out: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestNewTeesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	var buf bytes.Buffer
	logger, closeFn, err := New(Options{Out: &buf, Console: true, File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info().Msg("started")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"message":"started"`) {
		t.Fatalf("file copy missing record: %q", data)
	}
	if !strings.Contains(buf.String(), "started") {
		t.Fatalf("console copy missing record: %q", buf.String())
	}
}
