package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gitshopapp/orderrelay/internal/config"
)

func TestNewLogger_JSONConsole(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, closer, err := newLogger(&config.Config{LogFormat: "json", LogLevel: slog.LevelInfo}, &buf, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if closer != nil {
		t.Fatal("expected no closer without a log file")
	}

	logger.Debug("hidden")
	logger.Info("visible", "shop", "example.myshopify.com")

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("expected a single json record, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "visible" || record["shop"] != "example.myshopify.com" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestNewLogger_TeesToLogFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "relay.log")
	var console bytes.Buffer
	logger, closer, err := newLogger(&config.Config{LogFormat: "text", LogLevel: slog.LevelInfo, LogFile: path}, &console, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if closer == nil {
		t.Fatal("expected the log file to be returned for closing")
	}

	logger.Warn("tagging failed", "order_id", 7)
	if err := closer.Close(); err != nil {
		t.Fatalf("failed to close log file: %v", err)
	}

	if !strings.Contains(console.String(), "tagging failed") {
		t.Fatalf("expected console output, got %q", console.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("expected json in log file, got %q: %v", data, err)
	}
	if record["msg"] != "tagging failed" {
		t.Fatalf("unexpected record: %v", record)
	}
}
