package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shortfilm/internal/config"
	"shortfilm/internal/logging"
	"shortfilm/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	logDir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = logDir
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("stage finished", logging.String(logging.FieldStage, "script"))

	data, err := os.ReadFile(filepath.Join(logDir, "shortfilm.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := strings.TrimSpace(string(data))
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("log line is not json: %q", line)
	}
	if record["msg"] != "stage finished" || record[logging.FieldStage] != "script" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestNewFromConfigNilUsesDefaults(t *testing.T) {
	logger, err := logging.NewFromConfig(nil)
	if err != nil {
		t.Fatalf("NewFromConfig(nil): %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger")
	}
}

func TestContextFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-7")
	ctx = services.WithStage(ctx, "visual")
	ctx = services.WithRequestID(ctx, "req-9")

	fields := logging.ContextFields(ctx)
	got := map[string]string{}
	for _, attr := range fields {
		got[attr.Key] = attr.Value.String()
	}
	want := map[string]string{
		logging.FieldRunID:         "run-7",
		logging.FieldStage:         "visual",
		logging.FieldCorrelationID: "req-9",
	}
	for key, value := range want {
		if got[key] != value {
			t.Fatalf("field %s = %q, want %q (all: %v)", key, got[key], value, got)
		}
	}

	if fields := logging.ContextFields(context.Background()); len(fields) != 0 {
		t.Fatalf("expected no fields for bare context, got %v", fields)
	}
}

func TestWithContextNilLoggerIsSafe(t *testing.T) {
	logger := logging.WithContext(context.Background(), nil)
	logger.Info("discarded")
}

func TestNewComponentLogger(t *testing.T) {
	logger := logging.NewComponentLogger(nil, "orchestrator")
	if logger == nil {
		t.Fatal("expected logger")
	}
	logger.Info("discarded")
}
