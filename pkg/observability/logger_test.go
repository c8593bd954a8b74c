package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithField("account_id", "acc-1").Info("section created")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "section created" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if entry["account_id"] != "acc-1" {
		t.Errorf("expected account_id field, got %v", entry["account_id"])
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WarnLevel, &buf)

	logger.Debug("hidden")
	logger.Info("also hidden")
	if buf.Len() != 0 {
		t.Errorf("expected debug/info suppressed at warn level, got %q", buf.String())
	}

	logger.Warn("visible")
	if buf.Len() == 0 {
		t.Error("expected warn message to be emitted")
	}
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithError(errors.New("blob missing")).Error("download failed")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if entry["error"] != "blob missing" {
		t.Errorf("expected error field, got %v", entry["error"])
	}
}

func TestParseLogLevel(t *testing.T) {
	if ParseLogLevel("debug") != DebugLevel {
		t.Error("debug")
	}
	if ParseLogLevel("unknown") != InfoLevel {
		t.Error("default should be info")
	}
}
