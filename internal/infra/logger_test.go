package infra

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerProductionEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("production", &buf)

	logger.Debug().Msg("hidden")
	logger.Info().Str("request_id", "abc").Msg("visible")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "visible" {
		t.Fatalf("message = %v, want visible", entry["message"])
	}
	if entry["service"] != ServiceName {
		t.Fatalf("service = %v, want %s", entry["service"], ServiceName)
	}
	if entry["request_id"] != "abc" {
		t.Fatalf("request_id = %v, want abc", entry["request_id"])
	}
}

func TestNewLoggerDevelopmentLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("development", &buf)
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("level = %s, want debug", logger.GetLevel())
	}
	logger.Debug().Msg("shown")
	if !bytes.Contains(buf.Bytes(), []byte("shown")) {
		t.Fatalf("debug line missing from console output: %q", buf.String())
	}
}
