package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "INFO", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "warning", want: slog.LevelWarn},
		{input: " error ", want: slog.LevelError},
		{input: "", want: slog.LevelInfo},
		{input: "nonsense", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info")

	logger.Info("booking created", slog.String("booking_id", "b-1"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["msg"] != "booking created" {
		t.Errorf("msg = %v, want %q", record["msg"], "booking created")
	}
	if record["booking_id"] != "b-1" {
		t.Errorf("booking_id = %v, want %q", record["booking_id"], "b-1")
	}
}

func TestNewLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "error")

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info record written at error level: %s", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	logger := NewLogger(&bytes.Buffer{}, "info")
	ctx := ContextWithLogger(context.Background(), logger)

	if got := FromContext(ctx); got != logger {
		t.Errorf("FromContext() = %v, want the attached logger", got)
	}
	if got := FromContext(context.Background()); got != nil {
		t.Errorf("FromContext() on bare context = %v, want nil", got)
	}
	if got := FromContextOrDefault(context.Background()); got == nil {
		t.Error("FromContextOrDefault() returned nil")
	}
}
