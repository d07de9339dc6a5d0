package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")
	logger.Debug("hidden")
	logger.Info("visible", "adapter", "teams")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not a single JSON line: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "visible" || entry["adapter"] != "teams" {
		t.Errorf("entry = %v", entry)
	}
}

func TestWithRunID(t *testing.T) {
	ctx, id := WithRunID(context.Background(), "")
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("generated run id %q is not a uuid: %v", id, err)
	}
	if got := RunIDFromContext(ctx); got != id {
		t.Errorf("RunIDFromContext = %q, want %q", got, id)
	}

	ctx, id = WithRunID(context.Background(), "fixed")
	if id != "fixed" || RunIDFromContext(ctx) != "fixed" {
		t.Errorf("explicit run id not kept: %q", id)
	}

	if got := RunIDFromContext(context.Background()); got != "" {
		t.Errorf("RunIDFromContext(empty) = %q, want empty", got)
	}
}

func TestFromContextAddsRunID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(New(&buf, "info", "json"))
	defer slog.SetDefault(prev)

	ctx, id := WithRunID(context.Background(), "")
	WithFields(ctx, "adapter", "users").Info("started")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["run_id"] != id {
		t.Errorf("run_id = %v, want %q", entry["run_id"], id)
	}
	if entry["adapter"] != "users" {
		t.Errorf("adapter = %v, want users", entry["adapter"])
	}
}
