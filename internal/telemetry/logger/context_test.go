package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithLogger(context.Background(), l)
	FromContext(ctx).Info("test message")

	if buf.Len() == 0 {
		t.Error("Logger from context should produce output")
	}
}

func TestFromContext_Default(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Error("FromContext should return default logger, got nil")
	}
}

func TestOpID(t *testing.T) {
	ctx := context.Background()
	if got := OpIDFromContext(ctx); got != "" {
		t.Errorf("OpIDFromContext() = %q, want empty", got)
	}

	ctx = WithOpID(ctx, "01HZX")
	if got := OpIDFromContext(ctx); got != "01HZX" {
		t.Errorf("OpIDFromContext() = %q, want 01HZX", got)
	}
}

func TestL_AddsOpID(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "json", Output: &buf})

	ctx := WithOpID(WithLogger(context.Background(), l), "op-42")
	L(ctx).Info("with op")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	if entry["op_id"] != "op-42" {
		t.Errorf("op_id = %v, want op-42", entry["op_id"])
	}
}
