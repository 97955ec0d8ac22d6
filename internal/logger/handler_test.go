package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"opslens/internal/middleware"
)

func TestContextHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	h := NewContextHandler(slog.NewJSONHandler(&buf, nil))
	log := slog.New(h)

	ctx := middleware.WithCorrelationID(context.Background(), "corr-42")
	log.InfoContext(ctx, "ingestion started")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to unmarshal log: %v", err)
	}

	if entry["correlation_id"] != "corr-42" {
		t.Errorf("expected correlation_id 'corr-42', got %v", entry["correlation_id"])
	}
}

func TestContextHandler_NoCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	h := NewContextHandler(slog.NewJSONHandler(&buf, nil))
	log := slog.New(h)

	log.InfoContext(context.Background(), "no correlation")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to unmarshal log: %v", err)
	}

	if _, ok := entry["correlation_id"]; ok {
		t.Error("expected no correlation_id attribute")
	}
}
