package agent

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type EventType string

const (
	EventToolCall EventType = "tool_call"
	EventFinish   EventType = "finish"
)

// TraceEvent is one entry in the agent's observability trace: a capability
// invocation or the final answer. The trace is a pure side channel and never
// feeds back into control flow.
type TraceEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	Type          EventType `json:"type"`
	Tool          string    `json:"tool,omitempty"`
	Input         string    `json:"input,omitempty"`
	Output        string    `json:"output,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

type TraceRecorder struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewTraceRecorder(w io.Writer) *TraceRecorder {
	return &TraceRecorder{writer: w}
}

func NewFileTraceRecorder(path string) (*TraceRecorder, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}

	cleanPath := filepath.Clean(path)
	f, err := os.OpenFile(cleanPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304 -- path is from application config, not user input
	if err != nil {
		return nil, err
	}
	return NewTraceRecorder(io.MultiWriter(os.Stdout, f)), nil
}

func (r *TraceRecorder) Record(event TraceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := json.NewEncoder(r.writer).Encode(event); err != nil {
		slog.Error("failed to write trace event", "error", err)
	}
}
