package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nsqio/go-nsq"

	"opslens/internal/ingest"
	"opslens/internal/middleware"
)

// TaskPayload is the message published to the ingest task topic. One message
// per requested ingestion run.
type TaskPayload struct {
	RunID         string `json:"run_id"`
	Kind          string `json:"kind"`
	Collection    string `json:"collection"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Loader runs a full file-granular ingestion pass over the files matching
// pattern, embedding and upserting into the named collection.
type Loader interface {
	Run(ctx context.Context, collection, pattern string, parse ingest.ParseFunc) (ingest.RunResult, error)
}

// RunUpdater records run lifecycle transitions.
type RunUpdater interface {
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, result ingest.RunResult) error
	MarkFailed(ctx context.Context, id string, cause error) error
}

// IngestConsumer consumes ingest tasks from NSQ and drives the loader.
type IngestConsumer struct {
	loader    Loader
	runs      RunUpdater
	logDir    string
	ticketDir string
}

func NewIngestConsumer(loader Loader, runs RunUpdater, logDir, ticketDir string) *IngestConsumer {
	return &IngestConsumer{
		loader:    loader,
		runs:      runs,
		logDir:    logDir,
		ticketDir: ticketDir,
	}
}

func (h *IngestConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload TaskPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		// Poison pill: invalid JSON, don't retry.
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	ctx := context.Background()
	if payload.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, payload.CorrelationID)
	}

	var pattern string
	var parse ingest.ParseFunc
	switch payload.Kind {
	case ingest.KindLogs:
		pattern = ingest.LogGlob(h.logDir)
		parse = ingest.ParseLogs
	case ingest.KindTickets:
		pattern = ingest.TicketGlob(h.ticketDir)
		parse = ingest.ParseTickets
	default:
		slog.ErrorContext(ctx, "poison pill: unknown ingest kind", "kind", payload.Kind, "run_id", payload.RunID)
		return nil
	}

	if err := h.runs.MarkRunning(ctx, payload.RunID); err != nil {
		slog.ErrorContext(ctx, "mark run running failed", "error", err, "run_id", payload.RunID)
		return err // Retry
	}

	result, err := h.loader.Run(ctx, payload.Collection, pattern, parse)
	if err != nil {
		slog.ErrorContext(ctx, "ingestion run failed", "error", err, "run_id", payload.RunID, "kind", payload.Kind)
		if markErr := h.runs.MarkFailed(ctx, payload.RunID, err); markErr != nil {
			slog.ErrorContext(ctx, "mark run failed failed", "error", markErr, "run_id", payload.RunID)
		}
		// The run row carries the failure; requeueing would double-count files.
		return nil
	}

	if err := h.runs.MarkCompleted(ctx, payload.RunID, result); err != nil {
		slog.ErrorContext(ctx, "mark run completed failed", "error", err, "run_id", payload.RunID)
		return err // Retry
	}

	slog.InfoContext(ctx, "ingestion run completed",
		"run_id", payload.RunID,
		"kind", payload.Kind,
		"files_ingested", result.FilesIngested,
		"files_skipped", result.FilesSkipped,
		"files_failed", result.FilesFailed,
		"documents", result.Documents)
	return nil
}
