package query

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"opslens/internal/agent"
	"opslens/internal/middleware"
)

// Orchestrator answers a natural-language question over the ingested logs
// and tickets, returning the answer and the tool trace behind it.
type Orchestrator interface {
	Answer(ctx context.Context, question string) (string, []agent.TraceEvent, error)
}

type Handler struct {
	orchestrator Orchestrator
}

func NewHandler(orchestrator Orchestrator) *Handler {
	return &Handler{orchestrator: orchestrator}
}

func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Question == "" {
		h.writeError(ctx, w, "VALIDATION_ERROR", "question is required", http.StatusBadRequest)
		return
	}

	slog.InfoContext(ctx, "answering query", "question", req.Question, "correlationId", correlationID)

	answer, trace, err := h.orchestrator.Answer(ctx, req.Question)
	if err != nil {
		slog.ErrorContext(ctx, "query failed", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	if trace == nil {
		trace = []agent.TraceEvent{}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"data": map[string]interface{}{
			"answer": answer,
			"trace":  trace,
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
