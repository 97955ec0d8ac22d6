package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"opslens/internal/middleware"
)

type RunRepo interface {
	Count(ctx context.Context) (int, error)
}

// DocumentCounter reports how many documents a vector collection holds.
type DocumentCounter interface {
	Count(ctx context.Context, collection string) (int, error)
}

type Handler struct {
	runRepo          RunRepo
	documents        DocumentCounter
	logCollection    string
	ticketCollection string
}

func NewHandler(runRepo RunRepo, documents DocumentCounter, logCollection, ticketCollection string) *Handler {
	return &Handler{
		runRepo:          runRepo,
		documents:        documents,
		logCollection:    logCollection,
		ticketCollection: ticketCollection,
	}
}

type StatsResponse struct {
	Runs       int `json:"runs"`
	LogDocs    int `json:"log_documents"`
	TicketDocs int `json:"ticket_documents"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	slog.InfoContext(ctx, "getting stats", "correlationId", correlationID)

	runCount, err := h.runRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count runs", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count runs", http.StatusInternalServerError)
		return
	}

	logCount, err := h.documents.Count(ctx, h.logCollection)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count log documents", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count log documents", http.StatusInternalServerError)
		return
	}

	ticketCount, err := h.documents.Count(ctx, h.ticketCollection)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count ticket documents", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count ticket documents", http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{
		Runs:       runCount,
		LogDocs:    logCount,
		TicketDocs: ticketCount,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
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
