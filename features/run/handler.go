package run

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"opslens/internal/ingest"
	"opslens/internal/middleware"
)

type Handler struct {
	service          *Service
	logCollection    string
	ticketCollection string
}

func NewHandler(s *Service, logCollection, ticketCollection string) *Handler {
	return &Handler{
		service:          s,
		logCollection:    logCollection,
		ticketCollection: ticketCollection,
	}
}

func (h *Handler) GenerateLogs(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, ingest.KindLogs)
}

func (h *Handler) GenerateTickets(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, ingest.KindTickets)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request, kind string) {
	ctx := r.Context()

	var req struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Date == "" {
		h.writeError(ctx, w, "VALIDATION_ERROR", "date is required", http.StatusBadRequest)
		return
	}

	path, err := h.service.Generate(kind, req.Date, req.Count)
	if err != nil {
		slog.ErrorContext(ctx, "generation failed", "error", err, "kind", kind, "date", req.Date)
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"data": map[string]interface{}{
			"path":  path,
			"kind":  kind,
			"count": req.Count,
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) IngestLogs(w http.ResponseWriter, r *http.Request) {
	h.ingest(w, r, ingest.KindLogs, h.logCollection)
}

func (h *Handler) IngestTickets(w http.ResponseWriter, r *http.Request) {
	h.ingest(w, r, ingest.KindTickets, h.ticketCollection)
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request, kind, collection string) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	slog.InfoContext(ctx, "queueing ingestion run", "kind", kind, "collection", collection, "correlationId", correlationID)

	run, err := h.service.StartIngest(ctx, kind, collection)
	if err != nil {
		slog.ErrorContext(ctx, "failed to queue ingestion run", "error", err, "kind", kind, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": run}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	runs, err := h.service.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list runs", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	if runs == nil {
		runs = []Run{}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"data": runs,
		"meta": map[string]int{"count": len(runs)},
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
