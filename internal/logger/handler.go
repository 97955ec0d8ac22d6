package logger

import (
	"context"
	"log/slog"

	"opslens/internal/middleware"
)

// ContextHandler decorates an slog.Handler so every record logged with a
// context carrying a correlation ID gets that ID attached automatically.
type ContextHandler struct {
	slog.Handler
}

func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := middleware.GetCorrelationID(ctx); id != "" {
		r.AddAttrs(slog.String("correlation_id", id))
	}
	return h.Handler.Handle(ctx, r)
}
