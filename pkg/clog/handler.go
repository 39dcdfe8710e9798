package clog

import (
	"context"
	"log/slog"
)

// AttrsHandler merges the request-scoped attribute bag into every record
// before delegating to the wrapped handler.
type AttrsHandler struct {
	handler slog.Handler
}

func NewAttrsHandler(handler slog.Handler) *AttrsHandler {
	return &AttrsHandler{handler: handler}
}

func (h *AttrsHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *AttrsHandler) Handle(ctx context.Context, record slog.Record) error {
	if attrs := Attrs(ctx); len(attrs) > 0 {
		for k, v := range attrs {
			record.AddAttrs(slog.Any(k, v))
		}
	}
	return h.handler.Handle(ctx, record)
}

func (h *AttrsHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AttrsHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *AttrsHandler) WithGroup(name string) slog.Handler {
	return &AttrsHandler{handler: h.handler.WithGroup(name)}
}
