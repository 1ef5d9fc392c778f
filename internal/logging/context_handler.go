package logging

import (
	"context"
	"log/slog"

	"github.com/gasspot/gasspot-backend/internal/requestctx"
)

// ContextHandler adds request_id, user_id and platform from the request
// context to each record. A key the record already carries is left as logged.
type ContextHandler struct {
	inner slog.Handler
}

func NewContextHandler(inner slog.Handler) *ContextHandler {
	return &ContextHandler{inner: inner}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if ctx == nil {
		return h.inner.Handle(ctx, record)
	}

	var hasRequestID, hasUserID, hasPlatform bool
	record.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "request_id":
			hasRequestID = true
		case "user_id":
			hasUserID = true
		case "platform":
			hasPlatform = true
		}
		return true
	})

	if id := requestctx.RequestID(ctx); id != "" && !hasRequestID {
		record.AddAttrs(slog.String("request_id", id))
	}
	if id, ok := requestctx.UserID(ctx); ok && !hasUserID {
		record.AddAttrs(slog.String("user_id", id.String()))
	}
	if p, ok := requestctx.Platform(ctx); ok && !hasPlatform {
		record.AddAttrs(slog.String("platform", p.String()))
	}
	return h.inner.Handle(ctx, record)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}
