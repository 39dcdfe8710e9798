package clog

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// HTTPStatusToLevel picks the request log level from the response status.
// 499 (client went away) is routine, not a warning.
func HTTPStatusToLevel(status int) slog.Level {
	switch {
	case status == 499:
		return slog.LevelInfo
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// RequestLogger returns a chi middleware that seeds the request context with
// an attribute bag and emits one log line per request once it completes.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ctx := ContextWithAttrs(r.Context())
			AddAttrs(ctx, map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
				"proto":  r.Proto,
			})
			next.ServeHTTP(ww, r.WithContext(ctx))
			AddAttrs(ctx, map[string]any{
				"status":        ww.Status(),
				"bytes_written": ww.BytesWritten(),
				"duration":      time.Since(start),
			})
			slog.Log(ctx, HTTPStatusToLevel(ww.Status()), http.StatusText(ww.Status()))
		})
	}
}
