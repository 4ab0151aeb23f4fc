package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/a11y/idgen"
	"github.com/hazyhaar/a11y/kit"
)

var newRequestID = idgen.NanoID(12)

// RequestID assigns each request an ID (or keeps a well-formed incoming
// X-Request-ID), stores it under kit.RequestIDKey, echoes it in the response
// and attaches a per-request logger under LoggerKey.
func RequestID(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if !validRequestID(id) {
				id = newRequestID()
			}
			w.Header().Set("X-Request-ID", id)

			ctx := kit.WithRequestID(r.Context(), id)
			ctx = kit.WithTransport(ctx, "http")
			l := logger.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)
			ctx = context.WithValue(ctx, LoggerKey, l)
			l.Debug("request", "remote_addr", r.RemoteAddr)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validRequestID(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
