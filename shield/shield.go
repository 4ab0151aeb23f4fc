// Package shield holds the HTTP middleware applied in front of the audit API:
// security headers, body limits, request IDs and per-client rate limiting.
//
// Usage:
//
//	r := chi.NewRouter()
//	for _, mw := range shield.APIStack(logger, 1<<20) {
//	    r.Use(mw)
//	}
//	r.With(shield.NewRateLimiter(rules).Middleware).Post("/v1/audit", h)
package shield

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// APIStack returns the middleware stack for the JSON API, outermost first:
// HeadToGet, SecurityHeaders, MaxBody, RequestID.
func APIStack(logger *slog.Logger, maxBody int64) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxBody(maxBody),
		RequestID(logger),
	}
}
