package dispatchhandlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vitalvas/hermod/dispatch"
)

// LoggingConfig configures the Logging middleware behaviour.
type LoggingConfig struct {
	// Logger receives one record per request. Defaults to slog.Default().
	Logger *slog.Logger

	// SkipFunc is an optional callback that suppresses logging for
	// requests it returns true for, such as health checks.
	SkipFunc func(r *http.Request) bool
}

// LoggingMiddleware returns a middleware that writes one structured log
// record per request: method, path, matched route, status, response size,
// and duration. Requests resolved to no route are labeled "unmatched".
// Server errors are logged at error level, everything else at info.
func LoggingMiddleware(cfg LoggingConfig) dispatch.Middleware {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	skip := cfg.SkipFunc

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip != nil && skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusResponseWriter(w)
			next.ServeHTTP(sw, r)

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", routePattern(r)),
				slog.Int("status", sw.status),
				slog.Int64("bytes", sw.bytes),
				slog.Duration("duration", time.Since(start)),
			}
			if id := RequestIDFromContext(r.Context()); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}

			level := slog.LevelInfo
			if sw.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "request", attrs...)
		})
	}
}
