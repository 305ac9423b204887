package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"academy/internal/adapters/http/perf"
)

// DefaultSlowRequest applies when the configured threshold is zero.
const DefaultSlowRequest = 200 * time.Millisecond

// recorder remembers the status written by a handler.
type recorder struct {
	http.ResponseWriter
	status int
}

// WriteHeader records code before passing it on.
// PRE: code is a valid HTTP status code
func (rec *recorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

var recorders = sync.Pool{New: func() any { return new(recorder) }}

func untimed(path string) bool {
	return strings.HasPrefix(path, "/static/") || path == "/healthz"
}

// Timing logs every console request and feeds the perf collector.
// Requests under threshold log as "request" at DEBUG, the rest as
// "slow_request" at WARN. Static assets and the health check are skipped.
// A nil collector disables recording but keeps the logging.
func Timing(collector *perf.Collector, threshold time.Duration) func(http.Handler) http.Handler {
	if threshold <= 0 {
		threshold = DefaultSlowRequest
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if untimed(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			rec := recorders.Get().(*recorder)
			rec.ResponseWriter, rec.status = w, http.StatusOK
			start := time.Now()

			defer func() {
				report(r, rec.status, start, threshold, collector)
				rec.ResponseWriter = nil
				recorders.Put(rec)
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

// report runs even when the handler panics, so it must not touch the body.
func report(r *http.Request, status int, start time.Time, threshold time.Duration, collector *perf.Collector) {
	elapsed := time.Since(start)
	ms := float64(elapsed.Microseconds()) / 1000.0

	level, msg := slog.LevelDebug, "request"
	if elapsed >= threshold {
		level, msg = slog.LevelWarn, "slow_request"
	}
	slog.Log(r.Context(), level, msg,
		"request_id", RequestIDFromContext(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"duration_ms", ms,
	)

	if collector == nil {
		return
	}
	collector.Record(perf.Entry{
		Kind:       perf.KindRequest,
		Path:       r.Method + " " + r.URL.Path,
		StatusCode: status,
		DurationMs: ms,
		Timestamp:  start,
	})
}
