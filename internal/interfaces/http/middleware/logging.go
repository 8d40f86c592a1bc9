package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/prometheus"
)

// LoggingConfig holds configuration for the request logging middleware.
type LoggingConfig struct {
	// SkipPaths are paths that are neither logged nor measured.
	SkipPaths []string

	// SlowThreshold is the duration above which a request is logged as slow.
	SlowThreshold time.Duration
}

// DefaultLoggingConfig returns the default logging configuration.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
		SlowThreshold: 3 * time.Second,
	}
}

// wrappedResponseWriter captures the status code and bytes written.
type wrappedResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newWrappedResponseWriter(w http.ResponseWriter) *wrappedResponseWriter {
	return &wrappedResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK, // default if WriteHeader is never called
	}
}

// WriteHeader captures the status code.
func (w *wrappedResponseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.statusCode = code
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

// Write captures the number of bytes written.
func (w *wrappedResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += int64(n)
	return n, err
}

// Hijack implements http.Hijacker.
func (w *wrappedResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}

// Flush implements http.Flusher.
func (w *wrappedResponseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// RequestLogging returns middleware that logs each request and records its
// HTTP metrics.  5xx responses log at error, 4xx and slow requests at warn.
// metrics may be nil.
func RequestLogging(logger logging.Logger, metrics *prometheus.AppMetrics, config LoggingConfig) func(http.Handler) http.Handler {
	skipSet := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skipSet[p] = true
	}
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	logger = logger.Named("http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipSet[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			defer prometheus.TrackInFlight(metrics, r.Method)()
			start := time.Now()
			wrapped := newWrappedResponseWriter(w)
			next.ServeHTTP(wrapped, r)
			duration := time.Since(start)

			prometheus.RecordHTTPRequest(metrics, r.Method, routePattern(r), wrapped.statusCode,
				duration, r.ContentLength, wrapped.bytesWritten)

			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", wrapped.statusCode),
				logging.Duration("duration", duration),
				logging.Int64("bytes", wrapped.bytesWritten),
				logging.String("remote_addr", r.RemoteAddr),
				logging.String("request_id", chimw.GetReqID(r.Context())),
			}
			if r.URL.RawQuery != "" {
				fields = append(fields, logging.String("query", r.URL.RawQuery))
			}
			if ua := r.UserAgent(); ua != "" {
				fields = append(fields, logging.String("user_agent", ua))
			}

			switch {
			case wrapped.statusCode >= 500:
				logger.Error("HTTP request completed with server error", fields...)
			case wrapped.statusCode >= 400:
				logger.Warn("HTTP request completed with client error", fields...)
			case config.SlowThreshold > 0 && duration >= config.SlowThreshold:
				logger.Warn("HTTP request completed (slow)", fields...)
			default:
				logger.Info("HTTP request completed", fields...)
			}
		})
	}
}

// routePattern keeps the metric label set bounded to registered routes.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

//Personal.AI order the ending
