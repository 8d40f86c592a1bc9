package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

// writeError renders code in the same {"code","message"} shape the handlers
// use.
func writeError(w http.ResponseWriter, code errors.ErrorCode) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errors.HTTPStatusForCode(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code.String(),
		"message": errors.DefaultMessageForCode(code),
	})
}

// Recovery converts a handler panic into a logged COMMON_001 response.
// http.ErrAbortHandler is re-panicked so the server can abort the connection.
func Recovery(logger logging.Logger) func(http.Handler) http.Handler {
	logger = logger.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("Recovered from handler panic",
					logging.String("panic", fmt.Sprint(rec)),
					logging.String("method", r.Method),
					logging.String("path", r.URL.Path),
					logging.String("request_id", chimw.GetReqID(r.Context())),
					logging.String("stack", string(debug.Stack())))
				writeError(w, errors.ErrCodeInternal)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Timeout bounds the request context.  Handlers observe the deadline through
// ctx and render their own timeout error.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

//Personal.AI order the ending
