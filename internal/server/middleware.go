// internal/server/middleware.go
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"skyconnect-match/internal/common/metrics"
	"skyconnect-match/internal/orchestrator"
)

type contextKey string

const requestIDKey contextKey = "requestId"

const requestIDHeader = "X-Request-ID"

// RequestIDFromContext returns the request ID set by the middleware, or
// an empty string outside a request.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// requestID tags every request with a uuid, honoring one supplied by
// the caller, and echoes it back on the response.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusWriter records the status code so the access log can report it.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		s.logger.Info("http request", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     sw.status,
			"durationMs": time.Since(start).Milliseconds(),
			"requestId":  RequestIDFromContext(r.Context()),
			"remoteAddr": r.RemoteAddr,
		})
	})
}

// recovery is the last net under the handlers. A panic on a /match
// route still answers 200 with the standard error envelope; everywhere
// else it answers a plain 500.
func (s *Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				s.errors.HandlePanic("http", recovered)

				if strings.HasPrefix(r.URL.Path, "/match") {
					s.writeJSON(w, http.StatusOK, orchestrator.ErrorEnvelope())
					return
				}
				s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// instrument tracks in-flight requests per route.
func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.RequestsInFlight.WithLabelValues(route).Inc()
		defer metrics.RequestsInFlight.WithLabelValues(route).Dec()

		h(w, r)
	}
}
