// Package trace assigns request ids and logs each HTTP request.
package trace

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"teddy/internal/log"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

const maxRequestIDLength = 64

// Middleware handles request tracing and logging
type Middleware struct {
	logger    *log.Logger
	extractIP func(*http.Request) string

	totalRequests  atomic.Int64
	serverErrors   atomic.Int64
	totalDurationU atomic.Int64
}

// Metrics is a snapshot of request counters.
type Metrics struct {
	TotalRequests       int64 `json:"total_requests"`
	ServerErrors        int64 `json:"server_errors"`
	AverageResponseTime int64 `json:"average_response_time_us"`
}

func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string) *Middleware {
	if logger == nil {
		logger = log.Discard()
	}
	return &Middleware{logger: logger.WithComponent(log.ComponentHTTP), extractIP: extractIP}
}

// Handler wraps next with request id propagation and access logging. The
// request-scoped logger is stored in the context for log.FromContext.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		reqLogger := m.logger.With(log.FieldRequestID, requestID)
		ctx := log.NewContext(r.Context(), reqLogger)
		r = r.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		m.totalRequests.Add(1)
		m.totalDurationU.Add(duration.Microseconds())
		if rw.statusCode >= 500 {
			m.serverErrors.Add(1)
		}

		level := slog.LevelInfo
		switch {
		case rw.statusCode >= 500:
			level = slog.LevelError
		case rw.statusCode >= 400:
			level = slog.LevelWarn
		}

		fields := log.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
			WithHTTPResponse(rw.statusCode, duration.Milliseconds(), rw.statusCode < 400)
		fields[log.FieldClientIP] = clientIP
		reqLogger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	total := m.totalRequests.Load()
	var avg int64
	if total > 0 {
		avg = m.totalDurationU.Load() / total
	}
	return Metrics{
		TotalRequests:       total,
		ServerErrors:        m.serverErrors.Load(),
		AverageResponseTime: avg,
	}
}
