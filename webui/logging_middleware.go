package webui

import (
	"context"
	"net/http"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sdweb/logging"
)

// RequestIDHeader carries the request id on requests and responses.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestIDFromContext returns the id assigned by the logging middleware, or
// "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// LoggingMiddleware assigns every request an id and logs method, path,
// status, size and duration once the handler returns.
//
// Safe for concurrent use.
type LoggingMiddleware struct {
	logger       *zap.Logger
	skipPaths    map[string]bool
	logUserAgent bool
}

// LoggingMiddlewareConfig holds configuration for the LoggingMiddleware
type LoggingMiddlewareConfig struct {
	// SkipPaths are logged at debug level only (default: none)
	SkipPaths []string

	// LogUserAgent whether to include user agent in logs (default: false)
	LogUserAgent bool
}

// DefaultSkipPaths are polled endpoints that would flood the log.
var DefaultSkipPaths = []string{"/api/status", "/health", "/metrics"}

// NewLoggingMiddleware creates a LoggingMiddleware. A nil logger discards
// output.
func NewLoggingMiddleware(logger *zap.Logger, config LoggingMiddlewareConfig) *LoggingMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	skipPaths := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}
	return &LoggingMiddleware{
		logger:       logger,
		skipPaths:    skipPaths,
		logUserAgent: config.LogUserAgent,
	}
}

// Handler wraps next with request id assignment and request logging.
// An incoming X-Request-ID is kept; otherwise a new UUID is generated.
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		snoop := httpsnoop.CaptureMetrics(next, w, r)

		level := statusLevel(snoop.Code)
		if m.skipPaths[r.URL.Path] && level == zapcore.InfoLevel {
			level = zapcore.DebugLevel
		}
		ce := m.logger.Check(level, "http request")
		if ce == nil {
			return
		}
		fields := []zap.Field{
			zap.String(logging.FieldRequestID, id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", snoop.Code),
			zap.Int64("bytes", snoop.Written),
			zap.Duration("duration", snoop.Duration),
			zap.String("remote_addr", getClientIP(r)),
		}
		if m.logUserAgent {
			fields = append(fields, zap.String("user_agent", r.UserAgent()))
		}
		ce.Write(fields...)
	})
}

// statusLevel maps a response status to a log level.
func statusLevel(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// getClientIP extracts the client IP from the request
// Checks X-Forwarded-For and X-Real-IP headers first for proxied requests
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
