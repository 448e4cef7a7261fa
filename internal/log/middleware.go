package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

// LoggerContextKey is the context key for the request logger.
const LoggerContextKey ContextKey = "logger"

// NewContext returns ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts the request logger, falling back to fallback and
// then to the slog default.
func FromContext(ctx context.Context, fallback ...*Logger) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	if len(fallback) > 0 && fallback[0] != nil {
		return fallback[0]
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// WithRequest returns a logger tagged with the request id and client ip.
func (l *Logger) WithRequest(requestID, clientIP string) *Logger {
	return l.With(FieldRequestID, requestID, FieldClientIP, clientIP)
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// from prefers the request logger stored in ctx.
func (sl *StructuredLogger) from(ctx context.Context) *Logger {
	return FromContext(ctx, sl.logger)
}

// LogHTTPStart logs the start of an HTTP request. The request id and
// client ip come from the request logger in ctx.
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithComponent(ComponentHTTP)

	sl.from(ctx).InfoContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs the completion of an HTTP request
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithComponent(ComponentHTTP)

	sl.from(ctx).Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogCommit logs a committed working set
func (sl *StructuredLogger) LogCommit(ctx context.Context, sessionID string, committed, recordCount int) {
	fields := NewFields().
		WithSession(sessionID, 0).
		WithOperation(OpCommit).
		WithComponent(ComponentWorkset).
		ToSlice()

	fields = append(fields, "committed_changes", committed, FieldRecordCount, recordCount)

	sl.from(ctx).InfoContext(ctx, "Working set committed", fields...)
}

// LogRecordChange logs a single pending edit
func (sl *StructuredLogger) LogRecordChange(ctx context.Context, op, sessionID string, id, period string, consumption float64, pending int) {
	fields := NewFields().
		WithRecord(id, period, consumption).
		WithSession(sessionID, pending).
		WithOperation(op).
		WithComponent(ComponentWorkset)

	sl.from(ctx).DebugContext(ctx, "Working set changed", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	allFields := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.from(ctx).ErrorContext(ctx, msg, allFields.ToSlice()...)
}