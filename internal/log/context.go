package log

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
	// TraceIDKey is the context key for the per-update trace ID
	TraceIDKey ContextKey = "trace_id"
)

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	// slog.Default already carries the component set by SetDefault.
	return &Logger{Logger: slog.Default(), root: slog.Default(), component: "unknown"}
}

// NewTraceID creates a short random ID used to correlate the log lines of
// one incoming update.
func NewTraceID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("upd_%d", time.Now().UnixNano())
	}
	return "upd_" + hex.EncodeToString(b)
}

// WithTraceID stores id in ctx. Loggers built by New add it to every record
// logged with the returned context.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TraceIDKey, id)
}

// TraceID extracts the trace ID from context
func TraceID(ctx context.Context) string {
	if id, ok := ctx.Value(TraceIDKey).(string); ok {
		return id
	}
	return ""
}
