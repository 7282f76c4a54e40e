// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// Context keys for logging
const (
	CorrelationID LogContextKey = "correlation_id"
	SpanID        LogContextKey = "span_id"
	TraceID       LogContextKey = "trace_id"
)

// LoggingConfig defines which types of automated logging are enabled.
type LoggingConfig struct {
	EnableCorrelationID bool
	EnableRepoLogging   bool
	EnableAsyncLogging  bool
}

var (
	// Config holds the current logging configuration.
	Config = LoggingConfig{
		EnableCorrelationID: true,
		EnableRepoLogging:   true,
		EnableAsyncLogging:  true,
	}
)

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id := ctx.Value(CorrelationID); id != nil {
		return id.(string)
	}
	return ""
}

// RepoLogger provides structured logging for repository operations.
type RepoLogger struct {
	tableName string
	logger    *Logger
}

// NewRepoLogger creates a new RepoLogger for the given table.
func NewRepoLogger(tableName string) *RepoLogger {
	return &RepoLogger{
		tableName: tableName,
		logger:    GlobalLogger,
	}
}

// LogCreate logs a repository create operation.
func (l *RepoLogger) LogCreate(ctx context.Context, fields map[string]interface{}) {
	if !Config.EnableRepoLogging {
		return
	}
	attrs := []any{
		slog.String("table", l.tableName),
		slog.String("operation", "create"),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "repository create", attrs...)
}

// LogUpdate logs a repository update operation.
func (l *RepoLogger) LogUpdate(ctx context.Context, fields map[string]interface{}) {
	if !Config.EnableRepoLogging {
		return
	}
	attrs := []any{
		slog.String("table", l.tableName),
		slog.String("operation", "update"),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "repository update", attrs...)
}

// LogDelete logs a repository delete operation.
func (l *RepoLogger) LogDelete(ctx context.Context, fields map[string]interface{}) {
	if !Config.EnableRepoLogging {
		return
	}
	attrs := []any{
		slog.String("table", l.tableName),
		slog.String("operation", "delete"),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "repository delete", attrs...)
}

// LogError logs a repository error.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	if !Config.EnableRepoLogging {
		return
	}
	l.logger.ErrorContext(ctx, "repository error",
		slog.String("table", l.tableName),
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
		slog.String("error", err.Error()),
	)
}

// LogAsyncOperationStart logs the start of an asynchronous operation.
func LogAsyncOperationStart(ctx context.Context, operation string, fields map[string]interface{}) {
	if !Config.EnableAsyncLogging {
		return
	}
	attrs := []any{
		slog.String("operation", operation),
		slog.String("type", "async_start"),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	GlobalLogger.InfoContext(ctx, "async operation started", attrs...)
}

// LogAsyncOperationEnd logs the completion of an asynchronous operation.
func LogAsyncOperationEnd(ctx context.Context, operation string, fields map[string]interface{}) {
	if !Config.EnableAsyncLogging {
		return
	}
	attrs := []any{
		slog.String("operation", operation),
		slog.String("type", "async_end"),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	GlobalLogger.InfoContext(ctx, "async operation completed", attrs...)
}

// LogAsyncOperationError logs an error in an asynchronous operation.
func LogAsyncOperationError(ctx context.Context, operation string, err error, fields map[string]interface{}) {
	attrs := []any{
		slog.String("operation", operation),
		slog.String("type", "async_error"),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	GlobalLogger.ErrorContext(ctx, "async operation failed", attrs...)
}
