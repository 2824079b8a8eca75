package log

import (
	"context"
	"log/slog"
)

// Logger returns the current default logger instance.
func Logger() *slog.Logger {
	return slog.Default()
}

// Named returns the default logger tagged with a logger name.
func Named(name string) *slog.Logger {
	return Logger().With(LoggerKey, name)
}

// WithContext returns a logger bound to the request ID and log fields visible
// from ctx, so records logged through it keep the ID even without a context.
func WithContext(ctx interface{}) *slog.Logger {
	logger := Logger()
	std := contextOf(ctx)
	if std == nil {
		return logger
	}

	if id, ok := RequestIDFromContext(std); ok {
		logger = logger.With(RequestIDKey, id)
	}
	for k, v := range GetLogFields(std) {
		logger = logger.With(k, v)
	}

	return logger
}

// contextOf unwraps a gin context to the request context, which is where the
// request ID lives.
func contextOf(ctx interface{}) context.Context {
	if v, ok := ctx.(context.Context); ok {
		return requestContext(v)
	}
	return nil
}

// Info logs at Info level with the request ID resolved from context.
func Info(ctx context.Context, msg string, args ...any) {
	Logger().InfoContext(ctx, msg, args...)
}

// Error logs at Error level with the request ID resolved from context.
func Error(ctx context.Context, msg string, args ...any) {
	Logger().ErrorContext(ctx, msg, args...)
}

// Warn logs at Warn level with the request ID resolved from context.
func Warn(ctx context.Context, msg string, args ...any) {
	Logger().WarnContext(ctx, msg, args...)
}

// Debug logs at Debug level with the request ID resolved from context.
func Debug(ctx context.Context, msg string, args ...any) {
	Logger().DebugContext(ctx, msg, args...)
}

// ParseLevel maps a configured level name to a slog level. Unknown names map
// to Info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
