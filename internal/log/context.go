package log

import "context"

type contextKey struct{}

// NewContext returns ctx carrying logger
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts a logger from the context, falling back to the default logger
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return New(Config{Handler: defaultHandler()})
}
