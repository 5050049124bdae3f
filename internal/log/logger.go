package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with a component name attached to every record
type Logger struct {
	*slog.Logger
	component string
}

// Config holds logger configuration
type Config struct {
	Level     slog.Level
	Component string
	Output    io.Writer
	Handler   slog.Handler
}

// DefaultConfig returns sensible defaults for logging
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
		Output:    os.Stdout,
	}
}

// New creates a new logger with the given configuration
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		out := config.Output
		if out == nil {
			out = os.Stdout
		}
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: config.Level})
	}
	component := config.Component
	if component == "" {
		component = ComponentApp
	}
	return &Logger{
		Logger:    slog.New(handler).With(FieldComponent, component),
		component: component,
	}
}

// Discard returns a logger that drops every record, for tests.
func Discard() *Logger {
	return New(Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

// With returns a new logger with the given attributes
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		component: l.component,
	}
}

// WithComponent returns a logger for a sub-component. The component field
// is set once on the underlying handler.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger.With(FieldComponent, component),
		component: component,
	}
}

// WithFields attaches a LogFields set
func (l *Logger) WithFields(f LogFields) *Logger {
	return l.With(f.ToSlice()...)
}

// Component returns the logger's component name
func (l *Logger) Component() string {
	return l.component
}

// SetDefault sets the default logger for the application
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}

// ParseLevel maps a level name to slog.Level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultHandler() slog.Handler {
	return slog.Default().Handler()
}
