package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger writes leveled, key/value structured log lines.
type Logger struct {
	*slog.Logger
}

// Options selects the logger's level and output format.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// NewLogger creates a new Logger writing text lines to stdout at info level.
func NewLogger() *Logger {
	return New(Options{})
}

// New creates a Logger from opts. Unknown levels fall back to info and
// unknown formats to text.
func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// With returns a Logger that adds args to every line.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return New(Options{Output: io.Discard, Level: "error"})
}
