package idset

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with idset-specific helpers for the handful of
// events worth recording: representation transitions, rebuilds, and
// allocation failures.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is
// nil, uses a default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithHandle adds fields identifying a handle's kind and immutability, useful
// for tagging a sequence of operations against the same tree.
func (l *Logger) WithHandle(h Handle) *Logger {
	return &Logger{Logger: l.Logger.With("kind", h.Kind().String(), "immutable", h.Immutable())}
}

// LogTransition logs a representation change a mutation caused.
func (l *Logger) LogTransition(from, to Kind, count int) {
	if from == to {
		return
	}
	l.Debug("representation transition", "from", from.String(), "to", to.String(), "count", count)
}

// LogRebuild logs a full rebuild through a stream reader (the splice
// overflow and node-to-leaf collapse paths).
func (l *Logger) LogRebuild(reason string, count int, err error) {
	if err != nil {
		l.Error("rebuild failed", "reason", reason, "count", count, "error", err)
		return
	}
	l.Debug("rebuild completed", "reason", reason, "count", count)
}

// LogAllocFailure logs an allocator failure encountered mid-operation.
func (l *Logger) LogAllocFailure(op string, err error) {
	l.Error("allocation failed", "op", op, "error", err)
}
