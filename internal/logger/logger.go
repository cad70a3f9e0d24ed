// Package logger holds the process-wide structured logger used by the allocator
// and the command line tool.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// EnvLogAlloc enables allocator event logging to stderr when set to any non-empty value.
const EnvLogAlloc = "BLOCKVEC_LOG_ALLOC"

// L is the global logger instance. It's initialized to discard all output by default.
// Call Init() to enable logging.
var L = slog.New(slog.DiscardHandler)

func init() {
	if os.Getenv(EnvLogAlloc) != "" {
		L = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Out     io.Writer  // Destination. Default: os.Stderr
	Level   slog.Level // Minimum log level. Default: LevelInfo when enabled
	JSON    bool       // Emit JSON records instead of logfmt text
}

// Init configures logging. Call from main() before any log calls.
// If opts.Enabled is false, all log output is discarded.
func Init(opts Options) {
	if !opts.Enabled {
		L = slog.New(slog.DiscardHandler)
		return
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	level := opts.Level
	if level == 0 {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if opts.JSON {
		L = slog.New(slog.NewJSONHandler(out, handlerOpts))
		return
	}
	L = slog.New(slog.NewTextHandler(out, handlerOpts))
}

// Enabled reports whether records at level would be emitted.
func Enabled(level slog.Level) bool {
	return L.Enabled(context.Background(), level)
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
