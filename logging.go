package vesync

import (
	"log/slog"

	"github.com/kmercier/go-vesync/internal/observability"
)

// Logger is the structured logging interface the client emits diagnostics
// through. Hosts implement it over their own logging library, or use
// NewSlogLogger; when Config.Logger is nil all output is discarded.
type Logger = observability.Logger

// Field is a structured logging key-value pair.
type Field = observability.Field

// NoopLogger returns a Logger that discards everything. It is the default
// when Config.Logger is nil.
//
//nolint:ireturn // Factory function must return interface for dependency injection pattern
func NoopLogger() Logger {
	return observability.NoopLogger()
}

// NewSlogLogger returns a Logger backed by the given slog logger. A nil
// logger falls back to slog.Default().
//
//nolint:ireturn // Factory function must return interface for dependency injection pattern
func NewSlogLogger(l *slog.Logger) Logger {
	return observability.NewSlogLogger(l)
}
