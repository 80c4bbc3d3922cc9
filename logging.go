package main

import (
	"io"
	"log/slog"
)

// newLogger returns the diagnostic logger. Without verbose only warnings and
// errors are emitted; progress for the user goes through console instead.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// discardLogger is used by tests and by callers that want no diagnostics.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
