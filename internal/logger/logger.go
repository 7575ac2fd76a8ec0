// Package logger builds the structured diagnostic logger shared by the CLI
// and the deploy packages. User-facing per-object lines are printed by the
// console package; this logger carries the machine-readable side.
package logger

import (
	"io"
	"log/slog"
)

// NewWithWriter returns a JSON slog.Logger on w tagged with the given
// service name.
func NewWithWriter(w io.Writer, service string, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", service)
}

// Discard returns a logger that drops every record. Useful as a default for
// library callers that did not supply one.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
