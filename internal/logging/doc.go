// Package logging assembles structured slog loggers and formatting helpers used
// across tubescribe.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so pipeline code tags log lines with the
// batch item index, stage, and run correlation ID. When a log file is
// configured, console output is teed to a JSON file through a fanout handler.
// A no-op logger is provided for tests and wiring code that cannot fail.
package logging
