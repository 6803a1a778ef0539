// Package logger provides structured logging for the application.
//
// It builds on the standard library's log/slog JSON handler, parses the
// configured level, and carries request-scoped loggers on the context so that
// stores and services log with the trace ID of the request that called them.
package logger
