// Package logger provides structured logging functionality for the application.
//
// It builds JSON loggers on log/slog with a configurable level and carries
// request-scoped loggers through context.Context.
package logger
