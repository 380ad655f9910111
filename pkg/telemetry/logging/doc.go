// Package logging builds the process-wide structured logger.
//
// All packages in this module log through log/slog with component-scoped
// loggers (slog.Default().With("component", ...)). This package only parses
// the logging configuration and constructs the slog handler; callers install
// the result with slog.SetDefault.
package logging
