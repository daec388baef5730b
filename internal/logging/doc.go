// Package logging provides structured logging utilities for drivemap.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "store.set")
//	logger.Debug("uploaded file",
//	    logging.Key("sub/b.txt"),
//	    logging.Status(logging.StatusSuccess))
//
// OAuth tokens are never logged directly; use SanitizeToken.
package logging
