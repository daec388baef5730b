package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyFolderID  = "folder_id"
	KeyFileID    = "file_id"
	KeyKey       = "key"
	KeyCount     = "count"
	KeyStatus    = "status"
	KeyError     = "error"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusHit     = "hit"
	StatusMiss    = "miss"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithFolder returns a logger with the folder_id attribute set.
func WithFolder(logger *slog.Logger, folderID string) *slog.Logger {
	return logger.With(slog.String(KeyFolderID, folderID))
}

func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

func FileID(id string) slog.Attr {
	return slog.String(KeyFileID, id)
}

func Key(key string) slog.Attr {
	return slog.String(KeyKey, key)
}

func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizeToken returns a length indicator for a token without exposing any of its content.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel converts a level name ("debug", "info", "warn", "error") into a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}

// New creates a text logger writing to w at the given level.
func New(level string, w io.Writer) (*slog.Logger, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}
