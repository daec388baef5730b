package drivemap

import (
	"log/slog"

	"github.com/Jumpaku/go-drivemap/internal/logging"
)

// Unbounded disables the recursion depth limit of a listing.
const Unbounded = -1

type options struct {
	enumerate   EnumerateOptions
	moveToTrash bool
	logger      *slog.Logger
}

func defaultOptions() options {
	return options{
		enumerate: EnumerateOptions{MaxLevels: Unbounded},
		logger:    logging.Discard(),
	}
}

// Option configures a Reader or a Store.
type Option func(*options)

// WithMaxLevels limits how deep subfolders are listed: 0 lists the root folder only,
// Unbounded (the default) lists every level.
func WithMaxLevels(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = Unbounded
		}
		o.enumerate.MaxLevels = n
	}
}

// WithIncludeHidden includes files and folders whose names start with '.'.
func WithIncludeHidden(include bool) Option {
	return func(o *options) {
		o.enumerate.IncludeHidden = include
	}
}

// WithMoveToTrash makes Store.Delete move files to the trash instead of deleting them permanently.
func WithMoveToTrash(moveToTrash bool) Option {
	return func(o *options) {
		o.moveToTrash = moveToTrash
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
