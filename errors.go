package drivemap

import (
	"github.com/Jumpaku/go-drivemap/errors"
)

var (
	ErrInvalidURL    = errors.ErrInvalidURL
	ErrInvalidKey    = errors.ErrInvalidKey
	ErrAPIError      = errors.ErrAPIError
	ErrFetch         = errors.ErrFetch
	ErrIOError       = errors.ErrIOError
	ErrNotFound      = errors.ErrNotFound
	ErrAlreadyExists = errors.ErrAlreadyExists
	ErrNotReadable   = errors.ErrNotReadable
	ErrAuth          = errors.ErrAuth
	ErrPermission    = errors.ErrPermission
)

func newAPIError(msg string, cause error) error {
	return errors.NewAPIError(msg, cause)
}

func newIOError(msg string, cause error) error {
	return errors.NewIOError(msg, cause)
}
