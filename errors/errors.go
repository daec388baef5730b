package errors

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

var (
	ErrInvalidURL    = errors.New("invalid url")
	ErrInvalidKey    = errors.New("invalid key")
	ErrAPIError      = errors.New("api error")
	ErrFetch         = errors.New("fetch error")
	ErrIOError       = errors.New("io error")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotReadable   = errors.New("not readable")
	ErrAuth          = errors.New("auth error")
	ErrPermission    = errors.New("permission denied")
)

type wrapError struct {
	underlying []error
	msg        string
	cause      error
}

var _ error = (*wrapError)(nil)

// NewAPIError wraps a failure returned by the authenticated Drive client.
// Status codes of a *googleapi.Error are also classified, so that a 401 matches
// ErrAuth, a 403 matches ErrPermission and a 404 matches ErrNotFound.
func NewAPIError(msg string, cause error) error {
	underlying := []error{ErrAPIError}
	var gErr *googleapi.Error
	if errors.As(cause, &gErr) {
		switch gErr.Code {
		case http.StatusUnauthorized:
			underlying = append(underlying, ErrAuth)
		case http.StatusForbidden:
			underlying = append(underlying, ErrPermission)
		case http.StatusNotFound:
			underlying = append(underlying, ErrNotFound)
		}
	}
	return &wrapError{
		underlying: underlying,
		msg:        msg,
		cause:      cause,
	}
}

func NewIOError(msg string, cause error) error {
	return &wrapError{
		underlying: []error{ErrIOError},
		msg:        msg,
		cause:      cause,
	}
}

// NewFetchError wraps a failed anonymous download.
func NewFetchError(msg string, cause error) error {
	return &wrapError{
		underlying: []error{ErrFetch},
		msg:        msg,
		cause:      cause,
	}
}

func NewAuthError(msg string, cause error) error {
	return &wrapError{
		underlying: []error{ErrAuth},
		msg:        msg,
		cause:      cause,
	}
}

func (err *wrapError) Error() string {
	if err == nil {
		return "(*wrapError)(nil)"
	}
	message := err.underlying[0].Error() + ": " + err.msg
	if err.cause != nil {
		message += ": " + err.cause.Error()
	}
	return message
}

func (err *wrapError) Unwrap() []error {
	if err.cause == nil {
		return err.underlying
	}
	return append(append([]error{}, err.underlying...), err.cause)
}
