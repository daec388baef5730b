package drivemap

// This file is part of the package tests (package drivemap) and provides
// helpers that allow tests in the external package to access internal
// package constructs. Helpers are exported so `drivemap_test` can call them
// via the module import path.

// NewAPIError constructs an api-wrapped error using package-internal constructor.
func NewAPIError(msg string, cause error) error {
	return newAPIError(msg, cause)
}

// NewIOError constructs an io-wrapped error using package-internal constructor.
func NewIOError(msg string, cause error) error {
	return newIOError(msg, cause)
}

// EscapeQuery exposes the query literal escaping.
func EscapeQuery(s string) string {
	return escapeQuery(s)
}

// SplitKey exposes key validation.
func SplitKey(key KeyPath) ([]string, error) {
	return validateAndSplitKey(key)
}
