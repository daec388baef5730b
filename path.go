package drivemap

import (
	"fmt"
	"strings"
)

// FileID is the opaque identifier Google Drive assigns to a file or folder.
type FileID string

// KeyPath is a slash-separated path relative to the mapped folder (e.g., "sub/b.txt").
// It serves as the key of a Reader or Store.
// KeyPaths have no leading or trailing '/', no empty segments and no "." or ".." segments.
type KeyPath string

// Join appends name as a new segment of k.
func (k KeyPath) Join(name string) KeyPath {
	if k == "" {
		return KeyPath(name)
	}
	return k + "/" + KeyPath(name)
}

// Base returns the last segment of k.
func (k KeyPath) Base() string {
	s := string(k)
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

func validateAndSplitKey(key KeyPath) (parts []string, err error) {
	if key == "" {
		return nil, fmt.Errorf("empty key: %w", ErrInvalidKey)
	}
	for _, p := range strings.Split(string(key), "/") {
		if p == "" {
			return nil, fmt.Errorf("key %q has an empty segment: %w", key, ErrInvalidKey)
		}
		if p == "." || p == ".." {
			return nil, fmt.Errorf("relative segments are not allowed in key %q: %w", key, ErrInvalidKey)
		}
		parts = append(parts, p)
	}
	return parts, nil
}
