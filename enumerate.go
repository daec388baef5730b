package drivemap

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/drive/v3"
)

// EnumerateOptions controls a recursive folder listing.
type EnumerateOptions struct {
	// MaxLevels is the deepest subfolder level listed. 0 lists the root folder only; Unbounded or any negative value lists every level.
	MaxLevels int
	// IncludeHidden includes names starting with '.'.
	IncludeHidden bool
}

// Entry is a file found by a listing, addressed by its path relative to the listed folder.
type Entry struct {
	Key  KeyPath
	File RemoteFile
}

// SkipAll is used as a return value from a Walk callback to stop the walk. It is not returned as an error by Walk.
var SkipAll = errors.New("skip everything and stop the walk")

// Walk lists the folder with the given folderID recursively and calls fn for each non-folder file,
// in listing order. Subfolders are walked in place, before the siblings that follow them.
func Walk(ctx context.Context, service *drive.Service, folderID FileID, opts EnumerateOptions, fn func(Entry) error) error {
	err := walk(ctx, service, folderID, "", 0, opts, fn)
	if errors.Is(err, SkipAll) {
		return nil
	}
	return err
}

// Enumerate lists the folder with the given folderID recursively and returns its files keyed by relative path.
// When two files share a path, the path keeps the position of its first occurrence and the handle of its last.
func Enumerate(ctx context.Context, service *drive.Service, folderID FileID, opts EnumerateOptions) (entries []Entry, err error) {
	index := map[KeyPath]int{}
	err = Walk(ctx, service, folderID, opts, func(e Entry) error {
		if i, ok := index[e.Key]; ok {
			entries[i] = e
			return nil
		}
		index[e.Key] = len(entries)
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func walk(ctx context.Context, s *drive.Service, folderID FileID, prefix KeyPath, level int, opts EnumerateOptions, fn func(Entry) error) error {
	files, err := findAllIn(ctx, s, folderID)
	if err != nil {
		return fmt.Errorf("failed to list folder %s: %w", folderID, err)
	}
	for _, f := range files {
		file := newRemoteFile(f)
		if !opts.IncludeHidden && file.IsHidden() {
			continue
		}
		key := prefix.Join(file.Name)
		if file.IsFolder() {
			if opts.MaxLevels < 0 || level < opts.MaxLevels {
				if err := walk(ctx, s, file.ID, key, level+1, opts, fn); err != nil {
					return err
				}
			}
			continue
		}
		if err := fn(Entry{Key: key, File: file}); err != nil {
			return err
		}
	}
	return nil
}
