// Package drivemap provides key/value access to a Google Drive folder.
//
// A Reader maps the relative paths of the files in a folder (and, up to a depth limit,
// in its subfolders) to their contents. A Store additionally writes and deletes files,
// creating the subfolders a key needs.
//
//	reader, err := drivemap.New(service, "https://drive.google.com/drive/folders/<id>", drivemap.WithMaxLevels(0))
//	keys, err := reader.Keys(ctx)
//	data, err := reader.Get(ctx, "a.txt")
//
//	store, err := drivemap.NewStore(service, folderURL)
//	err = store.Set(ctx, "sub/b.txt", []byte("hello"))
//	err = store.Delete(ctx, "sub/b.txt")
//
// Publicly shared files can be downloaded without authentication with the download package.
package drivemap

import (
	"context"
	"iter"
)

// Mapping is a read-only key/value view of remote files.
type Mapping interface {
	Contains(ctx context.Context, key KeyPath) (bool, error)
	Get(ctx context.Context, key KeyPath) ([]byte, error)
	Keys(ctx context.Context) ([]KeyPath, error)
	All(ctx context.Context) iter.Seq2[KeyPath, error]
	Len(ctx context.Context) (int, error)
}

// MutableMapping is a Mapping which can also write and delete files.
type MutableMapping interface {
	Mapping
	Set(ctx context.Context, key KeyPath, value []byte) error
	Delete(ctx context.Context, key KeyPath) error
}
