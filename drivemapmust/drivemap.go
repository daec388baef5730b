// Package drivemapmust wraps the drivemap package with panic-based error handling.
//
// It provides the same key/value operations as the root-level drivemap package,
// but instead of returning errors, all exported methods panic on failure.
package drivemapmust

import (
	"context"

	"github.com/Jumpaku/go-drivemap"
	"google.golang.org/api/drive/v3"
)

// Reader is a read-only key/value view of a Google Drive folder.
//
// All methods of Reader panic on error instead of returning an error value.
type Reader struct {
	reader *drivemap.Reader
}

// New creates a Reader for the folder shared at folderURL.
//
// It panics if folderURL is not a Drive folder URL.
func New(service *drive.Service, folderURL string, opts ...drivemap.Option) *Reader {
	return &Reader{reader: must1(drivemap.New(service, folderURL, opts...))}
}

// Wrap returns a Reader which delegates to r.
func Wrap(r *drivemap.Reader) *Reader {
	return &Reader{reader: r}
}

// Unwrap returns the underlying error-returning Reader.
func (r *Reader) Unwrap() *drivemap.Reader {
	return r.reader
}

// Contains reports whether key is present in the folder.
//
// It panics if listing the folder fails.
func (r *Reader) Contains(ctx context.Context, key drivemap.KeyPath) bool {
	return must1(r.reader.Contains(ctx, key))
}

// Get downloads the content of the file at key.
//
// It panics if key is absent (ErrNotFound), if the file is a Google Apps document
// (ErrNotReadable) or if the download fails.
func (r *Reader) Get(ctx context.Context, key drivemap.KeyPath) []byte {
	return must1(r.reader.Get(ctx, key))
}

// Keys returns every key of the folder in listing order.
//
// It panics if listing the folder fails.
func (r *Reader) Keys(ctx context.Context) []drivemap.KeyPath {
	return must1(r.reader.Keys(ctx))
}

// Len returns the number of keys of the folder.
//
// It panics if listing the folder fails.
func (r *Reader) Len(ctx context.Context) int {
	return must1(r.reader.Len(ctx))
}

// URL grants perm on the file at key and returns a link to view it.
// A nil perm grants the reader role to anyone with the link.
//
// It panics if key is absent or if sharing the file fails.
func (r *Reader) URL(ctx context.Context, key drivemap.KeyPath, perm drivemap.Permission) string {
	return must1(r.reader.URL(ctx, key, perm))
}

// Store is a read-write key/value view of a Google Drive folder.
//
// All methods of Store panic on error instead of returning an error value.
type Store struct {
	*Reader
	store *drivemap.Store
}

// NewStore creates a Store for the folder shared at folderURL.
//
// It panics if folderURL is not a Drive folder URL.
func NewStore(service *drive.Service, folderURL string, opts ...drivemap.Option) *Store {
	return WrapStore(must1(drivemap.NewStore(service, folderURL, opts...)))
}

// WrapStore returns a Store which delegates to s.
func WrapStore(s *drivemap.Store) *Store {
	return &Store{Reader: Wrap(s.Reader), store: s}
}

// Set writes value to the file at key, creating the folders along key.
//
// It panics if key is invalid (ErrInvalidKey), if a folder along key is ambiguous
// (ErrAlreadyExists) or if the upload fails.
func (s *Store) Set(ctx context.Context, key drivemap.KeyPath, value []byte) {
	must0(s.store.Set(ctx, key, value))
}

// Delete removes the file at key.
//
// It panics if key is absent (ErrNotFound) or if the removal fails.
func (s *Store) Delete(ctx context.Context, key drivemap.KeyPath) {
	must0(s.store.Delete(ctx, key))
}
