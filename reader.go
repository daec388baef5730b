package drivemap

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/Jumpaku/go-drivemap/internal/logging"
	"google.golang.org/api/drive/v3"
)

// Reader is a read-only key/value view of a Google Drive folder.
// Keys are file paths relative to the folder and values are file contents.
//
// Reader keeps no index: every call lists the folder again, so results always reflect the live folder.
type Reader struct {
	service   *drive.Service
	folderURL string
	folderID  FileID
	opts      options
}

var _ Mapping = (*Reader)(nil)

// New creates a Reader for the folder shared at folderURL (e.g., https://drive.google.com/drive/folders/<id>).
// The service should be properly authenticated before being passed to this function.
func New(service *drive.Service, folderURL string, opts ...Option) (*Reader, error) {
	folderID, err := FolderIDFromURL(folderURL)
	if err != nil {
		return nil, err
	}
	r := NewWithID(service, folderID, opts...)
	r.folderURL = folderURL
	return r, nil
}

// NewWithID creates a Reader for the folder with the given folderID.
func NewWithID(service *drive.Service, folderID FileID, opts ...Option) *Reader {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logging.WithFolder(o.logger, string(folderID))
	return &Reader{
		service:   service,
		folderURL: "https://drive.google.com/drive/folders/" + string(folderID),
		folderID:  folderID,
		opts:      o,
	}
}

func (r *Reader) FolderID() FileID {
	return r.folderID
}

func (r *Reader) FolderURL() string {
	return r.folderURL
}

// Entries lists the folder and returns every key with its file handle, in listing order.
func (r *Reader) Entries(ctx context.Context) (entries []Entry, err error) {
	entries, err = Enumerate(ctx, r.service, r.folderID, r.opts.enumerate)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.folderID, err)
	}
	r.opts.logger.Debug("listed folder", logging.Count(len(entries)))
	return entries, nil
}

// Contains reports whether key is present in the folder.
func (r *Reader) Contains(ctx context.Context, key KeyPath) (bool, error) {
	_, found, err := r.lookup(ctx, key)
	return found, err
}

// Get downloads the content of the file at key.
// It fails with ErrNotFound if key is absent and with ErrNotReadable for Google Apps documents.
func (r *Reader) Get(ctx context.Context, key KeyPath) (data []byte, err error) {
	logger := logging.WithOperation(r.opts.logger, "reader.get")
	file, err := r.mustLookup(ctx, key)
	if err != nil {
		return nil, err
	}
	data, err = downloadFile(ctx, r.service, file)
	if err != nil {
		logger.Debug("download failed", logging.Key(string(key)), logging.Err(err))
		return nil, fmt.Errorf("failed to read %q: %w", key, err)
	}
	logger.Debug("downloaded file", logging.Key(string(key)), logging.FileID(string(file.ID)), slog.Int("bytes", len(data)))
	return data, nil
}

// Keys returns every key of the folder in listing order.
func (r *Reader) Keys(ctx context.Context) (keys []KeyPath, err error) {
	entries, err := r.Entries(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys, nil
}

// All yields the keys of the folder while it is being listed.
// A listing failure is yielded once as the error of the last pair.
func (r *Reader) All(ctx context.Context) iter.Seq2[KeyPath, error] {
	return func(yield func(KeyPath, error) bool) {
		seen := map[KeyPath]bool{}
		err := Walk(ctx, r.service, r.folderID, r.opts.enumerate, func(e Entry) error {
			if seen[e.Key] {
				return nil
			}
			seen[e.Key] = true
			if !yield(e.Key, nil) {
				return SkipAll
			}
			return nil
		})
		if err != nil {
			yield("", fmt.Errorf("failed to list %s: %w", r.folderID, err))
		}
	}
}

// Len returns the number of keys of the folder.
func (r *Reader) Len(ctx context.Context) (int, error) {
	entries, err := r.Entries(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// URL grants perm on the file at key and returns a link to view the file.
// When perm is nil, anyone with the link is granted the reader role.
func (r *Reader) URL(ctx context.Context, key KeyPath, perm Permission) (link string, err error) {
	if perm == nil {
		perm = AnyonePermission(RoleReader, false)
	}
	file, err := r.mustLookup(ctx, key)
	if err != nil {
		return "", err
	}
	if err := r.share(ctx, file.ID, perm); err != nil {
		return "", fmt.Errorf("failed to share %q: %w", key, err)
	}
	if file.WebViewLink != "" {
		return file.WebViewLink, nil
	}
	f, found, err := findByID(ctx, r.service, file.ID)
	if err != nil {
		return "", fmt.Errorf("failed to get link of %q: %w", key, err)
	}
	if !found {
		return "", fmt.Errorf("file %q disappeared: %w", key, ErrNotFound)
	}
	return f.WebViewLink, nil
}

// share grants perm on the file. An existing permission of the same grantee gets perm's role
// instead of a second permission; an owner permission is left as is.
func (r *Reader) share(ctx context.Context, fileID FileID, perm Permission) error {
	perms, err := listPermissions(ctx, r.service, fileID)
	if err != nil {
		return err
	}
	for _, p := range perms {
		if !granteeMatch(p, perm.Grantee()) {
			continue
		}
		if Role(p.Role) == RoleOwner || Role(p.Role) == perm.Role() {
			return nil
		}
		return updatePermissionRole(ctx, r.service, fileID, p.Id, perm.Role())
	}
	_, err = createPermission(ctx, r.service, fileID, newDrivePermission(perm))
	return err
}

func (r *Reader) lookup(ctx context.Context, key KeyPath) (file RemoteFile, found bool, err error) {
	entries, err := r.Entries(ctx)
	if err != nil {
		return RemoteFile{}, false, err
	}
	for _, e := range entries {
		if e.Key == key {
			return e.File, true, nil
		}
	}
	return RemoteFile{}, false, nil
}

func (r *Reader) mustLookup(ctx context.Context, key KeyPath) (RemoteFile, error) {
	file, found, err := r.lookup(ctx, key)
	if err != nil {
		return RemoteFile{}, err
	}
	if !found {
		return RemoteFile{}, fmt.Errorf("key %q: %w", key, ErrNotFound)
	}
	return file, nil
}
