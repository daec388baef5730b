package drivemap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jumpaku/go-drivemap/internal/logging"
	"google.golang.org/api/drive/v3"
)

// Store is a read-write key/value view of a Google Drive folder.
// It extends Reader with Set and Delete.
//
// Writes are not transactional: if Set fails after creating some of the folders along a key,
// those folders are left in place.
type Store struct {
	*Reader
}

var _ MutableMapping = (*Store)(nil)

// NewStore creates a Store for the folder shared at folderURL.
func NewStore(service *drive.Service, folderURL string, opts ...Option) (*Store, error) {
	r, err := New(service, folderURL, opts...)
	if err != nil {
		return nil, err
	}
	return &Store{Reader: r}, nil
}

// NewStoreWithID creates a Store for the folder with the given folderID.
func NewStoreWithID(service *drive.Service, folderID FileID, opts ...Option) *Store {
	return &Store{Reader: NewWithID(service, folderID, opts...)}
}

// Set writes value to the file at key.
// Folders along key are created when missing. An existing file at key is overwritten in place,
// otherwise a new file is created.
func (s *Store) Set(ctx context.Context, key KeyPath, value []byte) (err error) {
	logger := logging.WithOperation(s.opts.logger, "store.set")
	parts, err := validateAndSplitKey(key)
	if err != nil {
		return err
	}
	parentID, err := s.mkdirAll(ctx, parts[:len(parts)-1])
	if err != nil {
		return fmt.Errorf("failed to create folders for %q: %w", key, err)
	}

	name := parts[len(parts)-1]
	files, err := findFilesByNameIn(ctx, s.service, parentID, name)
	if err != nil {
		return fmt.Errorf("failed to find %q: %w", key, err)
	}
	if len(files) > 0 {
		// The listing maps a duplicated path to its last file, so that is the one overwritten.
		target := files[len(files)-1]
		if len(files) > 1 {
			logger.Warn("multiple files share the key, overwriting the last one", logging.Key(string(key)), logging.Count(len(files)))
		}
		if _, err := uploadFile(ctx, s.service, FileID(target.Id), value); err != nil {
			return fmt.Errorf("failed to write %q: %w", key, err)
		}
		logger.Debug("overwrote file", logging.Key(string(key)), logging.FileID(target.Id), slog.Int("bytes", len(value)))
		return nil
	}

	f, err := createFileIn(ctx, s.service, parentID, name, value)
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	logger.Debug("created file", logging.Key(string(key)), logging.FileID(f.Id), slog.Int("bytes", len(value)))
	return nil
}

// Delete removes the file at key. It fails with ErrNotFound if key is absent.
// Folders emptied by the removal are kept.
func (s *Store) Delete(ctx context.Context, key KeyPath) (err error) {
	file, err := s.mustLookup(ctx, key)
	if err != nil {
		return err
	}
	if err := removeFile(ctx, s.service, file.ID, s.opts.moveToTrash); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	logging.WithOperation(s.opts.logger, "store.delete").Debug("removed file",
		logging.Key(string(key)), logging.FileID(string(file.ID)), slog.Bool("trash", s.opts.moveToTrash))
	return nil
}

// mkdirAll resolves the folders along parts from the root folder, creating the missing ones,
// and returns the ID of the last one.
func (s *Store) mkdirAll(ctx context.Context, parts []string) (FileID, error) {
	currentID := s.folderID
	for _, p := range parts {
		folders, err := findFoldersByNameIn(ctx, s.service, currentID, p)
		if err != nil {
			return "", fmt.Errorf("failed to find folder '%s' in '%s': %w", p, currentID, err)
		}
		if len(folders) > 1 {
			return "", fmt.Errorf("multiple folders '%s' already exist in '%s': %w", p, currentID, ErrAlreadyExists)
		}
		if len(folders) == 1 {
			currentID = FileID(folders[0].Id)
			continue
		}
		folder, err := createDirIn(ctx, s.service, currentID, p)
		if err != nil {
			return "", fmt.Errorf("failed to create folder '%s' in '%s': %w", p, currentID, err)
		}
		s.opts.logger.Debug("created folder", slog.String("name", p), logging.FileID(folder.Id))
		currentID = FileID(folder.Id)
	}
	return currentID, nil
}
