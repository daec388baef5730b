package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	dmerrors "github.com/Jumpaku/go-drivemap/errors"
	"github.com/Jumpaku/go-drivemap/internal/atomicfile"
	"golang.org/x/oauth2"
)

// CredentialStore persists the OAuth token between runs.
type CredentialStore interface {
	// Load returns the saved token, or nil when none is saved.
	Load() (*oauth2.Token, error)
	Save(token *oauth2.Token) error
	// Clear removes the saved token. Clearing an empty store is not an error.
	Clear() error
}

const (
	filePerms = 0o600
	dirPerms  = 0o700
)

// FileStore is a CredentialStore keeping the token in a JSON file readable by the owner only.
type FileStore struct {
	path string
}

var _ CredentialStore = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultCredentialsPath returns <user config dir>/drivemap/credentials.json.
func DefaultCredentialsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", dmerrors.NewIOError("failed to locate user config directory", err)
	}
	return filepath.Join(dir, "drivemap", "credentials.json"), nil
}

func (s *FileStore) Path() string {
	return s.path
}

type tokenFile struct {
	Token *oauth2.Token `json:"token"`
}

func (s *FileStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, dmerrors.NewIOError(fmt.Sprintf("failed to read %s", s.path), err)
	}
	var f tokenFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, dmerrors.NewIOError(fmt.Sprintf("failed to decode %s", s.path), err)
	}
	if f.Token == nil {
		return nil, dmerrors.NewAuthError(fmt.Sprintf("%s has no token, login again", s.path), nil)
	}
	return f.Token, nil
}

// Save writes the token atomically with 0600 permissions.
func (s *FileStore) Save(token *oauth2.Token) error {
	data, err := json.MarshalIndent(tokenFile{Token: token}, "", "  ")
	if err != nil {
		return dmerrors.NewIOError("failed to encode token", err)
	}
	return atomicfile.Write(s.path, data, dirPerms, filePerms)
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return dmerrors.NewIOError(fmt.Sprintf("failed to remove %s", s.path), err)
	}
	return nil
}
