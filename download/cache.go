package download

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Jumpaku/go-drivemap"
	dmerrors "github.com/Jumpaku/go-drivemap/errors"
	"github.com/Jumpaku/go-drivemap/internal/atomicfile"
)

// Cache stores downloaded files under a directory, one file per Drive file ID.
// Entries never expire.
type Cache struct {
	dir string
}

// NewCache returns a Cache rooted at dir, creating the directory if needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, dmerrors.NewIOError("failed to create cache directory", err)
	}
	return &Cache{dir: dir}, nil
}

// DefaultCache returns the Cache in <user cache dir>/drivemap/cached.
func DefaultCache() (*Cache, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, dmerrors.NewIOError("failed to locate user cache directory", err)
	}
	return NewCache(filepath.Join(base, "drivemap", "cached"))
}

func (c *Cache) Dir() string {
	return c.dir
}

// Path returns where the content of id is cached.
func (c *Cache) Path(id drivemap.FileID) string {
	return filepath.Join(c.dir, string(id))
}

// Get returns the cached content of id. found is false when id was never cached.
func (c *Cache) Get(id drivemap.FileID) (data []byte, found bool, err error) {
	if err := checkID(id); err != nil {
		return nil, false, err
	}
	data, err = os.ReadFile(c.Path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, dmerrors.NewIOError("failed to read cache entry", err)
	}
	return data, true, nil
}

// Put caches data as the content of id.
// The entry is written to a temporary file and renamed into place, so readers never see a partial entry.
func (c *Cache) Put(id drivemap.FileID, data []byte) error {
	if err := checkID(id); err != nil {
		return err
	}
	return atomicfile.Write(c.Path(id), data, 0o755, 0o644)
}

func checkID(id drivemap.FileID) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(string(id), `/\`) {
		return fmt.Errorf("file ID %q cannot be used as a cache entry: %w", id, drivemap.ErrInvalidURL)
	}
	return nil
}
