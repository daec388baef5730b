package download_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Jumpaku/go-drivemap"
	"github.com/Jumpaku/go-drivemap/download"
)

func TestCache_PutGet(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	c, err := download.NewCache(dir)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("NewCache() did not create %s: %v", dir, err)
	}

	if _, found, err := c.Get("id1"); err != nil || found {
		t.Fatalf("Get() before Put = found %v, error %v, want not found", found, err)
	}
	if err := c.Put("id1", []byte("one")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := c.Put("id1", []byte("two")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	data, found, err := c.Get("id1")
	if err != nil || !found {
		t.Fatalf("Get() = found %v, error %v, want found", found, err)
	}
	if string(data) != "two" {
		t.Fatalf("Get() = %q, want %q", data, "two")
	}
	if got, want := c.Path("id1"), filepath.Join(dir, "id1"); got != want {
		t.Fatalf("Path() = %q, want %q", got, want)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("cache directory has %d entries, want 1 (no temporary files left)", len(entries))
	}
}

func TestCache_InvalidID(t *testing.T) {
	c, err := download.NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	cases := []drivemap.FileID{"", ".", "..", "a/b", `a\b`}

	for _, id := range cases {
		id := id
		t.Run(string(id), func(t *testing.T) {
			if err := c.Put(id, []byte("x")); !errors.Is(err, drivemap.ErrInvalidURL) {
				t.Fatalf("Put(%q) error = %v, want ErrInvalidURL", id, err)
			}
			if _, _, err := c.Get(id); !errors.Is(err, drivemap.ErrInvalidURL) {
				t.Fatalf("Get(%q) error = %v, want ErrInvalidURL", id, err)
			}
		})
	}
}
