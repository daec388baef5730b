// Package atomicfile writes files so that readers see either the old or the new content.
package atomicfile

import (
	"os"
	"path/filepath"

	dmerrors "github.com/Jumpaku/go-drivemap/errors"
)

// Write stores data at path through a temporary file in the same directory, which is
// synced and renamed into place. Missing parent directories are created with dirPerm.
// The file gets filePerm before any data is written.
func Write(path string, data []byte, dirPerm, filePerm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return dmerrors.NewIOError("failed to create directory "+dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return dmerrors.NewIOError("failed to create temporary file", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(filePerm); err != nil {
		return dmerrors.NewIOError("failed to set file permissions", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return dmerrors.NewIOError("failed to write temporary file", err)
	}
	if err := tmp.Sync(); err != nil {
		return dmerrors.NewIOError("failed to sync temporary file", err)
	}
	if err := tmp.Close(); err != nil {
		return dmerrors.NewIOError("failed to close temporary file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return dmerrors.NewIOError("failed to rename temporary file", err)
	}
	success = true
	return nil
}
