package drivemap

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"path"
	"sync"
	"time"
)

// FS returns a read-only fs.FS over the keys present when FS is called.
// Folders along the keys become directories and file contents are downloaded when opened.
func (r *Reader) FS(ctx context.Context) (fs.FS, error) {
	entries, err := r.Entries(ctx)
	if err != nil {
		return nil, err
	}
	fsys := &mapFS{
		ctx:    ctx,
		reader: r,
		files:  map[string]RemoteFile{},
		dirs:   map[string][]string{".": nil},
	}
	for _, e := range entries {
		name := string(e.Key)
		fsys.files[name] = e.File
		for child := name; child != "."; child = path.Dir(child) {
			fsys.addChild(path.Dir(child), path.Base(child))
		}
	}
	return fsys, nil
}

type mapFS struct {
	ctx    context.Context
	reader *Reader
	files  map[string]RemoteFile
	dirs   map[string][]string
}

var _ fs.FS = (*mapFS)(nil)

func (m *mapFS) addChild(dir, name string) {
	children, ok := m.dirs[dir]
	for _, c := range children {
		if c == name {
			return
		}
	}
	if !ok {
		m.dirs[dir] = nil
	}
	m.dirs[dir] = append(children, name)
}

func (m *mapFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if children, ok := m.dirs[name]; ok {
		entries := make([]fs.DirEntry, 0, len(children))
		for _, c := range children {
			entries = append(entries, m.entry(path.Join(name, c)))
		}
		return &mapDir{info: dirInfo(name), entries: entries}, nil
	}
	file, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	data, err := downloadFile(m.ctx, m.reader.service, file)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return &mapFile{info: fileInfo{file: file}, content: bytes.NewReader(data)}, nil
}

func (m *mapFS) entry(name string) fs.DirEntry {
	if _, ok := m.dirs[name]; ok {
		return fs.FileInfoToDirEntry(dirInfo(name))
	}
	return fs.FileInfoToDirEntry(fileInfo{file: m.files[name]})
}

// fileInfo implements fs.FileInfo for a remote file.
type fileInfo struct {
	file RemoteFile
}

var _ fs.FileInfo = fileInfo{}

func (fi fileInfo) Name() string       { return fi.file.Name }
func (fi fileInfo) Size() int64        { return fi.file.Size }
func (fi fileInfo) Mode() fs.FileMode  { return 0444 }
func (fi fileInfo) ModTime() time.Time { return fi.file.ModTime }
func (fi fileInfo) IsDir() bool        { return false }

// Sys returns the underlying RemoteFile.
func (fi fileInfo) Sys() any { return fi.file }

// dirInfo implements fs.FileInfo for a folder along the keys.
type dirInfo string

func (d dirInfo) Name() string       { return path.Base(string(d)) }
func (d dirInfo) Size() int64        { return 0 }
func (d dirInfo) Mode() fs.FileMode  { return fs.ModeDir | 0555 }
func (d dirInfo) ModTime() time.Time { return time.Time{} }
func (d dirInfo) IsDir() bool        { return true }
func (d dirInfo) Sys() any           { return nil }

// mapFile implements fs.File for a downloaded file.
type mapFile struct {
	info    fileInfo
	content *bytes.Reader
}

func (f *mapFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *mapFile) Read(b []byte) (int, error) { return f.content.Read(b) }
func (f *mapFile) Close() error               { return nil }

// mapDir implements fs.ReadDirFile. ReadDir is protected by a mutex for concurrent use.
type mapDir struct {
	info    dirInfo
	entries []fs.DirEntry
	offset  int
	mu      sync.Mutex
}

var _ fs.ReadDirFile = (*mapDir)(nil)

func (d *mapDir) Stat() (fs.FileInfo, error) { return d.info, nil }

func (d *mapDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: string(d.info), Err: fs.ErrInvalid}
}

func (d *mapDir) Close() error { return nil }

func (d *mapDir) ReadDir(n int) ([]fs.DirEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n <= 0 {
		entries := d.entries[d.offset:]
		d.offset = len(d.entries)
		return entries, nil
	}

	if d.offset >= len(d.entries) {
		return nil, io.EOF
	}

	end := min(d.offset+n, len(d.entries))
	entries := d.entries[d.offset:end]
	d.offset = end
	return entries, nil
}
