package drivemap

import (
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
)

const (
	mimeTypeGoogleAppFolder = "application/vnd.google-apps.folder"
	mimeTypePrefixGoogleApp = "application/vnd.google-apps."
)

// RemoteFile is the metadata of a file or folder in Google Drive.
type RemoteFile struct {
	Name        string
	ID          FileID
	Size        int64
	Mime        string
	ModTime     time.Time
	Parents     []FileID
	WebViewLink string
}

func (i RemoteFile) IsFolder() bool {
	return i.Mime == mimeTypeGoogleAppFolder
}

// IsAppFile reports whether the file is a Google Docs, Sheets, etc. document which has no binary content.
func (i RemoteFile) IsAppFile() bool {
	return strings.HasPrefix(i.Mime, mimeTypePrefixGoogleApp)
}

func (i RemoteFile) IsHidden() bool {
	return strings.HasPrefix(i.Name, ".")
}

func newRemoteFile(f *drive.File) RemoteFile {
	modTime, _ := time.Parse(time.RFC3339, f.ModifiedTime)
	var parents []FileID
	for _, p := range f.Parents {
		parents = append(parents, FileID(p))
	}
	return RemoteFile{
		Name:        f.Name,
		ID:          FileID(f.Id),
		Size:        f.Size,
		Mime:        f.MimeType,
		ModTime:     modTime,
		Parents:     parents,
		WebViewLink: f.WebViewLink,
	}
}
