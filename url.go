package drivemap

import (
	"fmt"
	"regexp"
)

var (
	fileURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`drive\.google\.com/file/d/([^/?#]+)`),
		regexp.MustCompile(`drive\.google\.com/open\?id=([^&#]+)`),
		regexp.MustCompile(`drive\.google\.com/uc\?(?:.*&)?id=([^&#]+)`),
	}
	folderURLPattern = regexp.MustCompile(`drive\.google\.com/drive/(?:u/\d+/)?folders/([^/?#]+)`)
)

// FileIDFromURL extracts the file ID from a Drive file-sharing URL such as
// https://drive.google.com/file/d/<id>/view.
// The legacy open?id=<id> and uc?id=<id> link shapes are accepted as well.
func FileIDFromURL(u string) (FileID, error) {
	for _, p := range fileURLPatterns {
		if m := p.FindStringSubmatch(u); m != nil {
			return FileID(m[1]), nil
		}
	}
	return "", fmt.Errorf("could not extract file ID from %q: %w", u, ErrInvalidURL)
}

// FolderIDFromURL extracts the folder ID from a Drive folder-sharing URL such as
// https://drive.google.com/drive/folders/<id>.
func FolderIDFromURL(u string) (FileID, error) {
	if m := folderURLPattern.FindStringSubmatch(u); m != nil {
		return FileID(m[1]), nil
	}
	return "", fmt.Errorf("could not extract folder ID from %q: %w", u, ErrInvalidURL)
}
