// Package drivetest serves an in-memory subset of the Google Drive v3 REST API for tests.
//
// It understands the calls drivemap makes: files.list with parent/name/mimeType/trashed
// queries, files.get (metadata and alt=media), files.create and files.update (metadata only
// and multipart uploads), files.delete and permissions.create.
package drivetest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const FolderMimeType = "application/vnd.google-apps.folder"

type file struct {
	meta    drive.File
	content []byte
}

// Server is a fake Drive API backed by memory.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	files    map[string]*file
	order    []string
	perms    map[string][]*drive.Permission
	nextID   int
	pageSize int
	failures []failure
	requests []string
}

type failure struct {
	status int
	match  func(*http.Request) bool
}

// NewServer starts a Server which is closed when the test finishes.
func NewServer(t testing.TB) *Server {
	s := &Server{
		files: map[string]*file{},
		perms: map[string][]*drive.Permission{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Service returns a Drive client talking to s.
func (s *Server) Service(t testing.TB) *drive.Service {
	t.Helper()
	service, err := drive.NewService(context.Background(),
		option.WithEndpoint(s.URL+"/drive/v3/"),
		option.WithHTTPClient(s.Client()),
	)
	if err != nil {
		t.Fatalf("drive.NewService: %v", err)
	}
	return service
}

// SetPageSize limits how many files one files.list page returns. Zero returns everything at once.
func (s *Server) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = n
}

// FailRequests makes every request accepted by match fail with status.
func (s *Server) FailRequests(status int, match func(*http.Request) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{status: status, match: match})
}

// AddFolder creates a folder under parentID and returns its ID. An empty parentID creates a root folder.
func (s *Server) AddFolder(parentID, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(drive.File{Name: name, MimeType: FolderMimeType, Parents: parents(parentID)}, nil).meta.Id
}

// AddFile creates a file under parentID and returns its ID.
func (s *Server) AddFile(parentID, name, mimeType string, content []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(drive.File{Name: name, MimeType: mimeType, Parents: parents(parentID)}, content).meta.Id
}

// Content returns the content of the file with the given ID.
func (s *Server) Content(id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return nil, false
	}
	return append([]byte{}, f.content...), true
}

// File returns the metadata of the file with the given ID.
func (s *Server) File(id string) (drive.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return drive.File{}, false
	}
	return f.meta, true
}

// Children returns the non-trashed children of parentID in creation order.
func (s *Server) Children(parentID string) (children []drive.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		f := s.files[id]
		if !f.meta.Trashed && hasParent(f.meta, parentID) {
			children = append(children, f.meta)
		}
	}
	return children
}

// AddPermission seeds a permission on the file with the given ID and returns the permission ID.
func (s *Server) AddPermission(id string, perm drive.Permission) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	perm.Id = fmt.Sprintf("perm-%d", len(s.perms[id])+1)
	s.perms[id] = append(s.perms[id], &perm)
	return perm.Id
}

// Permissions returns the permissions of the file with the given ID.
func (s *Server) Permissions(id string) []*drive.Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*drive.Permission{}, s.perms[id]...)
}

// Requests returns the "METHOD path" lines of the requests served so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.requests...)
}

func parents(parentID string) []string {
	if parentID == "" {
		return nil
	}
	return []string{parentID}
}

func hasParent(f drive.File, parentID string) bool {
	for _, p := range f.Parents {
		if p == parentID {
			return true
		}
	}
	return false
}

func (s *Server) add(meta drive.File, content []byte) *file {
	s.nextID++
	meta.Id = fmt.Sprintf("id-%d", s.nextID)
	if meta.MimeType == "" {
		meta.MimeType = "application/octet-stream"
	}
	meta.Size = int64(len(content))
	meta.ModifiedTime = time.Now().UTC().Format(time.RFC3339)
	meta.WebViewLink = "https://drive.google.com/file/d/" + meta.Id + "/view"
	f := &file{meta: meta, content: content}
	s.files[meta.Id] = f
	s.order = append(s.order, meta.Id)
	return f
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r.Method+" "+r.URL.Path)
	for _, f := range s.failures {
		if f.match(r) {
			writeError(w, f.status, "injected failure")
			return
		}
	}

	p := r.URL.Path
	upload := strings.Contains(p, "/upload/")
	i := strings.Index(p, "/files")
	if i < 0 {
		writeError(w, http.StatusNotFound, "unknown path "+p)
		return
	}
	rest := strings.Trim(p[i+len("/files"):], "/")
	segments := []string{}
	if rest != "" {
		segments = strings.Split(rest, "/")
	}

	switch {
	case len(segments) == 0 && r.Method == http.MethodGet:
		s.list(w, r)
	case len(segments) == 0 && r.Method == http.MethodPost:
		s.create(w, r, upload)
	case len(segments) == 1 && r.Method == http.MethodGet:
		s.get(w, r, segments[0])
	case len(segments) == 1 && r.Method == http.MethodPatch:
		s.update(w, r, segments[0], upload)
	case len(segments) == 1 && r.Method == http.MethodDelete:
		s.delete(w, segments[0])
	case len(segments) == 2 && segments[1] == "permissions" && r.Method == http.MethodGet:
		s.listPermissions(w, segments[0])
	case len(segments) == 2 && segments[1] == "permissions" && r.Method == http.MethodPost:
		s.createPermission(w, r, segments[0])
	case len(segments) == 3 && segments[1] == "permissions" && r.Method == http.MethodPatch:
		s.updatePermission(w, r, segments[0], segments[2])
	default:
		writeError(w, http.StatusNotFound, "unsupported request "+r.Method+" "+p)
	}
}

var (
	quoted    = `'((?:[^'\\]|\\.)*)'`
	parentsRe = regexp.MustCompile(quoted + ` in parents`)
	nameRe    = regexp.MustCompile(`(?:^|\s)name = ` + quoted)
	mimeEqRe  = regexp.MustCompile(`mimeType = ` + quoted)
	mimeNeRe  = regexp.MustCompile(`mimeType != ` + quoted)
)

func unescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	var matches []drive.File
	for _, id := range s.order {
		f := s.files[id].meta
		if strings.Contains(q, "trashed = false") && f.Trashed {
			continue
		}
		if m := parentsRe.FindStringSubmatch(q); m != nil && !hasParent(f, unescape(m[1])) {
			continue
		}
		if m := nameRe.FindStringSubmatch(q); m != nil && f.Name != unescape(m[1]) {
			continue
		}
		if m := mimeEqRe.FindStringSubmatch(q); m != nil && f.MimeType != unescape(m[1]) {
			continue
		}
		if m := mimeNeRe.FindStringSubmatch(q); m != nil && f.MimeType == unescape(m[1]) {
			continue
		}
		matches = append(matches, f)
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("pageToken"))
	if offset > len(matches) {
		offset = len(matches)
	}
	matches = matches[offset:]
	list := drive.FileList{}
	if s.pageSize > 0 && len(matches) > s.pageSize {
		matches = matches[:s.pageSize]
		list.NextPageToken = strconv.Itoa(offset + s.pageSize)
	}
	for i := range matches {
		list.Files = append(list.Files, &matches[i])
	}
	writeJSON(w, list)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request, id string) {
	f, ok := s.files[id]
	if !ok {
		writeError(w, http.StatusNotFound, "File not found: "+id)
		return
	}
	if r.URL.Query().Get("alt") == "media" {
		w.Header().Set("Content-Type", f.meta.MimeType)
		_, _ = w.Write(f.content)
		return
	}
	writeJSON(w, f.meta)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, upload bool) {
	meta, content, err := readBody(r, upload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, p := range meta.Parents {
		if _, ok := s.files[p]; !ok {
			writeError(w, http.StatusNotFound, "File not found: "+p)
			return
		}
	}
	f := s.add(drive.File{Name: meta.Name, MimeType: meta.MimeType, Parents: meta.Parents}, content)
	writeJSON(w, f.meta)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, id string, upload bool) {
	f, ok := s.files[id]
	if !ok {
		writeError(w, http.StatusNotFound, "File not found: "+id)
		return
	}
	meta, content, err := readBody(r, upload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if meta.Name != "" {
		f.meta.Name = meta.Name
	}
	if meta.Trashed {
		f.meta.Trashed = true
	}
	if upload {
		f.content = content
		f.meta.Size = int64(len(content))
	}
	f.meta.ModifiedTime = time.Now().UTC().Format(time.RFC3339)
	writeJSON(w, f.meta)
}

func (s *Server) delete(w http.ResponseWriter, id string) {
	if _, ok := s.files[id]; !ok {
		writeError(w, http.StatusNotFound, "File not found: "+id)
		return
	}
	delete(s.files, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listPermissions(w http.ResponseWriter, id string) {
	if _, ok := s.files[id]; !ok {
		writeError(w, http.StatusNotFound, "File not found: "+id)
		return
	}
	writeJSON(w, drive.PermissionList{Permissions: append([]*drive.Permission{}, s.perms[id]...)})
}

func (s *Server) updatePermission(w http.ResponseWriter, r *http.Request, id, permID string) {
	var update drive.Permission
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, perm := range s.perms[id] {
		if perm.Id != permID {
			continue
		}
		if perm.Role == "owner" {
			writeError(w, http.StatusForbidden, "The owner role cannot be changed")
			return
		}
		if update.Role != "" {
			perm.Role = update.Role
		}
		writeJSON(w, perm)
		return
	}
	writeError(w, http.StatusNotFound, "Permission not found: "+permID)
}

func (s *Server) createPermission(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := s.files[id]; !ok {
		writeError(w, http.StatusNotFound, "File not found: "+id)
		return
	}
	var perm drive.Permission
	if err := json.NewDecoder(r.Body).Decode(&perm); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	perm.Id = fmt.Sprintf("perm-%d", len(s.perms[id])+1)
	s.perms[id] = append(s.perms[id], &perm)
	writeJSON(w, perm)
}

// readBody decodes the file metadata of a request and, for uploads, the media part of its multipart/related body.
func readBody(r *http.Request, upload bool) (meta drive.File, content []byte, err error) {
	if !upload {
		if err := json.NewDecoder(r.Body).Decode(&meta); err != nil && err != io.EOF {
			return drive.File{}, nil, fmt.Errorf("decoding metadata: %w", err)
		}
		return meta, nil, nil
	}
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return drive.File{}, nil, fmt.Errorf("parsing content type: %w", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		content, err = io.ReadAll(r.Body)
		return meta, content, err
	}
	mr := multipart.NewReader(r.Body, params["boundary"])
	for i := 0; ; i++ {
		part, err := mr.NextPart()
		if err == io.EOF {
			return meta, content, nil
		}
		if err != nil {
			return drive.File{}, nil, fmt.Errorf("reading multipart body: %w", err)
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return drive.File{}, nil, fmt.Errorf("reading part: %w", err)
		}
		if i == 0 {
			if len(data) > 0 {
				if err := json.Unmarshal(data, &meta); err != nil {
					return drive.File{}, nil, fmt.Errorf("decoding metadata part: %w", err)
				}
			}
			continue
		}
		content = data
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": status, "message": msg},
	})
}
