// Package download fetches publicly shared Google Drive files without authentication.
//
//	data, err := download.GetBytes(ctx, "https://drive.google.com/file/d/<id>/view")
//
// A Downloader with a Cache keeps every downloaded file on disk and serves later requests
// for the same file ID from there.
package download

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Jumpaku/go-drivemap"
	dmerrors "github.com/Jumpaku/go-drivemap/errors"
	"github.com/Jumpaku/go-drivemap/internal/logging"
	"golang.org/x/sync/singleflight"
)

// DefaultEndpoint is the anonymous download endpoint of Google Drive.
const DefaultEndpoint = "https://drive.google.com/uc"

// Downloader downloads publicly shared files. It is safe for concurrent use.
type Downloader struct {
	client   *http.Client
	endpoint string
	cache    *Cache
	logger   *slog.Logger
	group    singleflight.Group
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient sets the client used for downloads. A cookie jar is attached when the client has none.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		d.client = client
	}
}

// WithEndpoint replaces DefaultEndpoint.
func WithEndpoint(endpoint string) Option {
	return func(d *Downloader) {
		d.endpoint = endpoint
	}
}

// WithCache enables caching of downloaded files in c.
func WithCache(c *Cache) Option {
	return func(d *Downloader) {
		d.cache = c
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Downloader.
func New(opts ...Option) *Downloader {
	d := &Downloader{
		endpoint: DefaultEndpoint,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		d.client = &http.Client{}
	}
	if d.client.Jar == nil {
		client := *d.client
		jar, _ := cookiejar.New(nil)
		client.Jar = jar
		d.client = &client
	}
	return d
}

type getOptions struct {
	path string
}

// GetOption configures a single download.
type GetOption func(*getOptions)

// SaveTo additionally writes the downloaded content to path, creating its parent directories.
func SaveTo(path string) GetOption {
	return func(o *getOptions) {
		o.path = path
	}
}

// GetBytes downloads the publicly shared file at fileURL with a default Downloader.
func GetBytes(ctx context.Context, fileURL string, opts ...Option) ([]byte, error) {
	return New(opts...).GetBytes(ctx, fileURL)
}

// GetBytes returns the content of the publicly shared file at fileURL
// (e.g., https://drive.google.com/file/d/<id>/view).
//
// With a cache, a cached file is returned without a request; otherwise the downloaded content
// is cached first, then written to the SaveTo path if given, then returned.
// It fails with ErrInvalidURL for URLs without a file ID and with ErrFetch when Drive
// does not serve the file.
func (d *Downloader) GetBytes(ctx context.Context, fileURL string, opts ...GetOption) (data []byte, err error) {
	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}
	id, err := drivemap.FileIDFromURL(fileURL)
	if err != nil {
		return nil, err
	}

	data, err = d.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.path != "" {
		if err := writeFile(o.path, data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// GetFile downloads the publicly shared file at fileURL and returns the path of a local copy.
// With a cache, the path is the cache entry. Otherwise the content is written to a new temporary
// file which the caller should remove.
func (d *Downloader) GetFile(ctx context.Context, fileURL string) (path string, err error) {
	id, err := drivemap.FileIDFromURL(fileURL)
	if err != nil {
		return "", err
	}
	data, err := d.get(ctx, id)
	if err != nil {
		return "", err
	}
	if d.cache != nil {
		return d.cache.Path(id), nil
	}

	f, err := os.CreateTemp("", "drivemap-*-"+string(id))
	if err != nil {
		return "", dmerrors.NewIOError("failed to create temporary file", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", dmerrors.NewIOError("failed to write temporary file", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", dmerrors.NewIOError("failed to close temporary file", err)
	}
	return f.Name(), nil
}

func (d *Downloader) get(ctx context.Context, id drivemap.FileID) ([]byte, error) {
	logger := logging.WithOperation(d.logger, "download.get").With(logging.FileID(string(id)))
	if d.cache != nil {
		data, found, err := d.cache.Get(id)
		if err != nil {
			return nil, err
		}
		if found {
			logger.Debug("read cache", logging.Status(logging.StatusHit), slog.Int("bytes", len(data)))
			return data, nil
		}
		logger.Debug("read cache", logging.Status(logging.StatusMiss))
	}

	// The shared fetch outlives any single caller; each caller still stops waiting on its own ctx.
	fetchCtx := context.WithoutCancel(ctx)
	ch := d.group.DoChan(string(id), func() (any, error) {
		data, err := d.fetch(fetchCtx, id, logger)
		if err != nil {
			return nil, err
		}
		if d.cache != nil {
			if err := d.cache.Put(id, data); err != nil {
				return nil, err
			}
		}
		return data, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		logger.Debug("download abandoned", logging.Err(ctx.Err()))
		return nil, dmerrors.NewFetchError(fmt.Sprintf("download of %s was canceled", id), ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		logger.Debug("download failed", logging.Status(logging.StatusError), logging.Err(res.Err))
		return nil, res.Err
	}
	data := res.Val.([]byte)
	logger.Debug("downloaded file", logging.Status(logging.StatusSuccess), slog.Int("bytes", len(data)), slog.Bool("shared", res.Shared))
	return data, nil
}

func (d *Downloader) fetch(ctx context.Context, id drivemap.FileID, logger *slog.Logger) ([]byte, error) {
	u := d.endpoint + "?" + url.Values{"export": {"download"}, "id": {string(id)}}.Encode()
	res, body, err := d.do(ctx, u)
	if err != nil {
		return nil, err
	}
	if !isInterstitial(res, body) {
		return body, nil
	}

	logger.Debug("confirming download of a file too large for virus scanning")
	confirmed, err := confirmURL(res, u, body)
	if err != nil {
		return nil, err
	}
	res, body, err = d.do(ctx, confirmed)
	if err != nil {
		return nil, err
	}
	if isInterstitial(res, body) {
		return nil, dmerrors.NewFetchError(fmt.Sprintf("download of %s was not confirmed", id), nil)
	}
	return body, nil
}

func (d *Downloader) do(ctx context.Context, u string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, dmerrors.NewFetchError("failed to create request", err)
	}
	res, err := d.client.Do(req)
	if err != nil {
		return nil, nil, dmerrors.NewFetchError("failed to send request", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, nil, dmerrors.NewFetchError(fmt.Sprintf("unexpected status %s", res.Status), nil)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, nil, dmerrors.NewIOError("failed to read response body", err)
	}
	return res, body, nil
}

// isInterstitial reports whether res is the HTML page Drive serves instead of a file
// too large to be scanned for viruses.
func isInterstitial(res *http.Response, body []byte) bool {
	if res.Header.Get("Content-Disposition") != "" {
		return false
	}
	if !strings.HasPrefix(res.Header.Get("Content-Type"), "text/html") {
		return false
	}
	return bytes.Contains(body, []byte("download_warning")) || bytes.Contains(body, []byte("virus"))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return dmerrors.NewIOError("failed to create directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return dmerrors.NewIOError("failed to write file", err)
	}
	return nil
}
