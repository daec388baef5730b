package download_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Jumpaku/go-drivemap"
	"github.com/Jumpaku/go-drivemap/download"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fileURL = "https://drive.google.com/file/d/abc123/view?usp=sharing"

type fakeDrive struct {
	*httptest.Server
	hits atomic.Int32
}

func newFakeDrive(t *testing.T, handler http.HandlerFunc) *fakeDrive {
	t.Helper()
	f := &fakeDrive{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeDrive) downloader(opts ...download.Option) *download.Downloader {
	return download.New(append([]download.Option{
		download.WithHTTPClient(f.Client()),
		download.WithEndpoint(f.URL + "/uc"),
	}, opts...)...)
}

func serveFile(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="a.bin"`)
	_, _ = fmt.Fprint(w, content)
}

func serveWarning(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprint(w, body)
}

func TestGetBytes(t *testing.T) {
	f := newFakeDrive(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/uc" || r.URL.Query().Get("id") != "abc123" || r.URL.Query().Get("export") != "download" {
			http.NotFound(w, r)
			return
		}
		serveFile(w, "content")
	})

	got, err := f.downloader().GetBytes(context.Background(), fileURL)
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), got)
	assert.EqualValues(t, 1, f.hits.Load())
}

func TestGetBytes_PackageLevel(t *testing.T) {
	f := newFakeDrive(t, func(w http.ResponseWriter, r *http.Request) {
		serveFile(w, "content")
	})

	got, err := download.GetBytes(context.Background(), fileURL,
		download.WithHTTPClient(f.Client()),
		download.WithEndpoint(f.URL+"/uc"))
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), got)
}

func TestGetBytes_Errors(t *testing.T) {
	cases := []struct {
		name   string
		url    string
		status int
		want   error
	}{
		{"not-a-file-url", "https://drive.google.com/drive/folders/abc123", http.StatusOK, drivemap.ErrInvalidURL},
		{"not-found", fileURL, http.StatusNotFound, drivemap.ErrFetch},
		{"forbidden", fileURL, http.StatusForbidden, drivemap.ErrFetch},
		{"server-error", fileURL, http.StatusInternalServerError, drivemap.ErrFetch},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			f := newFakeDrive(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(c.status)
			})
			_, err := f.downloader().GetBytes(context.Background(), c.url)
			assert.ErrorIs(t, err, c.want)
		})
	}
}

func TestGetBytes_Cache(t *testing.T) {
	ctx := context.Background()
	f := newFakeDrive(t, func(w http.ResponseWriter, r *http.Request) {
		serveFile(w, "cached content")
	})
	cache, err := download.NewCache(filepath.Join(t.TempDir(), "cached"))
	require.NoError(t, err)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	d := f.downloader(download.WithCache(cache), download.WithLogger(logger))

	first, err := d.GetBytes(ctx, fileURL)
	require.NoError(t, err)
	second, err := d.GetBytes(ctx, fileURL)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, f.hits.Load())
	assert.Contains(t, logs.String(), "status=miss")
	assert.Contains(t, logs.String(), "status=success")
	assert.Contains(t, logs.String(), "status=hit")

	third, err := f.downloader(download.WithCache(cache)).GetBytes(ctx, fileURL)
	require.NoError(t, err)
	assert.Equal(t, first, third)
	assert.EqualValues(t, 1, f.hits.Load())

	onDisk, err := os.ReadFile(filepath.Join(cache.Dir(), "abc123"))
	require.NoError(t, err)
	assert.Equal(t, []byte("cached content"), onDisk)
}

// blockingDrive serves "content" once release is called and reports each request on started.
func blockingDrive(t *testing.T) (f *fakeDrive, started <-chan struct{}, release func()) {
	t.Helper()
	startedCh := make(chan struct{}, 8)
	releaseCh := make(chan struct{})
	var once sync.Once
	release = func() { once.Do(func() { close(releaseCh) }) }
	f = newFakeDrive(t, func(w http.ResponseWriter, r *http.Request) {
		startedCh <- struct{}{}
		<-releaseCh
		serveFile(w, "content")
	})
	t.Cleanup(release)
	return f, startedCh, release
}

type result struct {
	data []byte
	err  error
}

func getAsync(ctx context.Context, d *download.Downloader) <-chan result {
	ch := make(chan result, 1)
	go func() {
		data, err := d.GetBytes(ctx, fileURL)
		ch <- result{data, err}
	}()
	return ch
}

func TestGetBytes_ConcurrentCallsShareOneFetch(t *testing.T) {
	f, started, release := blockingDrive(t)
	d := f.downloader()

	first := getAsync(context.Background(), d)
	<-started
	second := getAsync(context.Background(), d)
	time.Sleep(100 * time.Millisecond)
	release()

	r1, r2 := <-first, <-second
	require.NoError(t, r1.err)
	require.NoError(t, r2.err)
	assert.Equal(t, []byte("content"), r1.data)
	assert.Equal(t, r1.data, r2.data)
	assert.EqualValues(t, 1, f.hits.Load())
}

func TestGetBytes_CanceledCallerDoesNotFailOthers(t *testing.T) {
	f, started, release := blockingDrive(t)
	d := f.downloader()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := getAsync(ctx, d)
	<-started
	second := getAsync(context.Background(), d)
	time.Sleep(100 * time.Millisecond)

	cancel()
	r1 := <-first
	assert.ErrorIs(t, r1.err, context.Canceled)
	assert.ErrorIs(t, r1.err, drivemap.ErrFetch)

	release()
	r2 := <-second
	require.NoError(t, r2.err)
	assert.Equal(t, []byte("content"), r2.data)
	assert.EqualValues(t, 1, f.hits.Load())
}

func TestGetBytes_SaveTo(t *testing.T) {
	f := newFakeDrive(t, func(w http.ResponseWriter, r *http.Request) {
		serveFile(w, "saved")
	})
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.bin")

	got, err := f.downloader().GetBytes(context.Background(), fileURL, download.SaveTo(path))
	require.NoError(t, err)
	assert.Equal(t, []byte("saved"), got)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("saved"), onDisk)
}

func TestGetBytes_ConfirmByCookie(t *testing.T) {
	f := newFakeDrive(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("confirm") == "CODE" {
			serveFile(w, "large")
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "download_warning_13058_abc123", Value: "CODE"})
		serveWarning(w, "<html><body>Google Drive can't scan this file for viruses.</body></html>")
	})

	got, err := f.downloader().GetBytes(context.Background(), fileURL)
	require.NoError(t, err)
	assert.Equal(t, []byte("large"), got)
	assert.EqualValues(t, 2, f.hits.Load())
}

func TestGetBytes_ConfirmByForm(t *testing.T) {
	const page = `<!DOCTYPE html><html><body>
<p>Google Drive can't scan this file for viruses.</p>
<form id="search" action="/search"><input type="hidden" name="q" value="x"></form>
<form id="download-form" action="/download" method="get">
<input type="submit" value="Download anyway">
<input type="hidden" name="id" value="abc123">
<input type="hidden" name="export" value="download">
<input type="hidden" name="confirm" value="t">
<input type="hidden" name="uuid" value="0b6f">
</form></body></html>`
	f := newFakeDrive(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path == "/download" && q.Get("id") == "abc123" && q.Get("confirm") == "t" && q.Get("uuid") == "0b6f" {
			serveFile(w, "large")
			return
		}
		if r.URL.Path == "/uc" {
			serveWarning(w, page)
			return
		}
		http.NotFound(w, r)
	})

	got, err := f.downloader().GetBytes(context.Background(), fileURL)
	require.NoError(t, err)
	assert.Equal(t, []byte("large"), got)
}

func TestGetBytes_ConfirmFails(t *testing.T) {
	cases := []struct {
		name string
		page string
	}{
		{"no-form", "<html><body>virus scan warning</body></html>"},
		{"repeated-warning", `<html><body>virus<form action="/uc"><input type="hidden" name="id" value="abc123"></form></body></html>`},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			f := newFakeDrive(t, func(w http.ResponseWriter, r *http.Request) {
				serveWarning(w, c.page)
			})
			_, err := f.downloader().GetBytes(context.Background(), fileURL)
			assert.ErrorIs(t, err, drivemap.ErrFetch)
		})
	}
}

func TestGetBytes_HTMLFile(t *testing.T) {
	f := newFakeDrive(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Disposition", `attachment; filename="virus.html"`)
		_, _ = fmt.Fprint(w, "<html>virus</html>")
	})

	got, err := f.downloader().GetBytes(context.Background(), fileURL)
	require.NoError(t, err)
	assert.Equal(t, []byte("<html>virus</html>"), got)
	assert.EqualValues(t, 1, f.hits.Load())
}

func TestGetFile(t *testing.T) {
	ctx := context.Background()

	t.Run("cached", func(t *testing.T) {
		f := newFakeDrive(t, func(w http.ResponseWriter, r *http.Request) {
			serveFile(w, "content")
		})
		cache, err := download.NewCache(t.TempDir())
		require.NoError(t, err)

		path, err := f.downloader(download.WithCache(cache)).GetFile(ctx, fileURL)
		require.NoError(t, err)
		assert.Equal(t, cache.Path("abc123"), path)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("content"), data)
	})

	t.Run("temporary", func(t *testing.T) {
		f := newFakeDrive(t, func(w http.ResponseWriter, r *http.Request) {
			serveFile(w, "content")
		})

		path, err := f.downloader().GetFile(ctx, fileURL)
		require.NoError(t, err)
		t.Cleanup(func() { _ = os.Remove(path) })
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("content"), data)
	})
}
