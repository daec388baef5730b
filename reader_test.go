package drivemap_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/Jumpaku/go-drivemap"
	"github.com/Jumpaku/go-drivemap/internal/drivetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
)

const docMimeType = "application/vnd.google-apps.document"

type fixture struct {
	srv    *drivetest.Server
	rootID string
	ids    map[string]string
}

// newFixture seeds the folder
//
//	a.txt
//	sub/b.txt
//	sub/deeper/c.txt
//	.hidden
//	.git/config
//	notes (Google Docs)
func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := drivetest.NewServer(t)
	root := srv.AddFolder("", "root")
	ids := map[string]string{}
	ids["a.txt"] = srv.AddFile(root, "a.txt", "text/plain", []byte("A"))
	sub := srv.AddFolder(root, "sub")
	ids["sub/b.txt"] = srv.AddFile(sub, "b.txt", "text/plain", []byte("B"))
	deeper := srv.AddFolder(sub, "deeper")
	ids["sub/deeper/c.txt"] = srv.AddFile(deeper, "c.txt", "text/plain", []byte("C"))
	ids[".hidden"] = srv.AddFile(root, ".hidden", "text/plain", []byte("H"))
	git := srv.AddFolder(root, ".git")
	ids[".git/config"] = srv.AddFile(git, "config", "text/plain", []byte("G"))
	ids["notes"] = srv.AddFile(root, "notes", docMimeType, nil)
	return &fixture{srv: srv, rootID: root, ids: ids}
}

func (f *fixture) reader(t *testing.T, opts ...drivemap.Option) *drivemap.Reader {
	return drivemap.NewWithID(f.srv.Service(t), drivemap.FileID(f.rootID), opts...)
}

func isListRequest(r *http.Request) bool {
	return r.Method == http.MethodGet && r.URL.Query().Get("q") != ""
}

func TestReader_Keys(t *testing.T) {
	cases := []struct {
		name string
		opts []drivemap.Option
		want []drivemap.KeyPath
	}{
		{
			name: "unbounded",
			want: []drivemap.KeyPath{"a.txt", "sub/b.txt", "sub/deeper/c.txt", "notes"},
		},
		{
			name: "root-only",
			opts: []drivemap.Option{drivemap.WithMaxLevels(0)},
			want: []drivemap.KeyPath{"a.txt", "notes"},
		},
		{
			name: "one-level",
			opts: []drivemap.Option{drivemap.WithMaxLevels(1)},
			want: []drivemap.KeyPath{"a.txt", "sub/b.txt", "notes"},
		},
		{
			name: "negative-is-unbounded",
			opts: []drivemap.Option{drivemap.WithMaxLevels(-5)},
			want: []drivemap.KeyPath{"a.txt", "sub/b.txt", "sub/deeper/c.txt", "notes"},
		},
		{
			name: "hidden",
			opts: []drivemap.Option{drivemap.WithIncludeHidden(true)},
			want: []drivemap.KeyPath{"a.txt", "sub/b.txt", "sub/deeper/c.txt", ".hidden", ".git/config", "notes"},
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t)
			got, err := f.reader(t, c.opts...).Keys(context.Background())
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestReader_KeysPaged(t *testing.T) {
	f := newFixture(t)
	f.srv.SetPageSize(1)

	got, err := f.reader(t).Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []drivemap.KeyPath{"a.txt", "sub/b.txt", "sub/deeper/c.txt", "notes"}, got)
}

func TestReader_Get(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.reader(t)

	got, err := r.Get(ctx, "sub/b.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("B"), got)

	_, err = r.Get(ctx, "missing.txt")
	assert.ErrorIs(t, err, drivemap.ErrNotFound)

	_, err = r.Get(ctx, ".hidden")
	assert.ErrorIs(t, err, drivemap.ErrNotFound)

	_, err = r.Get(ctx, "notes")
	assert.ErrorIs(t, err, drivemap.ErrNotReadable)
}

func TestReader_GetDeniedDownload(t *testing.T) {
	f := newFixture(t)
	f.srv.FailRequests(http.StatusForbidden, func(r *http.Request) bool {
		return r.URL.Query().Get("alt") == "media"
	})

	_, err := f.reader(t).Get(context.Background(), "a.txt")
	assert.ErrorIs(t, err, drivemap.ErrPermission)
	assert.ErrorIs(t, err, drivemap.ErrAPIError)
}

func TestReader_ContainsLen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.reader(t, drivemap.WithMaxLevels(1))

	ok, err := r.Contains(ctx, "sub/b.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Contains(ctx, "sub/deeper/c.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := r.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestReader_DuplicateNames(t *testing.T) {
	ctx := context.Background()
	srv := drivetest.NewServer(t)
	root := srv.AddFolder("", "root")
	srv.AddFile(root, "dup.txt", "text/plain", []byte("first"))
	srv.AddFile(root, "other.txt", "text/plain", []byte("other"))
	srv.AddFile(root, "dup.txt", "text/plain", []byte("second"))
	r := drivemap.NewWithID(srv.Service(t), drivemap.FileID(root))

	keys, err := r.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []drivemap.KeyPath{"dup.txt", "other.txt"}, keys)

	got, err := r.Get(ctx, "dup.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestReader_All(t *testing.T) {
	ctx := context.Background()

	t.Run("complete", func(t *testing.T) {
		f := newFixture(t)
		var got []drivemap.KeyPath
		for key, err := range f.reader(t).All(ctx) {
			require.NoError(t, err)
			got = append(got, key)
		}
		assert.Equal(t, []drivemap.KeyPath{"a.txt", "sub/b.txt", "sub/deeper/c.txt", "notes"}, got)
	})

	t.Run("early-stop", func(t *testing.T) {
		f := newFixture(t)
		var got []drivemap.KeyPath
		for key, err := range f.reader(t).All(ctx) {
			require.NoError(t, err)
			got = append(got, key)
			if len(got) == 2 {
				break
			}
		}
		assert.Equal(t, []drivemap.KeyPath{"a.txt", "sub/b.txt"}, got)
	})

	t.Run("listing-failure", func(t *testing.T) {
		f := newFixture(t)
		f.srv.FailRequests(http.StatusInternalServerError, isListRequest)
		var errs []error
		for _, err := range f.reader(t).All(ctx) {
			errs = append(errs, err)
		}
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], drivemap.ErrAPIError)
	})
}

func TestReader_ListingFailure(t *testing.T) {
	f := newFixture(t)
	f.srv.FailRequests(http.StatusUnauthorized, isListRequest)

	_, err := f.reader(t).Keys(context.Background())
	assert.ErrorIs(t, err, drivemap.ErrAuth)
}

func TestReader_URL(t *testing.T) {
	ctx := context.Background()

	t.Run("anyone-by-default", func(t *testing.T) {
		f := newFixture(t)
		link, err := f.reader(t).URL(ctx, "sub/b.txt", nil)
		require.NoError(t, err)

		id := f.ids["sub/b.txt"]
		assert.Equal(t, "https://drive.google.com/file/d/"+id+"/view", link)
		perms := f.srv.Permissions(id)
		require.Len(t, perms, 1)
		assert.Equal(t, "anyone", perms[0].Type)
		assert.Equal(t, "reader", perms[0].Role)
	})

	t.Run("user", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.reader(t).URL(ctx, "a.txt", drivemap.UserPermission("alice@example.com", drivemap.RoleWriter))
		require.NoError(t, err)

		perms := f.srv.Permissions(f.ids["a.txt"])
		require.Len(t, perms, 1)
		assert.Equal(t, "user", perms[0].Type)
		assert.Equal(t, "writer", perms[0].Role)
		assert.Equal(t, "alice@example.com", perms[0].EmailAddress)
	})

	t.Run("repeated-calls-reuse-the-permission", func(t *testing.T) {
		f := newFixture(t)
		r := f.reader(t)
		_, err := r.URL(ctx, "a.txt", nil)
		require.NoError(t, err)
		_, err = r.URL(ctx, "a.txt", nil)
		require.NoError(t, err)
		_, err = r.URL(ctx, "a.txt", drivemap.AnyonePermission(drivemap.RoleCommenter, false))
		require.NoError(t, err)

		perms := f.srv.Permissions(f.ids["a.txt"])
		require.Len(t, perms, 1)
		assert.Equal(t, "anyone", perms[0].Type)
		assert.Equal(t, "commenter", perms[0].Role)
	})

	t.Run("other-grantees-are-kept", func(t *testing.T) {
		f := newFixture(t)
		r := f.reader(t)
		_, err := r.URL(ctx, "a.txt", drivemap.UserPermission("alice@example.com", drivemap.RoleReader))
		require.NoError(t, err)
		_, err = r.URL(ctx, "a.txt", drivemap.UserPermission("bob@example.com", drivemap.RoleReader))
		require.NoError(t, err)
		_, err = r.URL(ctx, "a.txt", drivemap.UserPermission("Alice@example.com", drivemap.RoleWriter))
		require.NoError(t, err)

		perms := f.srv.Permissions(f.ids["a.txt"])
		require.Len(t, perms, 2)
		assert.Equal(t, "alice@example.com", perms[0].EmailAddress)
		assert.Equal(t, "writer", perms[0].Role)
		assert.Equal(t, "bob@example.com", perms[1].EmailAddress)
		assert.Equal(t, "reader", perms[1].Role)
	})

	t.Run("owner-is-left-as-is", func(t *testing.T) {
		f := newFixture(t)
		id := f.ids["a.txt"]
		f.srv.AddPermission(id, drive.Permission{Type: "user", Role: "owner", EmailAddress: "owner@example.com"})

		_, err := f.reader(t).URL(ctx, "a.txt", drivemap.UserPermission("owner@example.com", drivemap.RoleReader))
		require.NoError(t, err)

		perms := f.srv.Permissions(id)
		require.Len(t, perms, 1)
		assert.Equal(t, "owner", perms[0].Role)
	})

	t.Run("missing", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.reader(t).URL(ctx, "missing.txt", nil)
		assert.ErrorIs(t, err, drivemap.ErrNotFound)
	})
}

func TestNew(t *testing.T) {
	srv := drivetest.NewServer(t)

	r, err := drivemap.New(srv.Service(t), "https://drive.google.com/drive/folders/folder123?usp=sharing")
	require.NoError(t, err)
	assert.Equal(t, drivemap.FileID("folder123"), r.FolderID())
	assert.Equal(t, "https://drive.google.com/drive/folders/folder123?usp=sharing", r.FolderURL())

	_, err = drivemap.New(srv.Service(t), "https://drive.google.com/file/d/file123/view")
	assert.ErrorIs(t, err, drivemap.ErrInvalidURL)

	_, err = drivemap.NewStore(srv.Service(t), "not a url")
	assert.ErrorIs(t, err, drivemap.ErrInvalidURL)
}

func TestEnumerate_MaxLevels(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name      string
		maxLevels int
		want      []drivemap.KeyPath
	}{
		{"unbounded", drivemap.Unbounded, []drivemap.KeyPath{"a.txt", "sub/b.txt", "sub/deeper/c.txt", "notes"}},
		{"other-negative", -2, []drivemap.KeyPath{"a.txt", "sub/b.txt", "sub/deeper/c.txt", "notes"}},
		{"root-only", 0, []drivemap.KeyPath{"a.txt", "notes"}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			entries, err := drivemap.Enumerate(context.Background(), f.srv.Service(t), drivemap.FileID(f.rootID),
				drivemap.EnumerateOptions{MaxLevels: c.maxLevels})
			require.NoError(t, err)
			var got []drivemap.KeyPath
			for _, e := range entries {
				got = append(got, e.Key)
			}
			assert.Equal(t, c.want, got)
		})
	}
}
