package compactindex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: baseURL, CacheDir: t.TempDir()})
	require.NoError(t, err)
	return c
}

func TestVersionsParsesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/versions", r.URL.Path)
		w.Header().Set("ETag", `"abc123"`)
		w.Write([]byte("created_at: 2024-01-01\n---\nrails 1.0.0,2.0.0\nrspec 3.0.0\n"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	got, err := c.Versions(context.Background(), map[string]struct{}{"rails": {}})
	require.NoError(t, err)
	require.Len(t, got["rails"], 2)
	require.Equal(t, "1.0.0", got["rails"][0].String())
	require.Equal(t, "2.0.0", got["rails"][1].String())
	require.Empty(t, got["rspec"], "rspec was not requested and should be skipped")
}

func TestVersionsUsesConditionalGetOnSecondFetch(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("If-None-Match") == `"abc123"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"abc123"`)
		w.Write([]byte("---\nrails 1.0.0\n"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Versions(context.Background(), map[string]struct{}{"rails": {}})
	require.NoError(t, err)

	got, err := c.Versions(context.Background(), map[string]struct{}{"rails": {}})
	require.NoError(t, err)
	require.Equal(t, 2, requests)
	require.Len(t, got["rails"], 1)
}

func TestInfoParsesDependencies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/info/rails", r.URL.Path)
		w.Write([]byte("---\n1.0.0 activesupport:>= 1.0|checksum1\n2.0.0 activesupport:~> 2.0,railties:= 2.0.0|checksum2\n"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	got, err := c.Info(context.Background(), "rails")
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, "1.0.0", got[0].Version.String())
	require.Len(t, got[0].Dependencies, 1)
	require.Equal(t, "activesupport", got[0].Dependencies[0].Name)

	require.Equal(t, "2.0.0", got[1].Version.String())
	require.Len(t, got[1].Dependencies, 2)
}

// TestRangeHeaderUsesEtagFileLength exercises the preserved protocol
// quirk: a second fetch's Range header is computed from the length of
// the cached .etag file, not the cached data file.
func TestRangeHeaderUsesEtagFileLength(t *testing.T) {
	var sawRange string
	first := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if first {
			first = false
			w.Header().Set("ETag", "e") // a 1-byte etag file
			w.Write([]byte("---\nrails 1.0.0\n"))
			return
		}
		sawRange = r.Header.Get("Range")
		w.Header().Set("ETag", "e")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte("Xrails 1.0.0,2.0.0\n"))
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	c, err := NewClient(Config{BaseURL: srv.URL, CacheDir: cacheDir})
	require.NoError(t, err)

	_, err = c.Versions(context.Background(), map[string]struct{}{"rails": {}})
	require.NoError(t, err)

	dataPath := filepath.Join(c.cacheDir, "versions")
	info, statErr := os.Stat(dataPath)
	require.NoError(t, statErr)
	require.Greater(t, info.Size(), int64(1), "data file should already be larger than the 1-byte etag file")

	_, err = c.Versions(context.Background(), map[string]struct{}{"rails": {}})
	require.NoError(t, err)

	// The etag file is 1 byte ("e"), so the preserved (buggy) Range
	// header requests from offset 0, not from the much larger data
	// file's actual length.
	require.Equal(t, "bytes=0-", sawRange)
}
