package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestServerRoutes(t *testing.T) {
	movie := writeFile(t, "movie.mkv", "0123456789")
	srv := NewServer(ExposeNames([]string{movie, movie}))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	t.Run("info page", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Regexp(t, `^kodicast v`, string(body))
	})

	t.Run("whole file", func(t *testing.T) {
		resp, err := http.Get(ItemURL(ts.URL, "movie"))
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "0123456789", string(body))
		assert.Equal(t, "video/x-matroska", resp.Header.Get("Content-Type"))
	})

	t.Run("suffixed name", func(t *testing.T) {
		resp, err := http.Get(ItemURL(ts.URL, "movie #2"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("range", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, ItemURL(ts.URL, "movie"), nil)
		req.Header.Set("Range", "bytes=2-4")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
		assert.Equal(t, "234", string(body))
	})

	t.Run("head", func(t *testing.T) {
		resp, err := http.Head(ItemURL(ts.URL, "movie"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int64(10), resp.ContentLength)
	})

	t.Run("unknown name", func(t *testing.T) {
		resp, err := http.Get(ItemURL(ts.URL, "other"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServerMissingFile(t *testing.T) {
	srv := NewServer([]Entry{{Name: "gone", Path: filepath.Join(t.TempDir(), "gone.mkv")}})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ItemURL(ts.URL, "gone"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := NewServer(ExposeNames([]string{writeFile(t, "a.mp4", "data")}))
	assert.ErrorIs(t, srv.Shutdown(context.Background()), ErrNotStarted)

	base, err := srv.Start("127.0.0.1:0")
	require.NoError(t, err)
	assert.Equal(t, base, srv.BaseURL())
	assert.Equal(t, []string{base + "/file/a"}, srv.URLs())

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get(srv.URLs()[0])
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	srv.Stop()
	require.NoError(t, srv.Wait(ctx))

	_, err = client.Get(srv.URLs()[0])
	assert.Error(t, err)
}
