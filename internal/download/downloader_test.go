package download

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorogoy/zipline-mcp-sub003/internal/sandbox"
)

func newTestDownloader(t *testing.T) *Downloader {
	t.Helper()
	resolver := sandbox.NewResolver(t.TempDir(), false)
	client := NewClient()
	client.Resty.SetRetryCount(0)
	return NewDownloader(client, resolver, nil, nil)
}

func sandboxFiles(t *testing.T, d *Downloader, token string) []string {
	t.Helper()
	root, err := d.resolver.ResolveRoot(token)
	require.NoError(t, err)
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestDownloadSuccess(t *testing.T) {
	body := "hello world" // 11 bytes
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	d := newTestDownloader(t)
	path, err := d.Download(context.Background(), srv.URL+"/files/hello.txt", "caller", Options{})
	require.NoError(t, err)

	root, err := d.resolver.ResolveRoot("caller")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "hello.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
}

func TestDownloadUnsupportedScheme(t *testing.T) {
	d := newTestDownloader(t)

	_, err := d.Download(context.Background(), "ftp://host/file.bin", "caller", Options{})
	require.Error(t, err)

	var schemeErr *UnsupportedSchemeError
	require.ErrorAs(t, err, &schemeErr)
	assert.Equal(t, "ftp", schemeErr.Scheme)
	assert.Empty(t, sandboxFiles(t, d, "caller"))
}

func TestDownloadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	d := newTestDownloader(t)
	_, err := d.Download(context.Background(), srv.URL+"/missing.txt", "caller", Options{})
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Empty(t, sandboxFiles(t, d, "caller"))
}

func TestDownloadSizeCeilingFromHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Advertise 101 MiB without sending it.
		w.Header().Set("Content-Length", fmt.Sprint(101*1024*1024))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := newTestDownloader(t)
	_, err := d.Download(context.Background(), srv.URL+"/huge.bin", "caller", Options{})
	require.Error(t, err)

	var sizeErr *SizeExceededError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, int64(101*1024*1024), sizeErr.Size)
	assert.Empty(t, sandboxFiles(t, d, "caller"))
}

func TestDownloadSizeCeilingWhileStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No Content-Length: chunked body larger than the ceiling.
		chunk := strings.Repeat("x", 1024)
		for i := 0; i < 80; i++ {
			fmt.Fprint(w, chunk)
		}
	}))
	defer srv.Close()

	d := newTestDownloader(t)
	d.Ceiling = 64 * 1024

	_, err := d.Download(context.Background(), srv.URL+"/stream.bin", "caller", Options{})
	require.Error(t, err)

	var sizeErr *SizeExceededError
	require.ErrorAs(t, err, &sizeErr)
	assert.Empty(t, sandboxFiles(t, d, "caller"), "no file is retained for oversized content")
}

func TestDownloadMidTransferFailureRemovesPartial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1048576")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		fmt.Fprint(w, strings.Repeat("y", 1024))
		w.(http.Flusher).Flush()
		// Abort the connection before the advertised body completes.
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			conn.Close()
		}
	}))
	defer srv.Close()

	d := newTestDownloader(t)
	_, err := d.Download(context.Background(), srv.URL+"/cut.bin", "caller", Options{})
	require.Error(t, err)

	var statusErr *HTTPStatusError
	assert.False(t, errors.As(err, &statusErr), "mid-transfer failure is not a status error")
	assert.Empty(t, sandboxFiles(t, d, "caller"), "partial file must be removed")
}

func TestDownloadTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	d := newTestDownloader(t)
	start := time.Now()
	_, err := d.Download(context.Background(), srv.URL+"/slow.bin", "caller", Options{Timeout: 100 * time.Millisecond})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second, "timeout must abort the in-flight transfer")

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, sandboxFiles(t, d, "caller"))
}

func TestDownloadGzipResponse(t *testing.T) {
	body := "compressed payload contents"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		fmt.Fprint(gz, body)
		gz.Close()
	}))
	defer srv.Close()

	d := newTestDownloader(t)
	path, err := d.Download(context.Background(), srv.URL+"/data.txt", "caller", Options{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
}

func TestDownloadURLWithoutFilename(t *testing.T) {
	d := newTestDownloader(t)

	_, err := d.Download(context.Background(), "https://host.example.com/", "caller", Options{})
	require.Error(t, err)

	var pathErr *sandbox.PathSecurityError
	assert.ErrorAs(t, err, &pathErr)
}

// A name rejected by path validation must not leave a freshly created
// sandbox root behind.
func TestDownloadRejectedNameCreatesNoSandbox(t *testing.T) {
	d := newTestDownloader(t)

	_, err := d.Download(context.Background(), "https://host.example.com/.hidden", "caller", Options{})
	require.Error(t, err)

	var pathErr *sandbox.PathSecurityError
	require.ErrorAs(t, err, &pathErr)

	root, err := d.resolver.ResolveRoot("caller")
	require.NoError(t, err)
	assert.NoDirExists(t, root)
}

func TestDownloadReportsOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	d := newTestDownloader(t)
	var outcome string
	var bytes int64
	d.OnResult(func(o string, b int64) { outcome, bytes = o, b })

	_, err := d.Download(context.Background(), srv.URL+"/ok.txt", "caller", Options{})
	require.NoError(t, err)
	assert.Equal(t, "success", outcome)
	assert.Equal(t, int64(2), bytes)
}
