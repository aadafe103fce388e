package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/dorogoy/zipline-mcp-sub003/internal/logging"
	"github.com/dorogoy/zipline-mcp-sub003/internal/sandbox"
)

// DefaultSizeCeiling is the hard upper bound on bytes accepted for one
// download.
const DefaultSizeCeiling = 100 * 1024 * 1024 // 100 MiB

// DefaultTimeout bounds a download when the caller gives none.
const DefaultTimeout = 30 * time.Second

// Options tune a single download.
type Options struct {
	// Timeout is the wall-clock bound for the whole transfer. Zero selects
	// the downloader default.
	Timeout time.Duration
}

// Downloader fetches remote resources into the caller's sandbox. Transfers
// are bounded in time and size, and any partially written file is removed
// before a failure is reported.
type Downloader struct {
	Ceiling int64
	Timeout time.Duration

	client   *Client
	resolver *sandbox.Resolver
	paths    *sandbox.PathResolver
	log      *logging.Logger
	onResult func(outcome string, bytes int64)
}

// NewDownloader creates a downloader writing into sandboxes under resolver.
func NewDownloader(client *Client, resolver *sandbox.Resolver, paths *sandbox.PathResolver, log *logging.Logger) *Downloader {
	if client == nil {
		client = NewClient()
	}
	if paths == nil {
		paths = sandbox.NewPathResolver(nil)
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Downloader{
		Ceiling:  DefaultSizeCeiling,
		Timeout:  DefaultTimeout,
		client:   client,
		resolver: resolver,
		paths:    paths,
		log:      log.Named("downloader"),
	}
}

// OnResult registers a callback invoked once per download with the outcome
// label and bytes written. Used for metrics.
func (d *Downloader) OnResult(fn func(outcome string, bytes int64)) {
	d.onResult = fn
}

// Download fetches rawURL into the sandbox belonging to token and returns
// the absolute path of the fully written, size-validated file. The remote
// basename becomes the target filename.
func (d *Downloader) Download(ctx context.Context, rawURL, token string, opts Options) (string, error) {
	target, err := d.resolveTarget(rawURL, token)
	if err != nil {
		d.report("rejected", 0)
		return "", err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = d.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	written, err := d.fetch(ctx, rawURL, target)
	if err != nil {
		if isTimeout(err) {
			err = &TimeoutError{URL: rawURL, Timeout: timeout}
		}
		d.report(outcomeLabel(err), written)
		return "", err
	}

	d.log.Info("download complete",
		logging.PathField(target), zap.Int64("bytes", written))
	d.report("success", written)
	return target, nil
}

// resolveTarget derives and validates the sandbox path for the URL before
// any network I/O happens.
func (d *Downloader) resolveTarget(rawURL, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", &UnsupportedSchemeError{Scheme: u.Scheme}
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", &sandbox.PathSecurityError{Name: u.Path, Reason: "URL carries no usable filename"}
	}

	// Validate the filename against the derived root before creating
	// anything on disk. A rejected name must leave no sandbox behind.
	root, err := d.resolver.ResolveRoot(token)
	if err != nil {
		return "", err
	}
	target, err := d.paths.Resolve(root, name)
	if err != nil {
		return "", err
	}
	if _, err := d.resolver.EnsureRoot(token); err != nil {
		return "", err
	}
	return target, nil
}

// fetch performs the transfer. On any failure after the target file has
// been created, the partial file is removed before the error is returned.
func (d *Downloader) fetch(ctx context.Context, rawURL, target string) (int64, error) {
	req, err := d.client.Request(ctx)
	if err != nil {
		return 0, err
	}

	resp, err := req.Get(rawURL)
	d.client.Breaker.Record(err)
	if err != nil {
		return 0, fmt.Errorf("download failed: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if code := resp.StatusCode(); code < 200 || code >= 300 {
		// Drain so the connection can be reused, then fail without a file.
		io.Copy(io.Discard, io.LimitReader(body, 4096))
		return 0, &HTTPStatusError{StatusCode: code, Status: resp.Status()}
	}

	if length := resp.RawResponse.ContentLength; length >= d.Ceiling {
		return 0, &SizeExceededError{Size: length, Limit: d.Ceiling}
	}

	reader := io.Reader(body)
	if strings.EqualFold(resp.Header().Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return 0, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("failed to create target file: %w", err)
	}

	written, err := io.Copy(file, io.LimitReader(reader, d.Ceiling))
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to finalize target file: %w", closeErr)
	}
	if err != nil {
		d.removeTarget(target)
		return written, fmt.Errorf("download failed mid-transfer: %w", err)
	}
	if written >= d.Ceiling {
		d.removeTarget(target)
		return written, &SizeExceededError{Size: written, Limit: d.Ceiling}
	}

	// Post-write validation against what actually landed on disk.
	info, err := os.Stat(target)
	if err != nil {
		d.removeTarget(target)
		return written, fmt.Errorf("failed to validate downloaded file: %w", err)
	}
	if info.Size() >= d.Ceiling {
		d.removeTarget(target)
		return written, &SizeExceededError{Size: info.Size(), Limit: d.Ceiling}
	}
	return written, nil
}

// removeTarget force-deletes a partial artifact. Its own failure is logged,
// never surfaced in place of the original error.
func (d *Downloader) removeTarget(target string) {
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		d.log.Warn("failed to remove partial download",
			logging.PathField(target), zap.Error(err))
	}
}

func (d *Downloader) report(outcome string, bytes int64) {
	if d.onResult != nil {
		d.onResult(outcome, bytes)
	}
}

func outcomeLabel(err error) string {
	var statusErr *HTTPStatusError
	var sizeErr *SizeExceededError
	switch {
	case errors.As(err, &statusErr):
		return "http_error"
	case errors.As(err, &sizeErr):
		return "size_exceeded"
	case isTimeout(err):
		return "timeout"
	default:
		return "error"
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
