package download

import (
	"context"
	"fmt"
	"time"
)

// UnsupportedSchemeError indicates a URL scheme outside the allow-list.
// Raised before any network I/O.
type UnsupportedSchemeError struct {
	Scheme string
}

func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("unsupported URL scheme %q: only http and https are allowed", e.Scheme)
}

// HTTPStatusError indicates a non-success response status.
type HTTPStatusError struct {
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("download failed: HTTP %d %s", e.StatusCode, e.Status)
}

// SizeExceededError indicates content at or above the download ceiling.
// No file is retained when this is raised.
type SizeExceededError struct {
	Size  int64
	Limit int64
}

func (e *SizeExceededError) Error() string {
	return fmt.Sprintf("download size %d exceeds limit of %d bytes", e.Size, e.Limit)
}

// TimeoutError indicates the wall-clock timeout fired and aborted the
// in-flight transfer. Satisfies errors.Is(err, context.DeadlineExceeded).
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("download of %s aborted after %s", e.URL, e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}
