// Package download fetches remote resources into caller sandboxes.
//
// Every transfer is bounded by a wall-clock timeout and a hard byte ceiling,
// enforced both from the length header and while streaming. A failure at any
// point after writing has begun removes the partial file before the error is
// returned, so callers never observe a half-written artifact.
//
// Only http and https URLs are accepted; any other scheme is rejected before
// network I/O.
package download
