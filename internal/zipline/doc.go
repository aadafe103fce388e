// Package zipline provides a thin client for the remote file-hosting API.
//
// The client uploads staged files (multipart), lists and deletes remote
// files, and creates folders. Transfers retry on transient failures and a
// circuit breaker sheds load when the host is down.
package zipline
