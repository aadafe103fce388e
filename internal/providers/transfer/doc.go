// Package transfer implements the tool providers exposed to the calling
// agent: file upload through the staging pipeline, bounded URL download,
// and sandbox management (listing, locking, status).
//
// Every tool resolves the caller's sandbox from the request token; no tool
// ever touches a path outside it.
package transfer
