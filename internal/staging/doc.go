// Package staging prepares files for upload, choosing an in-memory buffer
// for small sources and a disk-resident reference for large ones.
//
// Content inspection gates every staging decision: a sensitive match refuses
// the upload with SecretDetectedError before any artifact is produced. The
// inspection engine is pluggable via the Inspector interface; a regexp-based
// default ships with the package.
package staging
