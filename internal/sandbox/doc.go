// Package sandbox provides per-identity filesystem isolation for transient
// file staging.
//
// Each caller token maps one-way (SHA-256) to a sandbox root under
// <base>/users/. All staging and download activity for that caller is
// confined to its root by PathResolver. LockManager offers advisory,
// time-bounded exclusion over a root, and Reaper removes roots untouched
// beyond the retention window.
//
// Isolation can be disabled by configuration, collapsing all identities onto
// the shared base directory; the reaper is inert in that mode.
package sandbox
