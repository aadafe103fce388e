package sandbox

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// usersDir is the directory under the base that holds per-identity roots.
const usersDir = "users"

// Resolver derives per-caller sandbox roots from the shared secret token.
// The derivation is one-way: the root name is the SHA-256 hex of the token,
// so a root on disk never reveals the token it belongs to.
type Resolver struct {
	BaseDir string
	// Disabled collapses all identities onto BaseDir itself.
	Disabled bool
}

// NewResolver creates an identity resolver rooted at baseDir.
func NewResolver(baseDir string, disabled bool) *Resolver {
	return &Resolver{BaseDir: baseDir, Disabled: disabled}
}

// ResolveRoot maps a caller token to its sandbox root. Deterministic and
// side-effect-free: the same token always yields the same root.
func (r *Resolver) ResolveRoot(token string) (string, error) {
	if token == "" {
		return "", &ConfigurationError{Reason: "identity token is required"}
	}
	if r.Disabled {
		return r.BaseDir, nil
	}
	sum := sha256.Sum256([]byte(token))
	return filepath.Join(r.BaseDir, usersDir, hex.EncodeToString(sum[:])), nil
}

// UsersDir returns the directory holding all per-identity roots.
func (r *Resolver) UsersDir() string {
	return filepath.Join(r.BaseDir, usersDir)
}

// EnsureRoot resolves the caller's root and creates it if missing.
// Creation is idempotent; the directory is restricted to the owning user.
func (r *Resolver) EnsureRoot(token string) (string, error) {
	root, err := r.ResolveRoot(token)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return "", fmt.Errorf("failed to create sandbox root: %w", err)
	}
	return root, nil
}
