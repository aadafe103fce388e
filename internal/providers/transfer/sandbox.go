package transfer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dorogoy/zipline-mcp-sub003/internal/sandbox"
	"github.com/dorogoy/zipline-mcp-sub003/internal/types"
)

// ListSandbox lists the caller's sandboxed files, optionally filtered by a
// doublestar glob. The lock file is never listed.
func (p *Provider) ListSandbox(_ context.Context, params map[string]interface{}, token string) (*types.Result, error) {
	pattern, err := GetString(params, "pattern", false)
	if err != nil {
		return Failure(err.Error())
	}
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return Failure("invalid glob pattern: " + pattern)
	}

	root, err := p.resolver.ResolveRoot(token)
	if err != nil {
		return Failure(err.Error())
	}

	// A caller that never staged anything has no root yet.
	if _, statErr := os.Stat(root); statErr != nil {
		return Success(map[string]interface{}{
			"files": []interface{}{},
			"count": 0,
		})
	}

	matches, err := doublestar.Glob(os.DirFS(root), pattern)
	if err != nil {
		return Failure("glob failed: " + err.Error())
	}

	files := make([]interface{}, 0, len(matches))
	for _, rel := range matches {
		if filepath.Base(rel) == sandbox.LockFileName {
			continue
		}
		info, statErr := fs.Stat(os.DirFS(root), rel)
		if statErr != nil || info.IsDir() {
			continue
		}
		files = append(files, map[string]interface{}{
			"name": rel,
			"size": info.Size(),
		})
	}

	return Success(map[string]interface{}{
		"files": files,
		"count": len(files),
	})
}

// LockSandbox acquires the advisory sandbox lock for the caller.
func (p *Provider) LockSandbox(_ context.Context, token string) (*types.Result, error) {
	root, err := p.resolver.EnsureRoot(token)
	if err != nil {
		return Failure(err.Error())
	}

	acquired, err := p.locks.Acquire(root, token)
	if err != nil {
		p.recordLock("error")
		return Failure("lock acquisition failed: " + err.Error())
	}
	if !acquired {
		p.recordLock("contended")
		return Success(map[string]interface{}{
			"acquired": false,
			"locked":   true,
		})
	}
	p.recordLock("acquired")
	return Success(map[string]interface{}{
		"acquired": true,
	})
}

// UnlockSandbox releases the advisory sandbox lock. Releasing a lock the
// caller does not hold is a no-op reported as released=false.
func (p *Provider) UnlockSandbox(_ context.Context, token string) (*types.Result, error) {
	root, err := p.resolver.ResolveRoot(token)
	if err != nil {
		return Failure(err.Error())
	}

	released, err := p.locks.Release(root, token)
	if err != nil {
		return Failure("lock release failed: " + err.Error())
	}
	return Success(map[string]interface{}{
		"released": released,
	})
}

// SandboxStatus reports the advisory lock state for the caller's sandbox.
func (p *Provider) SandboxStatus(_ context.Context, token string) (*types.Result, error) {
	root, err := p.resolver.ResolveRoot(token)
	if err != nil {
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{
		"locked": p.locks.IsLocked(root),
	})
}
