package sandbox

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRoot(t *testing.T, resolver *Resolver, token string, age time.Duration) string {
	t.Helper()
	root, err := resolver.EnsureRoot(token)
	require.NoError(t, err)

	stamp := time.Now().Add(-age)
	file := filepath.Join(root, "data.txt")
	require.NoError(t, os.WriteFile(file, []byte("payload"), 0o600))
	require.NoError(t, os.Chtimes(file, stamp, stamp))
	require.NoError(t, os.Chtimes(root, stamp, stamp))
	return root
}

func TestSweepRemovesExpiredRoots(t *testing.T) {
	resolver := NewResolver(t.TempDir(), false)
	reaper := NewReaper(resolver, nil)

	old := makeRoot(t, resolver, "stale-caller", 25*time.Hour)
	fresh := makeRoot(t, resolver, "active-caller", time.Hour)

	removed := reaper.Sweep()
	assert.Equal(t, 1, removed)
	assert.NoDirExists(t, old)
	assert.DirExists(t, fresh)
}

func TestSweepRecentActivityDeepInTree(t *testing.T) {
	resolver := NewResolver(t.TempDir(), false)
	reaper := NewReaper(resolver, nil)

	// Root dir mtime is old, but a file inside was touched recently.
	root := makeRoot(t, resolver, "caller", 25*time.Hour)
	recent := filepath.Join(root, "fresh.txt")
	require.NoError(t, os.WriteFile(recent, []byte("new"), 0o600))
	stamp := time.Now().Add(-25 * time.Hour)
	require.NoError(t, os.Chtimes(root, stamp, stamp))

	removed := reaper.Sweep()
	assert.Equal(t, 0, removed)
	assert.DirExists(t, root)
}

func TestSweepMissingUsersDir(t *testing.T) {
	resolver := NewResolver(filepath.Join(t.TempDir(), "never-created"), false)
	reaper := NewReaper(resolver, nil)

	assert.Equal(t, 0, reaper.Sweep())
}

func TestSweepDisabledSandboxing(t *testing.T) {
	base := t.TempDir()
	resolver := NewResolver(base, true)
	reaper := NewReaper(resolver, nil)

	// Even with an expired-looking users dir, disabled mode never sweeps.
	old := filepath.Join(base, "users", "leftover")
	require.NoError(t, os.MkdirAll(old, 0o700))
	stamp := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, stamp, stamp))

	assert.Equal(t, 0, reaper.Sweep())
	assert.DirExists(t, old)
}

func TestSweepReportsRemovals(t *testing.T) {
	resolver := NewResolver(t.TempDir(), false)
	reaper := NewReaper(resolver, nil)

	var seen []string
	reaper.OnRemove(func(root string) { seen = append(seen, root) })

	makeRoot(t, resolver, "stale-a", 30*time.Hour)
	makeRoot(t, resolver, "stale-b", 30*time.Hour)

	removed := reaper.Sweep()
	assert.Equal(t, 2, removed)
	assert.Len(t, seen, 2)
}
