package sandbox

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/dorogoy/zipline-mcp-sub003/internal/logging"
)

// DefaultRetention is how long an untouched sandbox root survives.
const DefaultRetention = 24 * time.Hour

// Reaper removes sandbox roots untouched beyond the retention window.
// It owns no locks: an expired root is removed even if a stale lock record
// sits inside it.
type Reaper struct {
	Retention time.Duration

	resolver *Resolver
	log      *logging.Logger
	now      func() time.Time
	onRemove func(root string)
}

// NewReaper creates a reaper over the resolver's users directory.
func NewReaper(resolver *Resolver, log *logging.Logger) *Reaper {
	if log == nil {
		log = logging.NewNop()
	}
	return &Reaper{
		Retention: DefaultRetention,
		resolver:  resolver,
		log:       log.Named("reaper"),
		now:       time.Now,
	}
}

// Sweep removes every sandbox root whose last activity is older than the
// retention window. Per-root failures are logged and do not abort the sweep.
// Returns the number of roots removed. A missing users directory means
// nothing to clean.
func (r *Reaper) Sweep() int {
	if r.resolver.Disabled {
		return 0
	}

	entries, err := os.ReadDir(r.resolver.UsersDir())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.log.Warn("failed to list sandbox roots", zap.Error(err))
		}
		return 0
	}

	removed := 0
	cutoff := r.now().Add(-r.Retention)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		root := filepath.Join(r.resolver.UsersDir(), entry.Name())

		last, err := lastActivity(root, entry)
		if err != nil {
			r.log.Warn("failed to stat sandbox root", logging.PathField(root), zap.Error(err))
			continue
		}
		if last.After(cutoff) {
			continue
		}

		if err := os.RemoveAll(root); err != nil {
			r.log.Warn("failed to remove sandbox root", logging.PathField(root), zap.Error(err))
			continue
		}
		removed++
		if r.onRemove != nil {
			r.onRemove(root)
		}
		r.log.Info("removed expired sandbox root",
			logging.PathField(root), zap.Time("last_activity", last))
	}
	return removed
}

// Run sweeps on the given interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// OnRemove registers a callback invoked per removed root. Used for metrics.
func (r *Reaper) OnRemove(fn func(root string)) {
	r.onRemove = fn
}

// lastActivity finds the newest modification time anywhere under root.
// A write deep inside the tree counts as touching the root.
func lastActivity(root string, entry fs.DirEntry) (time.Time, error) {
	info, err := entry.Info()
	if err != nil {
		return time.Time{}, err
	}
	newest := info.ModTime()

	var mu sync.Mutex
	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, root, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries do not block the scan
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		mu.Lock()
		if fi.ModTime().After(newest) {
			newest = fi.ModTime()
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return newest, nil
}
