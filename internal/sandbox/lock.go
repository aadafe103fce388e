package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/dorogoy/zipline-mcp-sub003/internal/logging"
)

// LockFileName is the well-known lock marker inside a sandbox root.
const LockFileName = ".lock"

// DefaultLockTimeout is how long a lock record stays live. Records older
// than this are dead and treated as absent.
const DefaultLockTimeout = 30 * time.Minute

// LockRecord is the persisted lock state. Timestamp is epoch milliseconds.
type LockRecord struct {
	Timestamp int64  `json:"timestamp"`
	Token     string `json:"token"`
}

// LockManager provides advisory, time-bounded exclusive locking over sandbox
// roots. The lock is cooperative: it only excludes callers that honor it.
// The check-then-write acquire sequence is not atomic; two near-simultaneous
// acquirers on a cold root can both succeed. Accepted as advisory-grade for
// single-host, low-contention use.
type LockManager struct {
	Timeout time.Duration

	log *logging.Logger
	now func() time.Time

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewLockManager creates a lock manager with the default timeout.
func NewLockManager(log *logging.Logger) *LockManager {
	if log == nil {
		log = logging.NewNop()
	}
	return &LockManager{
		Timeout: DefaultLockTimeout,
		log:     log.Named("lock"),
		now:     time.Now,
		timers:  make(map[string]*time.Timer),
	}
}

// IsLocked reports whether root currently holds a live lock. An expired
// record is removed on sight so a crashed holder cannot wedge the sandbox.
func (m *LockManager) IsLocked(root string) bool {
	record, err := m.readRecord(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false
		}
		// Unreadable record counts as locked until released or expired.
		m.audit("check", root, "unreadable lock record")
		return true
	}

	age := m.now().Sub(time.UnixMilli(record.Timestamp))
	if age > m.Timeout {
		if err := os.Remove(m.lockPath(root)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			m.log.Warn("failed to remove expired lock",
				logging.PathField(root), zap.Error(err))
		}
		m.audit("expire", root, "")
		return false
	}
	return true
}

// Acquire attempts to take the lock for token. Returns false without error
// when the root is already locked; contention is an outcome, not a failure.
func (m *LockManager) Acquire(root, token string) (bool, error) {
	if m.IsLocked(root) {
		m.audit("contend", root, "")
		return false, nil
	}

	record := LockRecord{
		Timestamp: m.now().UnixMilli(),
		Token:     token,
	}
	data, err := sonic.Marshal(&record)
	if err != nil {
		return false, fmt.Errorf("failed to encode lock record: %w", err)
	}
	if err := os.WriteFile(m.lockPath(root), data, 0o600); err != nil {
		return false, fmt.Errorf("failed to write lock record: %w", err)
	}

	m.scheduleExpiry(root, token)
	m.audit("acquire", root, "")
	return true, nil
}

// Release removes the lock if token owns it. A mismatched owner is a no-op
// that reports false; another holder's lock is never removed. A corrupt
// record is cleared regardless of ownership.
func (m *LockManager) Release(root, token string) (bool, error) {
	return m.release(root, token, "release", "")
}

// release is the shared removal path. The audit op distinguishes an explicit
// caller release from a timer-driven expiry.
func (m *LockManager) release(root, token, op, detail string) (bool, error) {
	record, err := m.readRecord(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		// Corrupt record: fail open and clear it.
		if rmErr := os.Remove(m.lockPath(root)); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return false, fmt.Errorf("failed to clear corrupt lock record: %w", rmErr)
		}
		m.cancelExpiry(root)
		m.audit(op, root, "cleared corrupt record")
		return true, nil
	case record.Token != token:
		m.audit(op, root, "token mismatch")
		return false, nil
	}

	if err := os.Remove(m.lockPath(root)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to remove lock record: %w", err)
	}
	m.cancelExpiry(root)
	m.audit(op, root, detail)
	return true, nil
}

// scheduleExpiry arms a best-effort auto-release at timeout expiry. The
// timestamp check in IsLocked remains the source of truth: a process restart
// loses the timer but not the expiry.
func (m *LockManager) scheduleExpiry(root, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.timers[root]; ok {
		prev.Stop()
	}
	m.timers[root] = time.AfterFunc(m.Timeout, func() {
		if _, err := m.release(root, token, "expire", "timeout"); err != nil {
			m.log.Warn("auto-release failed", logging.PathField(root), zap.Error(err))
		}
		m.cancelExpiry(root)
	})
}

func (m *LockManager) cancelExpiry(root string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if timer, ok := m.timers[root]; ok {
		timer.Stop()
		delete(m.timers, root)
	}
}

func (m *LockManager) lockPath(root string) string {
	return filepath.Join(root, LockFileName)
}

func (m *LockManager) readRecord(root string) (*LockRecord, error) {
	data, err := os.ReadFile(m.lockPath(root))
	if err != nil {
		return nil, err
	}
	var record LockRecord
	if err := sonic.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("corrupt lock record: %w", err)
	}
	return &record, nil
}

// audit emits one structured entry per state transition. The identity
// segment of the path is always masked.
func (m *LockManager) audit(op, root, detail string) {
	fields := []zap.Field{logging.PathField(root)}
	if detail != "" {
		fields = append(fields, zap.String("detail", detail))
	}
	m.log.Info(op, fields...)
}
