package syncer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// LockFileName is the advisory lock file inside a profile's index directory.
const LockFileName = "sync.lock"

// ErrLocked is returned when another sync run holds the lock for the same
// repository and profile.
var ErrLocked = fmt.Errorf("another sync is already running")

// Lock is an advisory single-writer lock scoped to one index directory.
// Concurrent runs against different profiles use different directories and
// never contend.
type Lock struct {
	path string
}

// AcquireLock takes the lock for an index directory, creating the
// directory if needed. The lock file records the holder's pid for
// diagnostics.
func AcquireLock(indexDir string) (*Lock, error) {
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	path := filepath.Join(indexDir, LockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w (lock file %s)", ErrLocked, path)
		}
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
	_ = f.Close()

	return &Lock{path: path}, nil
}

// Release removes the lock file. Safe to call more than once.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
