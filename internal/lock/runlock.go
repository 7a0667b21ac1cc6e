// Package lock prevents two runs of the same pipeline from interleaving.
// The lock is a file created exclusively in the output directory; stage
// outputs are whole artifacts, so run granularity is the only locking the
// system needs.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrAlreadyRunning is returned when another process holds the run lock.
var ErrAlreadyRunning = errors.New("pipeline is already running")

// RunLock is an exclusive per-pipeline lock backed by a lock file.
type RunLock struct {
	path string
	held bool
}

// NewRunLock creates a lock for the named pipeline under dir.
func NewRunLock(dir, pipeline string) *RunLock {
	return &RunLock{
		path: filepath.Join(dir, fmt.Sprintf(".%s.lock", pipeline)),
	}
}

// Acquire takes the lock or fails immediately with ErrAlreadyRunning. The
// lock file records the owning PID and acquisition time for diagnostics.
func (l *RunLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w (lock file %s)", ErrAlreadyRunning, l.path)
		}
		return fmt.Errorf("failed to create lock file %s: %w", l.path, err)
	}
	defer f.Close()

	fmt.Fprintf(f, "pid=%d acquired=%s\n", os.Getpid(), time.Now().Format(time.RFC3339))
	l.held = true
	return nil
}

// Release drops the lock. Safe to call when the lock was never acquired.
func (l *RunLock) Release() error {
	if !l.held {
		return nil
	}
	l.held = false
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file %s: %w", l.path, err)
	}
	return nil
}

// Path returns the lock file location.
func (l *RunLock) Path() string {
	return l.path
}
