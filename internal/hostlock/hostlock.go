// Package hostlock serializes EC-mutating operations across
// processes. The EC register set offers no atomicity across
// multi-byte sequences, so every boost/custom-fan operation runs
// under one advisory file lock.
package hostlock

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// DefaultPath is the default lock file location
const DefaultPath = "/run/nitroctl.lock"

// Lock is a held advisory lock
type Lock struct {
	f *os.File
}

// Acquire blocks until the lock is held
func Acquire(path string) (*Lock, error) {
	return acquire(path, 0)
}

// TryAcquire returns an error immediately when another process
// holds the lock
func TryAcquire(path string) (*Lock, error) {
	return acquire(path, unix.LOCK_NB)
}

func acquire(path string, flags int) (*Lock, error) {
	if path == "" {
		path = DefaultPath
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|flags); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, fmt.Errorf("another nitroctl operation is in progress")
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	return &Lock{f: f}, nil
}

// Release drops the lock. Safe to call once per held lock.
func (l *Lock) Release() error {
	defer l.f.Close()
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		return fmt.Errorf("failed to unlock: %w", err)
	}
	return nil
}
