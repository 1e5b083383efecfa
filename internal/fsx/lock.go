package fsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const lockRetry = 10 * time.Millisecond

// ErrLockTimeout is returned when a lock could not be acquired before the deadline.
var ErrLockTimeout = errors.New("lock timeout")

// errContended is returned by the platform tryLock when another holder exists.
var errContended = errors.New("lock contended")

// Lock is an exclusive advisory lock on a file. The lock belongs to the open
// file description, so two Locks on the same path conflict even in one process.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock blocks until an exclusive lock on path is held, the timeout
// elapses or ctx is cancelled. The lock file is created if needed and kept
// on release; removing it would let a waiter lock an unlinked inode.
func AcquireLock(ctx context.Context, path string, timeout time.Duration) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	// #nosec G304 -- lock path is derived from the store path.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		err := tryLock(f)
		if err == nil {
			return &Lock{path: path, file: f}, nil
		}
		if !errors.Is(err, errContended) {
			_ = f.Close()
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if time.Now().After(deadline) {
			_ = f.Close()
			return nil, fmt.Errorf("%w after %s: %s", ErrLockTimeout, timeout, path)
		}

		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		case <-time.After(lockRetry):
		}
	}
}

// Release unlocks and closes the lock file. Calling it twice is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlock(l.file)
	err := l.file.Close()
	l.file = nil
	return err
}

// Path returns the lock file path
func (l *Lock) Path() string {
	return l.path
}

// WithLock runs fn while holding the lock at path; the lock is released on
// every return path, including a panic in fn.
func WithLock(ctx context.Context, path string, timeout time.Duration, fn func() error) (err error) {
	lock, err := AcquireLock(ctx, path, timeout)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil && err == nil {
			err = fmt.Errorf("release lock: %w", releaseErr)
		}
	}()
	return fn()
}
