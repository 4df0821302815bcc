package repository

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	sperrors "github.com/Aman-CERP/spor/internal/errors"
)

// lockFileName is created inside the .spor directory.
const lockFileName = ".lock"

// FileLock serialises writers across spor processes sharing a repository.
type FileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewFileLock creates a lock for the repository directory dir.
func NewFileLock(dir string) *FileLock {
	path := filepath.Join(dir, lockFileName)
	return &FileLock{
		path:  path,
		flock: flock.New(path),
	}
}

// TryLock attempts to acquire the lock without blocking.
// A lock held elsewhere is reported as a retryable ERR_208 error.
func (l *FileLock) TryLock() error {
	acquired, err := l.flock.TryLock()
	if err != nil {
		return sperrors.New(sperrors.ErrCodeFilePermission, "failed to acquire repository lock", err).
			WithDetail("lock", l.path)
	}
	if !acquired {
		return sperrors.New(sperrors.ErrCodeRepoLocked, "repository is locked by another process", nil).
			WithDetail("lock", l.path).
			WithSuggestion("Wait for the other spor command to finish")
	}
	l.locked = true
	return nil
}

// Lock acquires the lock, backing off while another process holds it.
func (l *FileLock) Lock(ctx context.Context, cfg sperrors.RetryConfig) error {
	return sperrors.Retry(ctx, cfg, l.TryLock)
}

// Unlock releases the lock. It is safe to call on an unlocked FileLock.
func (l *FileLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the path to the lock file.
func (l *FileLock) Path() string {
	return l.path
}

// IsLocked returns true if the lock is currently held.
func (l *FileLock) IsLocked() bool {
	return l.locked
}
