// Package filelock provides cross-process file locking and
// crash-safe whole-file writes for the checkpoint store.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// WithLock runs fn while holding an exclusive flock on path+".lock".
// The lock is released when fn returns, whether or not it errored.
func WithLock(path string, fn func() error) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock for %s: %w", path, err)
	}
	defer lock.Unlock()
	return fn()
}

// TryWithLock is the non-blocking variant of WithLock. It returns
// (false, nil) without running fn when another process holds the lock.
func TryWithLock(path string, fn func() error) (bool, error) {
	lock := flock.New(path + ".lock")
	acquired, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock for %s: %w", path, err)
	}
	if !acquired {
		return false, nil
	}
	defer lock.Unlock()
	return true, fn()
}

// AtomicWrite replaces the file at path with data so that a reader, or a
// crash at any instant, observes either the old complete content or the
// new complete content, never a partial write.
//
// The data is written to a temp file in the target directory, synced,
// then renamed over the target. Rename within one filesystem is atomic
// on POSIX systems.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	committed = true

	return nil
}

// LockedWrite performs an AtomicWrite while holding the exclusive lock
// for path. Concurrent writers of the same file serialize here.
func LockedWrite(path string, data []byte) error {
	return WithLock(path, func() error {
		return AtomicWrite(path, data)
	})
}
