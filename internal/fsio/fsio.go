// Package fsio abstracts the filesystem operations the orchestration
// core performs, so tests can substitute in-memory implementations and
// "not found" stays distinguishable from other I/O failures.
package fsio

import (
	"errors"
	"io/fs"
	"os"
)

// FS is the narrow filesystem interface consumed by the core.
type FS interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	MkdirAll(path string) error
	Stat(path string) (fs.FileInfo, error)
}

// IsNotFound reports whether err represents an expected-absence
// condition rather than a real I/O failure.
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// OSFS implements FS on the local filesystem.
type OSFS struct{}

// NewOSFS returns the local filesystem implementation.
func NewOSFS() *OSFS { return &OSFS{} }

func (*OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (*OSFS) WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

func (*OSFS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func (*OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}
