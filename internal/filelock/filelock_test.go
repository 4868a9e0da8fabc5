package filelock

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWriteCreatesFileAndParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deep", "state.json")

	require.NoError(t, AtomicWrite(path, []byte(`{"ok":true}`)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))
}

func TestAtomicWriteReplacesExistingContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	require.NoError(t, AtomicWrite(path, []byte("first")))
	require.NoError(t, AtomicWrite(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	require.NoError(t, AtomicWrite(path, []byte("content")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".tmp-"), "leftover temp file %s", e.Name())
	}
}

func TestWithLockRunsFunctionAndPropagatesError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	ran := false
	require.NoError(t, WithLock(path, func() error {
		ran = true
		return nil
	}))
	assert.True(t, ran)

	wantErr := errors.New("boom")
	err := WithLock(path, func() error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
}

func TestTryWithLockSkipsWhenHeld(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	release := make(chan struct{})
	held := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = WithLock(path, func() error {
			close(held)
			<-release
			return nil
		})
	}()

	<-held
	acquired, err := TryWithLock(path, func() error {
		t.Error("fn must not run when lock is held")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, acquired)

	close(release)
	wg.Wait()

	acquired, err = TryWithLock(path, func() error { return nil })
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestLockedWriteSerializesWriters(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			payload := strings.Repeat("x", 1024)
			assert.NoError(t, LockedWrite(path, []byte(payload)))
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Whole-document semantics: always a complete payload, never interleaved.
	assert.Len(t, data, 1024)
}
