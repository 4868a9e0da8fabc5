package quality

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklein/coco/internal/fsio"
	"github.com/mklein/coco/internal/llm"
	"github.com/mklein/coco/internal/models"
)

// newTestLoop wires a loop whose analyzer returns canned diagnoses and
// whose fixer behaves per the supplied client/validator.
func newTestLoop(analyzerClient, fixerClient *mockClient, validator *mockValidator) *Loop {
	analyzer := NewAnalyzer(analyzerClient, fsio.NewMemFS(), nil)
	fixer := NewFixer(fixerClient, validator, 3, nil)
	return NewLoop(analyzer, fixer, nil)
}

func TestLoopFansOutToAffectedFiles(t *testing.T) {
	// One diagnosis: primary location a.ts, also affects b.ts
	analyzerClient := &mockClient{completeFunc: func(context.Context, []llm.Message, llm.CompleteOptions) (*llm.Completion, error) {
		return &llm.Completion{Content: `{"root_cause": "shared constant wrong", "confidence": 90, "affected_files": ["b.ts"]}`}, nil
	}}
	fixerClient := &mockClient{completeFunc: func(context.Context, []llm.Message, llm.CompleteOptions) (*llm.Completion, error) {
		return &llm.Completion{Content: "fixed content"}, nil
	}}

	loop := newTestLoop(analyzerClient, fixerClient, acceptAll())
	files := []File{
		{Path: "a.ts", Content: "a original"},
		{Path: "b.ts", Content: "b original"},
		{Path: "c.ts", Content: "c original"},
	}
	failures := []TestFailure{{TestName: "t", StackTrace: "at fn (a.ts:1:1)"}}

	results := loop.Run(context.Background(), files, failures)
	require.Len(t, results, 3)

	// a and b were rewritten
	assert.Equal(t, "a.ts", results[0].File)
	assert.True(t, results[0].Success)
	assert.Equal(t, "fixed content", results[0].Content)
	assert.Equal(t, 1, results[0].FixAttempts)

	assert.Equal(t, "b.ts", results[1].File)
	assert.Equal(t, "fixed content", results[1].Content)

	// c had no failures: pass-through, zero attempts
	assert.Equal(t, "c.ts", results[2].File)
	assert.True(t, results[2].Success)
	assert.Equal(t, "c original", results[2].Content)
	assert.Zero(t, results[2].FixAttempts)
}

func TestLoopIsolatesPerFileFailures(t *testing.T) {
	analyzerClient := &mockClient{completeFunc: func(context.Context, []llm.Message, llm.CompleteOptions) (*llm.Completion, error) {
		return &llm.Completion{Content: `{"root_cause": "broken in both", "confidence": 80, "affected_files": ["a.ts", "b.ts"]}`}, nil
	}}
	// The fixer's client fails only for a.ts rewrites
	fixerClient := &mockClient{}
	fixerClient.completeFunc = func(_ context.Context, messages []llm.Message, _ llm.CompleteOptions) (*llm.Completion, error) {
		if strings.Contains(messages[len(messages)-1].Content, "Rewrite the file a.ts") {
			return nil, errors.New("provider exploded")
		}
		return &llm.Completion{Content: "fixed b"}, nil
	}

	loop := newTestLoop(analyzerClient, fixerClient, acceptAll())
	files := []File{
		{Path: "a.ts", Content: "a original"},
		{Path: "b.ts", Content: "b original"},
	}
	failures := []TestFailure{{TestName: "t", StackTrace: "at fn (a.ts:1:1)"}}

	results := loop.Run(context.Background(), files, failures)
	require.Len(t, results, 2)

	// a fell back to its original content without aborting the batch
	assert.False(t, results[0].Success)
	assert.Equal(t, "a original", results[0].Content)

	assert.True(t, results[1].Success)
	assert.Equal(t, "fixed b", results[1].Content)
}

func TestLoopDeduplicatesDiagnosisPerFile(t *testing.T) {
	// Primary location and affected_files name the same file
	analyzerClient := &mockClient{completeFunc: func(context.Context, []llm.Message, llm.CompleteOptions) (*llm.Completion, error) {
		return &llm.Completion{Content: `{"root_cause": "dup", "confidence": 90, "affected_files": ["a.ts"]}`}, nil
	}}

	var prompt string
	fixerClient := &mockClient{completeFunc: func(_ context.Context, messages []llm.Message, _ llm.CompleteOptions) (*llm.Completion, error) {
		prompt = messages[len(messages)-1].Content
		return &llm.Completion{Content: "fixed"}, nil
	}}

	loop := newTestLoop(analyzerClient, fixerClient, acceptAll())
	files := []File{{Path: "a.ts", Content: "orig"}}
	failures := []TestFailure{{TestName: "t", StackTrace: "at fn (a.ts:1:1)"}}

	results := loop.Run(context.Background(), files, failures)
	require.Len(t, results, 1)
	require.True(t, results[0].Success)
	assert.Len(t, results[0].ChangesApplied, 1)
	assert.Equal(t, 1, strings.Count(prompt, "root_cause=dup"))
}

func TestLoopIgnoresDiagnosesForUnknownFiles(t *testing.T) {
	analyzerClient := &mockClient{completeFunc: func(context.Context, []llm.Message, llm.CompleteOptions) (*llm.Completion, error) {
		return &llm.Completion{Content: `{"root_cause": "elsewhere", "confidence": 90}`}, nil
	}}
	fixerClient := &mockClient{}

	loop := newTestLoop(analyzerClient, fixerClient, acceptAll())
	files := []File{{Path: "a.ts", Content: "orig"}}
	failures := []TestFailure{{TestName: "t", StackTrace: "at fn (vendor/lib.ts:1:1)"}}

	results := loop.Run(context.Background(), files, failures)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "orig", results[0].Content)
	assert.Zero(t, fixerClient.calls)
}

func TestLoopNoFailuresPassesEverythingThrough(t *testing.T) {
	loop := newTestLoop(&mockClient{}, &mockClient{}, acceptAll())
	files := []File{
		{Path: "a.ts", Content: "a"},
		{Path: "b.ts", Content: "b"},
	}

	results := loop.Run(context.Background(), files, nil)
	require.Len(t, results, 2)
	for i, r := range results {
		assert.True(t, r.Success)
		assert.Equal(t, files[i].Content, r.Content)
	}
}

// failWriteFS wraps a MemFS and fails writes for one path.
type failWriteFS struct {
	*fsio.MemFS
	failPath string
}

func (f *failWriteFS) WriteFile(path string, data []byte) error {
	if path == f.failPath {
		return errors.New("disk full")
	}
	return f.MemFS.WriteFile(path, data)
}

func TestLoopApplyWritesAcceptedRewrites(t *testing.T) {
	mem := fsio.NewMemFS()
	loop := newTestLoop(&mockClient{}, &mockClient{}, acceptAll())

	results := []models.FixResult{
		{File: "src/a.ts", Content: "fixed a", FixAttempts: 1, Success: true},
		{File: "b.ts", Content: "b original", FixAttempts: 3, Success: false},
		{File: "c.ts", Content: "c original", FixAttempts: 0, Success: true},
	}

	written, err := loop.Apply(mem, "/proj", results)
	require.NoError(t, err)
	assert.Equal(t, []string{"/proj/src/a.ts"}, written)

	data, err := mem.ReadFile("/proj/src/a.ts")
	require.NoError(t, err)
	assert.Equal(t, "fixed a", string(data))

	// Failed and pass-through results are never written
	assert.Equal(t, []string{"/proj/src/a.ts"}, mem.Paths())
}

func TestLoopApplyIsolatesWriteFailures(t *testing.T) {
	fsys := &failWriteFS{MemFS: fsio.NewMemFS(), failPath: "/proj/a.ts"}
	loop := newTestLoop(&mockClient{}, &mockClient{}, acceptAll())

	results := []models.FixResult{
		{File: "a.ts", Content: "fixed a", FixAttempts: 1, Success: true},
		{File: "b.ts", Content: "fixed b", FixAttempts: 1, Success: true},
	}

	written, err := loop.Apply(fsys, "/proj", results)
	require.Error(t, err)
	assert.Equal(t, []string{"/proj/b.ts"}, written)
}

func TestLoopApplyOverwritesExistingFile(t *testing.T) {
	mem := fsio.NewMemFS()
	require.NoError(t, mem.WriteFile("/proj/a.ts", []byte("old")))
	loop := newTestLoop(&mockClient{}, &mockClient{}, acceptAll())

	written, err := loop.Apply(mem, "/proj", []models.FixResult{
		{File: "a.ts", Content: "new", FixAttempts: 2, Success: true},
	})
	require.NoError(t, err)
	require.Len(t, written, 1)

	data, err := mem.ReadFile("/proj/a.ts")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}
