package quality

import (
	"context"
	"path/filepath"

	"github.com/mklein/coco/internal/fsio"
	"github.com/mklein/coco/internal/logger"
	"github.com/mklein/coco/internal/models"
)

// File is one generated file handed to the convergence loop.
type File struct {
	Path    string
	Content string
}

// Loop composes the analyzer and fixer across a file set: it diagnoses
// every failure once, fans the diagnoses out to the files they touch,
// and fixes each file independently.
type Loop struct {
	analyzer *Analyzer
	fixer    *Fixer
	log      logger.Logger
}

// NewLoop creates a convergence loop. log may be nil.
func NewLoop(analyzer *Analyzer, fixer *Fixer, log logger.Logger) *Loop {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Loop{analyzer: analyzer, fixer: fixer, log: log}
}

// Run drives one convergence pass. Every input file produces exactly one
// result, in input order: files with no associated failures pass through
// unchanged, and a failure while fixing one file never aborts the rest.
func (l *Loop) Run(ctx context.Context, files []File, failures []TestFailure) []models.FixResult {
	diagnoses := l.analyzer.AnalyzeAll(ctx, failures)
	summary := Summarize(diagnoses)
	l.log.Infof("analyzed %d failures: %d high / %d medium / %d low confidence",
		summary.Total, summary.HighConfidence, summary.MediumConfidence, summary.LowConfidence)

	byFile := groupByFile(files, diagnoses)

	results := make([]models.FixResult, 0, len(files))
	for _, file := range files {
		fileDiagnoses := byFile[file.Path]
		if len(fileDiagnoses) == 0 {
			results = append(results, models.FixResult{
				File:    file.Path,
				Content: file.Content,
				Success: true,
			})
			continue
		}
		l.log.Infof("fixing %s (%d diagnoses)", file.Path, len(fileDiagnoses))
		results = append(results, l.fixer.GenerateFix(ctx, file.Path, file.Content, fileDiagnoses))
	}
	return results
}

// Apply writes accepted rewrites through fsys, rooted at root for
// relative paths. Only files that actually went through a rewrite are
// written; failed fixes and untouched pass-through files are left
// alone. A write failure for one file does not stop the rest: the last
// error is returned alongside the paths that were written.
func (l *Loop) Apply(fsys fsio.FS, root string, results []models.FixResult) ([]string, error) {
	var written []string
	var lastErr error
	for _, r := range results {
		if !r.Success || r.FixAttempts == 0 {
			continue
		}
		path := r.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		if err := fsys.MkdirAll(filepath.Dir(path)); err != nil {
			l.log.Warnf("failed to create directory for %s: %v", path, err)
			lastErr = err
			continue
		}
		_, statErr := fsys.Stat(path)
		if err := fsys.WriteFile(path, []byte(r.Content)); err != nil {
			l.log.Warnf("failed to write fix for %s: %v", path, err)
			lastErr = err
			continue
		}
		if fsio.IsNotFound(statErr) {
			l.log.Debugf("created %s", path)
		} else {
			l.log.Debugf("updated %s", path)
		}
		written = append(written, path)
	}
	return written, lastErr
}

// groupByFile attaches each diagnosis to its primary location file and
// to every file in AffectedFiles, deduplicated per file. One root cause
// can require edits across several files.
func groupByFile(files []File, diagnoses []models.FailureAnalysisResult) map[string][]models.FailureAnalysisResult {
	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[f.Path] = true
	}

	byFile := make(map[string][]models.FailureAnalysisResult)
	seen := make(map[string]map[int]bool)

	attach := func(path string, idx int) {
		if !known[path] {
			return
		}
		if seen[path] == nil {
			seen[path] = make(map[int]bool)
		}
		if seen[path][idx] {
			return
		}
		seen[path][idx] = true
		byFile[path] = append(byFile[path], diagnoses[idx])
	}

	for i, d := range diagnoses {
		attach(d.Location.File, i)
		for _, affected := range d.AffectedFiles {
			attach(affected, i)
		}
	}
	return byFile
}
