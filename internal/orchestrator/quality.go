package orchestrator

import (
	"context"
	"fmt"

	"github.com/mklein/coco/internal/models"
	"github.com/mklein/coco/internal/quality"
)

// ConvergeQuality runs one pass of the quality convergence loop over the
// generated files, writes accepted rewrites to the project through the
// filesystem interface, and records the resulting quality snapshot. When
// a previous snapshot exists and a detector is configured, the two are
// compared and the regression result is returned alongside the fixes.
//
// The loop guarantees one result per input file, fixed or original;
// ConvergeQuality never discards a file.
func (o *Orchestrator) ConvergeQuality(ctx context.Context, files []quality.File, failures []quality.TestFailure, scores models.QualityScores) ([]models.FixResult, *models.RegressionResult, error) {
	if o.loop == nil {
		return nil, nil, fmt.Errorf("no convergence loop configured")
	}

	results := o.loop.Run(ctx, files, failures)

	written, err := o.loop.Apply(o.fs, o.state.Metadata.ProjectPath, results)
	if err != nil {
		o.log.Warnf("some fixes could not be written: %v", err)
	}
	if len(written) > 0 {
		o.log.Infof("applied %d fix(es) to %s", len(written), o.state.Metadata.ProjectPath)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, file := range files {
		o.trackGeneratedFile(file.Path)
	}

	var regression *models.RegressionResult
	if o.detector != nil && len(o.state.QualityHistory) > 0 {
		previous := o.state.QualityHistory[len(o.state.QualityHistory)-1]
		r := o.detector.Detect(previous, scores)
		regression = &r
		if r.HasRegression {
			o.log.Warnf("quality regression: %s", r.Summary)
		} else {
			o.log.Debugf("quality check clean: overall delta %+.1f", r.OverallDelta)
		}
	}
	o.state.QualityHistory = append(o.state.QualityHistory, scores)

	return results, regression, nil
}

// trackGeneratedFile records a generated file once. Caller holds o.mu.
func (o *Orchestrator) trackGeneratedFile(path string) {
	for _, existing := range o.state.GeneratedFiles {
		if existing == path {
			return
		}
	}
	o.state.GeneratedFiles = append(o.state.GeneratedFiles, path)
}
