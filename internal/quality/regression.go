package quality

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mklein/coco/internal/models"
)

// DetectorOptions tunes regression detection thresholds.
type DetectorOptions struct {
	// MinDelta is the minimum absolute score drop flagged as a regression.
	MinDelta float64

	// MinPercentChange is the minimum percentage drop flagged as a
	// regression. Either threshold is sufficient; the dual test avoids
	// noise at very low and very high baselines.
	MinPercentChange float64

	// ModerateThreshold and SevereThreshold classify flagged regressions
	// by |delta|. Must be monotonic: SevereThreshold >= ModerateThreshold.
	ModerateThreshold float64
	SevereThreshold   float64

	// IgnoreDimensions excludes dimensions from comparison entirely.
	IgnoreDimensions []string
}

// DefaultDetectorOptions mirrors the config defaults.
func DefaultDetectorOptions() DetectorOptions {
	return DetectorOptions{
		MinDelta:          2.0,
		MinPercentChange:  5.0,
		ModerateThreshold: 5.0,
		SevereThreshold:   10.0,
	}
}

// Detector compares two quality snapshots. It is a pure function over
// its inputs: no state, no side effects.
type Detector struct {
	opts DetectorOptions
}

// NewDetector creates a Detector with the given options.
func NewDetector(opts DetectorOptions) *Detector {
	return &Detector{opts: opts}
}

// Detect compares previous and current snapshots dimension by dimension
// and computes the independent overall check.
func (d *Detector) Detect(previous, current models.QualityScores) models.RegressionResult {
	result := models.RegressionResult{
		OverallDelta: current.Overall - previous.Overall,
	}
	result.OverallRegressed = result.OverallDelta < -d.opts.MinDelta

	ignored := make(map[string]bool, len(d.opts.IgnoreDimensions))
	for _, dim := range d.opts.IgnoreDimensions {
		ignored[dim] = true
	}

	// Deterministic iteration over the dimensions scored in both snapshots
	names := make([]string, 0, len(current.Dimensions))
	for name := range current.Dimensions {
		if _, inPrevious := previous.Dimensions[name]; inPrevious && !ignored[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		prev := previous.Dimensions[name]
		curr := current.Dimensions[name]
		delta := curr - prev
		if delta >= 0 {
			continue
		}

		percentChange := 0.0
		if prev != 0 {
			percentChange = delta / prev * 100
		}

		if math.Abs(delta) < d.opts.MinDelta && math.Abs(percentChange) < d.opts.MinPercentChange {
			continue
		}

		entry := models.RegressionEntry{
			Dimension:     name,
			PreviousScore: prev,
			CurrentScore:  curr,
			Delta:         delta,
			PercentChange: percentChange,
			Severity:      d.classify(math.Abs(delta)),
		}
		result.Regressions = append(result.Regressions, entry)
		if entry.Severity.WorseThan(result.WorstSeverity) {
			result.WorstSeverity = entry.Severity
		}
	}

	result.HasRegression = len(result.Regressions) > 0 || result.OverallRegressed
	result.Summary = d.summarize(result)
	return result
}

// classify maps |delta| onto the monotonic severity scale.
func (d *Detector) classify(magnitude float64) models.Severity {
	switch {
	case magnitude >= d.opts.SevereThreshold:
		return models.SeveritySevere
	case magnitude >= d.opts.ModerateThreshold:
		return models.SeverityModerate
	default:
		return models.SeverityMinor
	}
}

func (d *Detector) summarize(result models.RegressionResult) string {
	if !result.HasRegression {
		return "no quality regression detected"
	}
	parts := make([]string, 0, len(result.Regressions)+1)
	if result.OverallRegressed {
		parts = append(parts, fmt.Sprintf("overall score dropped %.1f", -result.OverallDelta))
	}
	for _, r := range result.Regressions {
		parts = append(parts, fmt.Sprintf("%s %.1f -> %.1f (%s)", r.Dimension, r.PreviousScore, r.CurrentScore, r.Severity))
	}
	return strings.Join(parts, "; ")
}

// IsRegressionAcceptable reports whether the result is tolerable: the
// worst observed severity must be at most maxSeverity AND the regression
// count must not exceed maxCount. Both bounds are required.
func IsRegressionAcceptable(result models.RegressionResult, maxSeverity models.Severity, maxCount int) bool {
	if len(result.Regressions) > maxCount {
		return false
	}
	if result.WorstSeverity != "" && !result.WorstSeverity.AtMost(maxSeverity) {
		return false
	}
	return true
}
