package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklein/coco/internal/models"
)

func scores(overall float64, dims map[string]float64) models.QualityScores {
	return models.QualityScores{Overall: overall, Dimensions: dims}
}

func TestDetectOverallRegression(t *testing.T) {
	d := NewDetector(DetectorOptions{MinDelta: 2, MinPercentChange: 5, ModerateThreshold: 5, SevereThreshold: 10})

	result := d.Detect(scores(90, nil), scores(80, nil))

	assert.True(t, result.HasRegression)
	assert.True(t, result.OverallRegressed)
	assert.Equal(t, -10.0, result.OverallDelta)
}

func TestDetectOverallDeltaAlwaysComputed(t *testing.T) {
	d := NewDetector(DefaultDetectorOptions())

	result := d.Detect(scores(80, nil), scores(85, nil))
	assert.Equal(t, 5.0, result.OverallDelta)
	assert.False(t, result.OverallRegressed)
	assert.False(t, result.HasRegression)
}

func TestDetectSevereDimensionRegression(t *testing.T) {
	d := NewDetector(DetectorOptions{MinDelta: 2, MinPercentChange: 5, ModerateThreshold: 5, SevereThreshold: 10})

	result := d.Detect(
		scores(90, map[string]float64{"correctness": 95}),
		scores(89, map[string]float64{"correctness": 80}),
	)

	require.Len(t, result.Regressions, 1)
	entry := result.Regressions[0]
	assert.Equal(t, "correctness", entry.Dimension)
	assert.Equal(t, -15.0, entry.Delta)
	assert.Equal(t, models.SeveritySevere, entry.Severity)
	assert.Equal(t, models.SeveritySevere, result.WorstSeverity)
	assert.InDelta(t, -15.79, entry.PercentChange, 0.01)
}

func TestDetectSeverityClassificationIsMonotonic(t *testing.T) {
	d := NewDetector(DetectorOptions{MinDelta: 1, MinPercentChange: 100, ModerateThreshold: 5, SevereThreshold: 10})

	result := d.Detect(
		scores(0, map[string]float64{"a": 50, "b": 50, "c": 50}),
		scores(0, map[string]float64{"a": 47, "b": 43, "c": 38}),
	)

	require.Len(t, result.Regressions, 3)
	bySeverity := map[string]models.Severity{}
	for _, r := range result.Regressions {
		bySeverity[r.Dimension] = r.Severity
	}
	assert.Equal(t, models.SeverityMinor, bySeverity["a"])    // |delta|=3
	assert.Equal(t, models.SeverityModerate, bySeverity["b"]) // |delta|=7
	assert.Equal(t, models.SeveritySevere, bySeverity["c"])   // |delta|=12
}

func TestDetectDualThreshold(t *testing.T) {
	d := NewDetector(DetectorOptions{MinDelta: 5, MinPercentChange: 10, ModerateThreshold: 5, SevereThreshold: 10})

	// delta -1 on a baseline of 5 is only -1 absolute but -20 percent:
	// the percentage threshold catches low-baseline noise the absolute
	// threshold misses, and vice versa.
	result := d.Detect(
		scores(0, map[string]float64{"lowbase": 5, "highbase": 98, "noise": 90}),
		scores(0, map[string]float64{"lowbase": 4, "highbase": 92, "noise": 89}),
	)

	dims := make([]string, 0, len(result.Regressions))
	for _, r := range result.Regressions {
		dims = append(dims, r.Dimension)
	}
	assert.Contains(t, dims, "lowbase")  // percent threshold
	assert.Contains(t, dims, "highbase") // absolute threshold
	assert.NotContains(t, dims, "noise") // under both thresholds
}

func TestDetectImprovementsNeverFlagged(t *testing.T) {
	d := NewDetector(DefaultDetectorOptions())

	result := d.Detect(
		scores(70, map[string]float64{"speed": 50}),
		scores(90, map[string]float64{"speed": 95}),
	)

	assert.False(t, result.HasRegression)
	assert.Empty(t, result.Regressions)
}

func TestDetectIgnoredDimensions(t *testing.T) {
	opts := DefaultDetectorOptions()
	opts.IgnoreDimensions = []string{"style"}
	d := NewDetector(opts)

	result := d.Detect(
		scores(0, map[string]float64{"style": 90}),
		scores(0, map[string]float64{"style": 50}),
	)

	assert.Empty(t, result.Regressions)
}

func TestDetectSkipsDimensionsMissingFromPrevious(t *testing.T) {
	d := NewDetector(DefaultDetectorOptions())

	result := d.Detect(
		scores(0, map[string]float64{"old": 80}),
		scores(0, map[string]float64{"new": 10}),
	)

	assert.Empty(t, result.Regressions)
}

func TestDetectZeroBaselinePercent(t *testing.T) {
	d := NewDetector(DetectorOptions{MinDelta: 2, MinPercentChange: 5, ModerateThreshold: 5, SevereThreshold: 10})

	result := d.Detect(
		scores(0, map[string]float64{"dim": 0}),
		scores(0, map[string]float64{"dim": -4}),
	)

	require.Len(t, result.Regressions, 1)
	assert.Equal(t, 0.0, result.Regressions[0].PercentChange)
}

func TestIsRegressionAcceptable(t *testing.T) {
	minorOnly := models.RegressionResult{
		Regressions:   []models.RegressionEntry{{Severity: models.SeverityMinor}},
		WorstSeverity: models.SeverityMinor,
	}
	assert.True(t, IsRegressionAcceptable(minorOnly, models.SeverityMinor, 2))

	withModerate := models.RegressionResult{
		Regressions:   []models.RegressionEntry{{Severity: models.SeverityModerate}},
		WorstSeverity: models.SeverityModerate,
	}
	assert.False(t, IsRegressionAcceptable(withModerate, models.SeverityMinor, 2))

	tooMany := models.RegressionResult{
		Regressions: []models.RegressionEntry{
			{Severity: models.SeverityMinor},
			{Severity: models.SeverityMinor},
			{Severity: models.SeverityMinor},
		},
		WorstSeverity: models.SeverityMinor,
	}
	assert.False(t, IsRegressionAcceptable(tooMany, models.SeverityMinor, 2))

	clean := models.RegressionResult{}
	assert.True(t, IsRegressionAcceptable(clean, models.SeverityMinor, 0))
}

func TestDetectSummary(t *testing.T) {
	d := NewDetector(DefaultDetectorOptions())

	clean := d.Detect(scores(90, nil), scores(91, nil))
	assert.Equal(t, "no quality regression detected", clean.Summary)

	bad := d.Detect(
		scores(90, map[string]float64{"correctness": 95}),
		scores(70, map[string]float64{"correctness": 80}),
	)
	assert.Contains(t, bad.Summary, "overall score dropped 20.0")
	assert.Contains(t, bad.Summary, "correctness 95.0 -> 80.0 (severe)")
}
