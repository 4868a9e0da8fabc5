package models

// FailureLocation identifies where in the source a test failure points.
type FailureLocation struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Function string `json:"function,omitempty"`
}

// UnknownLocation is the sentinel used when no stack trace pattern matched.
var UnknownLocation = FailureLocation{File: "unknown", Line: 0, Column: 0}

// FailureAnalysisResult is a structured diagnosis of one failing test.
type FailureAnalysisResult struct {
	TestName      string          `json:"test_name"`
	Location      FailureLocation `json:"location"`
	RootCause     string          `json:"root_cause"`
	SuggestedFix  string          `json:"suggested_fix"`
	Confidence    int             `json:"confidence"` // 0-100
	AffectedFiles []string        `json:"affected_files,omitempty"`
}

// FixResult reports the outcome of the convergence loop for one file.
type FixResult struct {
	File           string   `json:"file"`
	Content        string   `json:"-"`
	ChangesApplied []string `json:"changes_applied"`
	FixAttempts    int      `json:"fix_attempts"`
	Success        bool     `json:"success"`
}

// QualityScores is one snapshot of overall and per-dimension quality.
type QualityScores struct {
	Overall    float64            `json:"overall"`
	Dimensions map[string]float64 `json:"dimensions,omitempty"`
}

// Clone returns a copy with its own Dimensions map.
func (q QualityScores) Clone() QualityScores {
	out := q
	if q.Dimensions != nil {
		out.Dimensions = make(map[string]float64, len(q.Dimensions))
		for k, v := range q.Dimensions {
			out.Dimensions[k] = v
		}
	}
	return out
}

// Severity classifies the magnitude of a regression.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// severityRank orders severities for comparison; unknown ranks lowest.
func severityRank(s Severity) int {
	switch s {
	case SeverityMinor:
		return 1
	case SeverityModerate:
		return 2
	case SeveritySevere:
		return 3
	}
	return 0
}

// AtMost reports whether s is no worse than limit on the severity scale.
func (s Severity) AtMost(limit Severity) bool {
	return severityRank(s) <= severityRank(limit)
}

// WorseThan reports whether s outranks other.
func (s Severity) WorseThan(other Severity) bool {
	return severityRank(s) > severityRank(other)
}

// RegressionEntry describes one dimension that got worse.
type RegressionEntry struct {
	Dimension     string   `json:"dimension"`
	PreviousScore float64  `json:"previous_score"`
	CurrentScore  float64  `json:"current_score"`
	Delta         float64  `json:"delta"`
	PercentChange float64  `json:"percent_change"`
	Severity      Severity `json:"severity"`
}

// RegressionResult is the full comparison of two quality snapshots.
type RegressionResult struct {
	HasRegression    bool              `json:"has_regression"`
	Regressions      []RegressionEntry `json:"regressions"`
	OverallDelta     float64           `json:"overall_delta"`
	OverallRegressed bool              `json:"overall_regressed"`
	WorstSeverity    Severity          `json:"worst_severity,omitempty"`
	Summary          string            `json:"summary"`
}
