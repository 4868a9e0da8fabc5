package quality

import (
	"strings"

	"github.com/mklein/coco/internal/models"
)

// Confidence tier boundaries.
const (
	highConfidence   = 70
	mediumConfidence = 40
)

// AnalysisSummary buckets a batch of diagnoses by confidence tier and
// root-cause category.
type AnalysisSummary struct {
	Total            int
	HighConfidence   int
	MediumConfidence int
	LowConfidence    int
	Categories       map[string]int
}

// rootCauseCategories pairs a category name with the keywords that
// classify a root cause into it. Checked in order; first match wins.
var rootCauseCategories = []struct {
	name     string
	keywords []string
}{
	{"syntax", []string{"syntax", "unexpected token", "parse error", "unterminated"}},
	{"null/undefined", []string{"null", "undefined", "nil pointer", "nilness"}},
	{"assertion", []string{"assert", "expected", "to equal", "to be"}},
	{"type-mismatch", []string{"type", "cannot convert", "not assignable", "mismatch"}},
	{"async", []string{"async", "await", "promise", "race", "goroutine"}},
	{"import/module", []string{"import", "module", "cannot find", "not found", "unresolved"}},
	{"timeout", []string{"timeout", "timed out", "deadline"}},
}

// CategorizeRootCause maps a root-cause description to a keyword
// category, or "other" when nothing matches.
func CategorizeRootCause(rootCause string) string {
	lower := strings.ToLower(rootCause)
	for _, cat := range rootCauseCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				return cat.name
			}
		}
	}
	return "other"
}

// Summarize aggregates diagnoses into confidence tiers (high >= 70,
// medium 40-69, low < 40) and root-cause categories.
func Summarize(results []models.FailureAnalysisResult) AnalysisSummary {
	summary := AnalysisSummary{
		Total:      len(results),
		Categories: make(map[string]int),
	}
	for _, r := range results {
		switch {
		case r.Confidence >= highConfidence:
			summary.HighConfidence++
		case r.Confidence >= mediumConfidence:
			summary.MediumConfidence++
		default:
			summary.LowConfidence++
		}
		summary.Categories[CategorizeRootCause(r.RootCause)]++
	}
	return summary
}
