// Package quality implements the convergence loop that drives the
// complete phase: failing tests are diagnosed, files are rewritten
// through the code-generation interface, and rewrites are accepted only
// after validation. It also houses the regression detector that compares
// quality snapshots release-over-release.
package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mklein/coco/internal/fsio"
	"github.com/mklein/coco/internal/llm"
	"github.com/mklein/coco/internal/logger"
	"github.com/mklein/coco/internal/models"
)

// contextWindow is the number of source lines read on each side of a
// failure location.
const contextWindow = 10

// fallbackConfidence is assigned when the model response could not be
// parsed and the diagnosis had to be synthesized from the raw error.
const fallbackConfidence = 20

// TestFailure is the raw input for one failed test.
type TestFailure struct {
	TestName   string
	Message    string
	StackTrace string
}

// Stack trace locations are recovered with an ordered pair of patterns:
// the "at fn (file:line:col)" frame form first, then a bare
// "file:line:col" anywhere in the trace.
var (
	framePattern = regexp.MustCompile(`at\s+([\w.$<>\[\]]+)\s+\((.+?):(\d+):(\d+)\)`)
	barePattern  = regexp.MustCompile(`([^\s()'"]+):(\d+):(\d+)`)
)

// Analyzer turns failing tests into structured diagnoses via the
// code-understanding interface.
type Analyzer struct {
	client llm.CompletionClient
	fs     fsio.FS
	log    logger.Logger
}

// NewAnalyzer creates an Analyzer. log may be nil.
func NewAnalyzer(client llm.CompletionClient, fs fsio.FS, log logger.Logger) *Analyzer {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Analyzer{client: client, fs: fs, log: log}
}

// ParseLocation recovers the failure location from a stack trace. When
// neither pattern matches it returns the unknown-location sentinel
// rather than failing.
func ParseLocation(stackTrace string) models.FailureLocation {
	if m := framePattern.FindStringSubmatch(stackTrace); m != nil {
		line, _ := strconv.Atoi(m[3])
		col, _ := strconv.Atoi(m[4])
		return models.FailureLocation{File: m[2], Line: line, Column: col, Function: m[1]}
	}
	if m := barePattern.FindStringSubmatch(stackTrace); m != nil {
		line, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		return models.FailureLocation{File: m[1], Line: line, Column: col}
	}
	return models.UnknownLocation
}

// sourceContext reads a window of lines around the location. An
// unreadable file yields an explanatory placeholder, never an error.
func (a *Analyzer) sourceContext(loc models.FailureLocation) string {
	if loc == models.UnknownLocation {
		return "(no source context: location unknown)"
	}
	data, err := a.fs.ReadFile(loc.File)
	if err != nil {
		return fmt.Sprintf("(source unavailable for %s: %v)", loc.File, err)
	}

	lines := strings.Split(string(data), "\n")
	start := loc.Line - 1 - contextWindow
	if start < 0 {
		start = 0
	}
	end := loc.Line + contextWindow
	if end > len(lines) {
		end = len(lines)
	}

	var sb strings.Builder
	for i := start; i < end; i++ {
		marker := "  "
		if i == loc.Line-1 {
			marker = "> "
		}
		fmt.Fprintf(&sb, "%s%4d | %s\n", marker, i+1, lines[i])
	}
	return sb.String()
}

// diagnosisResponse mirrors the structured reply requested from the model.
type diagnosisResponse struct {
	RootCause     string   `json:"root_cause"`
	SuggestedFix  string   `json:"suggested_fix"`
	Confidence    int      `json:"confidence"`
	AffectedFiles []string `json:"affected_files"`
}

// Analyze produces a structured diagnosis for one failing test. Model
// errors and unparsable responses degrade to a low-confidence diagnosis
// synthesized from the raw failure message.
func (a *Analyzer) Analyze(ctx context.Context, failure TestFailure) models.FailureAnalysisResult {
	loc := ParseLocation(failure.StackTrace)
	srcContext := a.sourceContext(loc)

	result := models.FailureAnalysisResult{
		TestName: failure.TestName,
		Location: loc,
	}

	completion, err := a.client.Complete(ctx, []llm.Message{
		{Role: "system", Content: "You are a test failure analyst. Respond with a JSON object containing root_cause, suggested_fix, confidence (0-100), and affected_files."},
		{Role: "user", Content: a.buildPrompt(failure, loc, srcContext)},
	}, llm.CompleteOptions{})
	if err != nil {
		a.log.Warnf("diagnosis call failed for %s: %v", failure.TestName, err)
		return a.fallback(result, failure)
	}

	raw, ok := llm.ExtractJSON(completion.Content)
	if !ok {
		a.log.Warnf("unparsable diagnosis for %s, using fallback", failure.TestName)
		return a.fallback(result, failure)
	}

	var parsed diagnosisResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return a.fallback(result, failure)
	}

	if parsed.RootCause == "" {
		// Reject the whole parse so the degraded diagnosis is uniform:
		// no affected-files list from a response with no root cause.
		return a.fallback(result, failure)
	}

	result.RootCause = parsed.RootCause
	result.SuggestedFix = parsed.SuggestedFix
	result.Confidence = clampConfidence(parsed.Confidence)
	result.AffectedFiles = parsed.AffectedFiles
	return result
}

// AnalyzeAll diagnoses every failure, isolating each one: a bad input
// degrades its own result and never aborts the batch.
func (a *Analyzer) AnalyzeAll(ctx context.Context, failures []TestFailure) []models.FailureAnalysisResult {
	results := make([]models.FailureAnalysisResult, 0, len(failures))
	for _, failure := range failures {
		results = append(results, a.Analyze(ctx, failure))
	}
	return results
}

func (a *Analyzer) buildPrompt(failure TestFailure, loc models.FailureLocation, srcContext string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Failing test: %s\n", failure.TestName)
	fmt.Fprintf(&sb, "Failure message:\n%s\n\n", failure.Message)
	fmt.Fprintf(&sb, "Stack trace:\n%s\n\n", failure.StackTrace)
	if loc != models.UnknownLocation {
		fmt.Fprintf(&sb, "Location: %s:%d:%d\n", loc.File, loc.Line, loc.Column)
	}
	fmt.Fprintf(&sb, "Source context:\n%s\n", srcContext)
	sb.WriteString("Diagnose the root cause and suggest a fix.")
	return sb.String()
}

// fallback synthesizes a diagnosis from the raw failure when the model
// could not be consulted or did not return structured output.
func (a *Analyzer) fallback(result models.FailureAnalysisResult, failure TestFailure) models.FailureAnalysisResult {
	msg := strings.TrimSpace(failure.Message)
	if msg == "" {
		msg = "test failed without a message"
	}
	result.RootCause = msg
	result.SuggestedFix = "Inspect the failing assertion and surrounding code."
	result.Confidence = fallbackConfidence
	return result
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
