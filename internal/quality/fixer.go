package quality

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mklein/coco/internal/llm"
	"github.com/mklein/coco/internal/logger"
	"github.com/mklein/coco/internal/models"
)

// DefaultMaxFixAttempts bounds the rewrite attempts per file.
const DefaultMaxFixAttempts = 3

// changeSummaryLimit truncates root-cause text in change summaries.
const changeSummaryLimit = 80

// Fixer turns diagnoses into validated full-file rewrites. A rewrite is
// accepted only after the validator passes it; an unvalidated fix is
// never shipped.
type Fixer struct {
	client      llm.CompletionClient
	validator   llm.Validator
	maxAttempts int
	log         logger.Logger
}

// NewFixer creates a Fixer. maxAttempts <= 0 selects the default of 3;
// log may be nil.
func NewFixer(client llm.CompletionClient, validator llm.Validator, maxAttempts int, log logger.Logger) *Fixer {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxFixAttempts
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Fixer{client: client, validator: validator, maxAttempts: maxAttempts, log: log}
}

// GenerateFix requests a complete replacement of the file's content and
// validates it before acceptance, retrying up to the attempt budget.
// On exhaustion the original content is returned with Success=false.
// GenerateFix never returns an error: every failure mode inside one
// file degrades to an unsuccessful result so batch callers stay alive.
func (f *Fixer) GenerateFix(ctx context.Context, file, content string, failures []models.FailureAnalysisResult) models.FixResult {
	result := models.FixResult{File: file, Content: content}
	language := languageFor(file)

	// Validator rejections feed back into the next attempt's prompt.
	working := make([]models.FailureAnalysisResult, len(failures))
	copy(working, failures)

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		result.FixAttempts = attempt

		completion, err := f.client.Complete(ctx, f.buildMessages(file, content, working, attempt), llm.CompleteOptions{})
		if err != nil {
			f.log.Warnf("fix attempt %d/%d for %s failed: %v", attempt, f.maxAttempts, file, err)
			continue
		}

		candidate := llm.ExtractCode(completion.Content)
		if strings.TrimSpace(candidate) == "" {
			f.log.Warnf("fix attempt %d/%d for %s returned empty content", attempt, f.maxAttempts, file)
			continue
		}

		validation, err := f.validator.Validate(ctx, candidate, file, language)
		if err != nil {
			f.log.Warnf("validator error on %s (attempt %d/%d): %v", file, attempt, f.maxAttempts, err)
			continue
		}
		if !validation.Valid {
			working = append(working, syntaxValidationFailure(file, validation.Errors))
			f.log.Debugf("rejected fix for %s (attempt %d/%d): %s",
				file, attempt, f.maxAttempts, strings.Join(validation.Errors, "; "))
			continue
		}

		result.Content = candidate
		result.Success = true
		for _, failure := range failures {
			result.ChangesApplied = append(result.ChangesApplied, changeSummary(failure))
		}
		return result
	}

	// Budget exhausted without a valid rewrite: ship the original.
	result.Content = content
	result.Success = false
	result.FixAttempts = f.maxAttempts
	return result
}

// buildMessages assembles the rewrite request. Retries are marked
// explicitly so the model knows earlier attempts were rejected.
func (f *Fixer) buildMessages(file, content string, failures []models.FailureAnalysisResult, attempt int) []llm.Message {
	var sb strings.Builder
	if attempt > 1 {
		fmt.Fprintf(&sb, "RETRY %d: previous attempts were rejected by validation. ", attempt)
		sb.WriteString("Return a corrected complete file.\n\n")
	}
	fmt.Fprintf(&sb, "Rewrite the file %s to fix the failures below. ", file)
	sb.WriteString("Return the COMPLETE replacement file content, not a diff.\n\n")

	sb.WriteString("Failures:\n")
	for i, failure := range failures {
		fmt.Fprintf(&sb, "%d. test=%s location=%s:%d root_cause=%s suggested_fix=%s confidence=%d\n",
			i+1, failure.TestName, failure.Location.File, failure.Location.Line,
			failure.RootCause, failure.SuggestedFix, failure.Confidence)
	}

	fmt.Fprintf(&sb, "\nCurrent content of %s:\n%s\n", file, content)

	return []llm.Message{
		{Role: "system", Content: "You are a code repair assistant. Output only the complete replacement file content."},
		{Role: "user", Content: sb.String()},
	}
}

// syntaxValidationFailure synthesizes the diagnosis entry fed back into
// retry prompts after a validator rejection.
func syntaxValidationFailure(file string, errors []string) models.FailureAnalysisResult {
	detail := "validator rejected the generated content"
	if len(errors) > 0 {
		detail = strings.Join(errors, "; ")
	}
	return models.FailureAnalysisResult{
		TestName:     "Syntax Validation",
		Location:     models.FailureLocation{File: file},
		RootCause:    detail,
		SuggestedFix: "Produce syntactically valid code for " + file,
		Confidence:   100,
	}
}

// changeSummary renders one human-readable line for an applied fix.
func changeSummary(failure models.FailureAnalysisResult) string {
	cause := failure.RootCause
	if len(cause) > changeSummaryLimit {
		cause = cause[:changeSummaryLimit] + "..."
	}
	return fmt.Sprintf("Fixed %s: %s", failure.TestName, cause)
}

// languageFor infers the validator language hint from the extension.
func languageFor(file string) string {
	switch filepath.Ext(file) {
	case ".ts", ".tsx":
		return "typescript"
	case ".js", ".jsx", ".mjs":
		return "javascript"
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".rs":
		return "rust"
	default:
		return strings.TrimPrefix(filepath.Ext(file), ".")
	}
}
