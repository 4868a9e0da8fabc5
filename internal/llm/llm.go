// Package llm defines the collaborator interfaces the orchestration core
// consumes: model completion and code validation. Implementations live in
// the provider layer; this package only fixes the contracts and provides
// response parsing helpers.
package llm

import "context"

// Message is one turn of a completion conversation.
type Message struct {
	Role    string `json:"role"` // "system", "user", or "assistant"
	Content string `json:"content"`
}

// CompleteOptions carries per-request completion settings.
type CompleteOptions struct {
	MaxTokens   int
	Temperature float64
}

// Completion is the raw result of a model call. Content may be free-form
// text even when structured output was requested; use ExtractJSON to
// recover the structured part.
type Completion struct {
	Content string
}

// CompletionClient is the code-generation interface. It is used both for
// diagnosis generation and for full-file fix rewrites.
type CompletionClient interface {
	Complete(ctx context.Context, messages []Message, opts CompleteOptions) (*Completion, error)
}

// ValidationResult reports whether code passed syntactic validation.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Validator is the code-validator interface gating fix acceptance.
type Validator interface {
	Validate(ctx context.Context, code, filePath, language string) (*ValidationResult, error)
}
