package llm

import (
	"encoding/json"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// ExtractJSON recovers the first well-formed JSON object from a
// free-form model response. Models asked for structured output often
// wrap it in prose or markdown fences, so extraction tries, in order:
//
//  1. the whole response, trimmed
//  2. fenced code blocks, in document order
//  3. the first balanced {...} span found by scanning
//
// Returns (nil, false) when no candidate parses as a JSON object; the
// caller is expected to degrade, not fail.
func ExtractJSON(response string) (json.RawMessage, bool) {
	if raw, ok := tryParseObject(strings.TrimSpace(response)); ok {
		return raw, true
	}

	src := []byte(response)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var found json.RawMessage
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || found != nil {
			return ast.WalkContinue, nil
		}
		fence, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		var sb strings.Builder
		lines := fence.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			sb.Write(seg.Value(src))
		}
		if raw, ok := tryParseObject(strings.TrimSpace(sb.String())); ok {
			found = raw
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if found != nil {
		return found, true
	}

	return scanForObject(response)
}

// ExtractCode returns the replacement file content from a model
// response. Models asked for a full-file rewrite sometimes wrap it in a
// markdown fence; when the response is a single fenced block the fence
// content is returned, otherwise the trimmed response is taken verbatim.
func ExtractCode(response string) string {
	trimmed := strings.TrimSpace(response)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	src := []byte(response)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var code string
	found := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || found {
			return ast.WalkContinue, nil
		}
		fence, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		var sb strings.Builder
		lines := fence.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			sb.Write(seg.Value(src))
		}
		code = sb.String()
		found = true
		return ast.WalkStop, nil
	})
	if found {
		return strings.TrimRight(code, "\n")
	}
	return trimmed
}

// tryParseObject accepts s only when it is a complete JSON object.
func tryParseObject(s string) (json.RawMessage, bool) {
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return json.RawMessage(s), true
}

// scanForObject finds the first balanced brace span that parses as a
// JSON object, tolerating braces inside string literals.
func scanForObject(s string) (json.RawMessage, bool) {
	for start := 0; start < len(s); start++ {
		if s[start] != '{' {
			continue
		}
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(s); i++ {
			c := s[i]
			switch {
			case escaped:
				escaped = false
			case c == '\\' && inString:
				escaped = true
			case c == '"':
				inString = !inString
			case inString:
				// ignore braces inside strings
			case c == '{':
				depth++
			case c == '}':
				depth--
				if depth == 0 {
					if raw, ok := tryParseObject(s[start : i+1]); ok {
						return raw, true
					}
					i = len(s) // abandon this start position
				}
			}
		}
	}
	return nil, false
}
