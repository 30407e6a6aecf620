// Package llmjson extracts a JSON object from model output that may be
// wrapped in code fences or surrounded by commentary.
package llmjson

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	leadingFence  = regexp.MustCompile("^```(?:json|JSON)?\\s*")
	trailingFence = regexp.MustCompile("\\s*```$")
)

// SyntaxError is returned when neither the cleaned text nor its outermost
// brace span parses. It carries the error of the first attempt.
type SyntaxError struct {
	Err error
}

func (e *SyntaxError) Error() string {
	return e.Err.Error()
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Clean strips surrounding whitespace and code fences.
func Clean(raw string) string {
	text := strings.TrimSpace(raw)
	text = leadingFence.ReplaceAllString(text, "")
	text = trailingFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Parse decodes raw into a generic JSON object.
func Parse(raw string) (map[string]any, error) {
	var out map[string]any
	if err := Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Unmarshal decodes raw into v. The cleaned text is tried first, then the
// span from the first '{' to the last '}'.
func Unmarshal(raw string, v any) error {
	text := Clean(raw)

	firstErr := json.Unmarshal([]byte(text), v)
	if firstErr == nil {
		return nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), v); err == nil {
			return nil
		}
	}

	return &SyntaxError{Err: firstErr}
}
