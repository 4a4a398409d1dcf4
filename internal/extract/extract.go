// Package extract recovers a JSON object from free-form model output.
//
// Models wrap JSON in markdown fences, prepend explanations and append
// sign-offs even when told not to. Extract strips that noise and, when the
// remainder still does not decode, returns an error result with enough of
// the original text to debug the failure.
package extract

import (
	"encoding/json"
	"strings"
)

const (
	fence = "```"

	// snippetRunes bounds the raw and cleaned text kept in error results.
	snippetRunes = 200
)

// Extract decodes the JSON object embedded in raw. It never returns nil.
func Extract(raw string) Result {
	cleaned := Clean(raw)

	var v any
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		return Result{
			ErrorKey:       LabelNotJSON,
			ParseErrorKey:  err.Error(),
			RawHeadKey:     head(raw, snippetRunes),
			CleanedHeadKey: head(cleaned, snippetRunes),
		}
	}

	obj, ok := v.(map[string]any)
	if !ok || obj == nil {
		return Result{
			ErrorKey:       LabelNotObject,
			RawHeadKey:     head(raw, snippetRunes),
			CleanedHeadKey: head(cleaned, snippetRunes),
		}
	}
	return Result(obj)
}

// Clean strips a leading markdown fence (with its language tag line), a
// trailing fence, and any prose outside the outermost braces.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, fence) {
		if i := strings.IndexByte(s, '\n'); i != -1 {
			s = s[i+1:]
		}
		if strings.HasSuffix(s, fence) {
			s = strings.TrimSpace(s[:len(s)-len(fence)])
		}
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start != -1 && end != -1 && end > start {
		s = s[start : end+1]
	}

	return strings.TrimSpace(s)
}

// head returns at most n runes of s.
func head(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
