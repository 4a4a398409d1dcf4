// Package report renders a finished diagnosis for people (styled terminal
// text) and for programs (JSON).
package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/abhisek/lessondiag/internal/diagnosis"
	"github.com/abhisek/lessondiag/internal/llm"
	"github.com/abhisek/lessondiag/internal/rubric"
	"github.com/abhisek/lessondiag/internal/scoring"
)

// Report is everything produced by one diagnosis run.
type Report struct {
	RunID     string            `json:"run_id"`
	Model     string            `json:"model"`
	Diagnosis *diagnosis.Result `json:"diagnosis"`
	SubScores scoring.SubScores `json:"sub_scores"`
	Score     float64           `json:"score"`
	Warnings  []Warning         `json:"warnings,omitempty"`
	Notices   []string          `json:"notices,omitempty"`

	// Suggestions holds the model's advice; SuggestionError replaces it when
	// the call failed. Both are empty when suggestions were not requested.
	Suggestions     string `json:"suggestions,omitempty"`
	SuggestionError string `json:"suggestion_error,omitempty"`

	Usage        llm.Usage     `json:"usage"`
	CostUSD      float64       `json:"cost_usd"`
	CostComplete bool          `json:"cost_complete"`
	Elapsed      time.Duration `json:"elapsed_ns"`
}

// Warning notes a dimension whose verdict does not match its expected
// shape. Warnings are informational; scoring is unaffected.
type Warning struct {
	Dimension string `json:"dimension"`
	Message   string `json:"message"`
}

var schemas = map[string]*llm.Schema{
	"completeness":    rubric.CompletenessSchema,
	"time_allocation": rubric.TimeAllocationSchema,
	"literacy":        rubric.LiteracySchema,
}

// Conformance checks each healthy verdict against its output schema.
// Error results are reported by the diagnosis itself and skipped here.
func Conformance(r *diagnosis.Result) []Warning {
	var warnings []Warning
	for _, d := range r.Dimensions() {
		if d.Result.IsError() {
			continue
		}
		if err := llm.Conform(schemas[d.Key], map[string]any(d.Result)); err != nil {
			warnings = append(warnings, Warning{Dimension: d.Key, Message: err.Error()})
		}
	}
	return warnings
}

// JSON writes r as indented JSON.
func JSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}
