// Package diagnosis runs the three checkers over a lesson plan and collects
// their verdicts.
package diagnosis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/abhisek/lessondiag/internal/checks"
	"github.com/abhisek/lessondiag/internal/extract"
	"github.com/abhisek/lessondiag/internal/invoke"
	"github.com/abhisek/lessondiag/internal/rubric"
)

// Result holds one verdict per dimension. Any of them may be an error
// result; the others are still usable.
type Result struct {
	Completeness   extract.Result `json:"completeness"`
	TimeAllocation extract.Result `json:"time_allocation"`
	Literacy       extract.Result `json:"literacy"`
}

// Config controls how a diagnosis is run.
type Config struct {
	// Parallel runs the literacy check alongside the completeness and
	// time-allocation chain.
	Parallel bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Parallel: true}
}

// Service diagnoses lesson plans.
type Service struct {
	invoker *invoke.Invoker
	checker *checks.Checker
	cfg     Config
}

// NewService creates a diagnosis service. A nil rubric selects the default.
func NewService(iv *invoke.Invoker, r *rubric.Rubric, cfg Config) *Service {
	return &Service{
		invoker: iv,
		checker: checks.New(iv, r),
		cfg:     cfg,
	}
}

// Rubric returns the rubric in use.
func (s *Service) Rubric() *rubric.Rubric {
	return s.checker.Rubric()
}

// Diagnose runs all three checks. Time allocation depends on the
// completeness verdict; literacy does not. Failures are carried inside the
// result, never returned.
func (s *Service) Diagnose(ctx context.Context, text string) *Result {
	start := time.Now()
	res := &Result{}

	if s.cfg.Parallel {
		var g errgroup.Group
		g.Go(func() error {
			res.Literacy = s.checker.Literacy(ctx, text)
			return nil
		})
		res.Completeness = s.checker.Completeness(ctx, text)
		res.TimeAllocation = s.checker.TimeAllocation(ctx, text, res.Completeness)
		_ = g.Wait()
	} else {
		res.Completeness = s.checker.Completeness(ctx, text)
		res.TimeAllocation = s.checker.TimeAllocation(ctx, text, res.Completeness)
		res.Literacy = s.checker.Literacy(ctx, text)
	}

	klog.V(1).InfoS("Diagnosis complete",
		"parallel", s.cfg.Parallel,
		"latencyMs", time.Since(start).Milliseconds(),
		"completenessOK", !res.Completeness.IsError(),
		"timeAllocationOK", !res.TimeAllocation.IsError(),
		"literacyOK", !res.Literacy.IsError())
	return res
}

// Failed returns the names of dimensions that hold error results.
func (r *Result) Failed() []string {
	var failed []string
	for _, d := range r.Dimensions() {
		if d.Result.IsError() {
			failed = append(failed, d.Key)
		}
	}
	return failed
}

// Dimension is one named verdict of a Result.
type Dimension struct {
	Key    string
	Title  string
	Result extract.Result
}

// Dimensions returns the verdicts in display order.
func (r *Result) Dimensions() []Dimension {
	return []Dimension{
		{Key: "completeness", Title: "Section completeness", Result: r.Completeness},
		{Key: "time_allocation", Title: "Time allocation", Result: r.TimeAllocation},
		{Key: "literacy", Title: "Core literacy", Result: r.Literacy},
	}
}

var suggestionTemplate = template.Must(template.New("suggestions").Parse(
	`Here is the diagnosis of a lesson plan:
{{.}}

Based on it, write exactly three specific and concise suggestions for the teacher to improve the plan, numbered 1. 2. 3.`))

// SuggestionPrompt renders the suggestion prompt for r.
func SuggestionPrompt(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal diagnosis: %w", err)
	}
	var buf bytes.Buffer
	if err := suggestionTemplate.Execute(&buf, string(data)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Suggest asks the model for three numbered improvement suggestions.
func (s *Service) Suggest(ctx context.Context, r *Result) (string, error) {
	prompt, err := SuggestionPrompt(r)
	if err != nil {
		return "", err
	}
	text, err := s.invoker.Complete(ctx, prompt, invoke.SuggestionParams().With("suggestions"))
	if err != nil {
		return "", fmt.Errorf("generate suggestions: %w", err)
	}
	return text, nil
}
