// Package checks implements the three lesson-plan checkers. Each renders a
// prompt from the rubric, sends it through a Model and returns the model's
// verdict unmodified.
package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"k8s.io/klog/v2"

	"github.com/abhisek/lessondiag/internal/extract"
	"github.com/abhisek/lessondiag/internal/invoke"
	"github.com/abhisek/lessondiag/internal/rubric"
)

// Stage names, also used as log purposes.
const (
	StageCompleteness   = "completeness"
	StageTimeAllocation = "time-allocation"
	StageLiteracy       = "literacy"
)

// Model sends a prompt and returns a structured result. *invoke.Invoker
// satisfies it.
type Model interface {
	Invoke(ctx context.Context, prompt string, p invoke.Params) extract.Result
}

// Checker runs the individual checks against one rubric.
type Checker struct {
	model  Model
	rubric *rubric.Rubric
	params invoke.Params
}

// New creates a Checker. A nil rubric selects the default one.
func New(model Model, r *rubric.Rubric) *Checker {
	if r == nil {
		r = rubric.Default()
	}
	return &Checker{model: model, rubric: r, params: invoke.AnalyticalParams()}
}

// Rubric returns the rubric the checker renders.
func (c *Checker) Rubric() *rubric.Rubric {
	return c.rubric
}

// Completeness checks which canonical sections are present and substantive.
func (c *Checker) Completeness(ctx context.Context, text string) extract.Result {
	prompt, err := CompletenessPrompt(c.rubric, text)
	if err != nil {
		return promptFailure(StageCompleteness, err)
	}
	return c.model.Invoke(ctx, prompt, c.params.With(StageCompleteness).WithSchema(rubric.CompletenessSchema))
}

// TimeAllocation checks durations of the sections the completeness verdict
// reported as present.
func (c *Checker) TimeAllocation(ctx context.Context, text string, completeness extract.Result) extract.Result {
	present := PresentSections(completeness)
	klog.V(1).InfoS("Checking time allocation", "presentSections", present)

	prompt, err := TimeAllocationPrompt(c.rubric, text, present)
	if err != nil {
		return promptFailure(StageTimeAllocation, err)
	}
	return c.model.Invoke(ctx, prompt, c.params.With(StageTimeAllocation).WithSchema(rubric.TimeAllocationSchema))
}

// Literacy scores the plan against the literacy anchors.
func (c *Checker) Literacy(ctx context.Context, text string) extract.Result {
	prompt, err := LiteracyPrompt(c.rubric, text)
	if err != nil {
		return promptFailure(StageLiteracy, err)
	}
	return c.model.Invoke(ctx, prompt, c.params.With(StageLiteracy).WithSchema(rubric.LiteracySchema))
}

func promptFailure(stage string, err error) extract.Result {
	klog.ErrorS(err, "Render prompt", "stage", stage)
	return extract.Result{extract.ErrorKey: fmt.Sprintf("render %s prompt: %v", stage, err)}
}

// PresentSections lists the section names a completeness verdict flags as
// present, in the order given. Anything malformed is skipped, so an error
// result or a verdict without sections yields an empty list.
func PresentSections(completeness extract.Result) []string {
	present := []string{}
	raw, ok := completeness.Lookup("sections")
	if !ok {
		return present
	}
	items, ok := raw.([]any)
	if !ok {
		return present
	}
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, ok := entry["section"].(string)
		if !ok || name == "" {
			continue
		}
		if truthy(entry["present"]) {
			present = append(present, name)
		}
	}
	return present
}

// truthy accepts booleans, non-zero numbers and strconv.ParseBool strings.
func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0 && !math.IsNaN(b)
	case json.Number:
		f, err := b.Float64()
		return err == nil && f != 0
	case string:
		ok, err := strconv.ParseBool(b)
		return err == nil && ok
	}
	return false
}
