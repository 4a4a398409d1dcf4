// Package app assembles a full diagnosis run: input checks, the three
// checkers, scoring, suggestions and the final report.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/abhisek/lessondiag/internal/diagnosis"
	"github.com/abhisek/lessondiag/internal/invoke"
	"github.com/abhisek/lessondiag/internal/lessonplan"
	"github.com/abhisek/lessondiag/internal/llm"
	"github.com/abhisek/lessondiag/internal/report"
	"github.com/abhisek/lessondiag/internal/rubric"
	"github.com/abhisek/lessondiag/internal/scoring"
)

// Options configures an App.
type Options struct {
	// Suggest requests improvement suggestions after the diagnosis.
	Suggest   bool
	Diagnosis diagnosis.Config
	// Rubric overrides the embedded rubric when set.
	Rubric *rubric.Rubric
	// Timeout bounds each model call.
	Timeout time.Duration
	// Structured sends the verdict schemas to the provider.
	Structured bool
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Suggest:   true,
		Diagnosis: diagnosis.DefaultConfig(),
		Timeout:   llm.DefaultConfig().Timeout,
	}
}

// App runs diagnoses against one provider. It is safe for concurrent use.
type App struct {
	model   string
	service *diagnosis.Service
	opts    Options
}

// New creates an App.
func New(provider llm.Provider, opts Options) *App {
	iv := invoke.New(provider, opts.Timeout).UseStructuredOutput(opts.Structured)
	return &App{
		model:   provider.ModelID(),
		service: diagnosis.NewService(iv, opts.Rubric, opts.Diagnosis),
		opts:    opts,
	}
}

// Service exposes the underlying diagnosis service.
func (a *App) Service() *diagnosis.Service {
	return a.service
}

// Run diagnoses text. The only errors returned are input errors, reported
// before any model call; model failures end up inside the report.
func (a *App) Run(ctx context.Context, text string) (*report.Report, error) {
	if err := lessonplan.Validate(text); err != nil {
		return nil, err
	}

	start := time.Now()
	runID := uuid.NewString()
	tally := &llm.Tally{}
	ctx = llm.WithTally(ctx, tally)
	logger := klog.LoggerWithValues(klog.FromContext(ctx), "runID", runID)
	ctx = klog.NewContext(ctx, logger)

	logger.V(1).Info("Diagnosing lesson plan", "model", a.model, "chars", len([]rune(text)))

	d := a.service.Diagnose(ctx, text)
	rep := &report.Report{
		RunID:     runID,
		Model:     a.model,
		Diagnosis: d,
		SubScores: scoring.Breakdown(d),
		Warnings:  report.Conformance(d),
	}

	score, err := safeScore(d)
	if err != nil {
		logger.Error(err, "Score calculation failed")
		rep.Notices = append(rep.Notices, fmt.Sprintf("score calculation failed: %v; reporting 0", err))
	}
	rep.Score = score

	if a.opts.Suggest {
		text, err := a.service.Suggest(ctx, d)
		if err != nil {
			rep.SuggestionError = err.Error()
		} else {
			rep.Suggestions = text
		}
	}

	rep.Usage = tally.Usage()
	rep.CostUSD, rep.CostComplete = tally.EstimatedCost()
	rep.Elapsed = time.Since(start)

	logger.V(1).Info("Diagnosis finished", "score", rep.Score, "failed", d.Failed(),
		"totalTokens", rep.Usage.TotalTokens, "elapsed", rep.Elapsed)
	return rep, nil
}

var scoreFunc = scoring.Score

func safeScore(d *diagnosis.Result) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			score, err = 0, fmt.Errorf("%v", r)
		}
	}()
	return scoreFunc(d), nil
}
