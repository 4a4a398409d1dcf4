// Package invoke sends a single prompt to a model and turns whatever comes
// back, including failures, into an extract.Result.
package invoke

import (
	"context"
	"fmt"
	"time"

	"k8s.io/klog/v2"

	"github.com/abhisek/lessondiag/internal/extract"
	"github.com/abhisek/lessondiag/internal/llm"
)

// Params are the sampling parameters for one call.
type Params struct {
	MaxTokens   int
	Temperature float64
	// Purpose labels the call in logs and the usage tally.
	Purpose string
	// Schema describes the expected verdict. It is sent to the provider only
	// when the invoker has structured output enabled.
	Schema *llm.Schema
}

// AnalyticalParams returns the low-temperature settings used by the checkers.
func AnalyticalParams() Params {
	return Params{MaxTokens: 2000, Temperature: 0.1}
}

// SuggestionParams returns the settings used for free-form suggestions.
func SuggestionParams() Params {
	return Params{MaxTokens: 1000, Temperature: 0.7}
}

// With returns a copy of p labelled with purpose.
func (p Params) With(purpose string) Params {
	p.Purpose = purpose
	return p
}

// WithSchema returns a copy of p expecting a verdict shaped by schema.
func (p Params) WithSchema(schema *llm.Schema) Params {
	p.Schema = schema
	return p
}

// Invoker wraps a Provider. It is safe for concurrent use as long as the
// provider is.
type Invoker struct {
	provider   llm.Provider
	timeout    time.Duration
	structured bool
}

// New creates an Invoker. A zero timeout leaves the caller's deadline alone.
func New(provider llm.Provider, timeout time.Duration) *Invoker {
	return &Invoker{provider: provider, timeout: timeout}
}

// UseStructuredOutput makes iv forward Params.Schema so providers request
// native structured output and validate it. Off by default. Call it before
// the invoker is shared.
func (iv *Invoker) UseStructuredOutput(on bool) *Invoker {
	iv.structured = on
	return iv
}

// ModelID reports the model behind the invoker.
func (iv *Invoker) ModelID() string {
	return iv.provider.ModelID()
}

// Invoke sends prompt as a single user message and extracts a structured
// result from the reply. It never returns an error: transport failures,
// timeouts and panics in the provider all become an ErrorResult.
func (iv *Invoker) Invoke(ctx context.Context, prompt string, p Params) extract.Result {
	resp, err := iv.generate(ctx, prompt, p)
	if err != nil {
		return extract.CallFailure(err)
	}

	res := extract.Extract(resp.Text())
	if res.IsError() && resp.StopReason == llm.StopMaxTokens {
		klog.V(1).InfoS("Truncated model reply", "purpose", p.Purpose, "maxTokens", p.MaxTokens)
		return extract.CallFailure(&llm.ErrMaxTokensExceeded{Content: resp.Content})
	}
	if res.IsError() {
		klog.V(1).InfoS("Unparseable model reply", "purpose", p.Purpose, "error", res.ErrorMessage())
	}
	return res
}

// Complete sends prompt and returns the raw reply text. A truncated reply is
// returned as is.
func (iv *Invoker) Complete(ctx context.Context, prompt string, p Params) (string, error) {
	resp, err := iv.generate(ctx, prompt, p)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// generate performs the call. Provider panics come back as errors and a nil
// response is ErrInvalidResponse.
func (iv *Invoker) generate(ctx context.Context, prompt string, p Params) (resp *llm.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			klog.ErrorS(fmt.Errorf("%v", r), "Model call panicked", "purpose", p.Purpose)
			resp, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	if iv.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, iv.timeout)
		defer cancel()
	}
	if p.Purpose != "" {
		ctx = llm.WithPurpose(ctx, p.Purpose)
	}

	req := llm.Request{
		Messages:    llm.UserPrompt(prompt),
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
	}
	if iv.structured {
		req.Schema = p.Schema
	}

	resp, err = iv.provider.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, &llm.ErrInvalidResponse{Err: fmt.Errorf("empty response")}
	}
	return resp, nil
}
