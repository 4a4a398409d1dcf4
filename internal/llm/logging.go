package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"k8s.io/klog/v2"
)

// LoggingProvider is a decorator that logs every request and feeds the
// usage tally attached to the request context.
type LoggingProvider struct {
	inner Provider
}

// WithLogging wraps a Provider with request logging.
func WithLogging(p Provider) Provider {
	return &LoggingProvider{inner: p}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	latency := time.Since(start)
	rec := CallRecord{
		Purpose: purpose,
		Model:   l.inner.ModelID(),
		Latency: latency,
		Success: err == nil,
	}
	if resp != nil {
		rec.Usage = resp.Usage
		if resp.Model != "" {
			rec.Model = resp.Model
		}
	}
	if t := TallyFrom(ctx); t != nil {
		t.Record(rec)
	}

	if err != nil {
		klog.ErrorS(err, "LLM request failed", "purpose", purpose, "model", rec.Model, "latencyMs", latency.Milliseconds())
	} else {
		klog.V(2).InfoS("LLM request", "purpose", purpose, "model", rec.Model,
			"latencyMs", latency.Milliseconds(),
			"inputTokens", rec.Usage.InputTokens, "outputTokens", rec.Usage.OutputTokens,
			"stopReason", resp.StopReason)
	}
	if klogV := klog.V(4); klogV.Enabled() {
		klogV.InfoS("LLM exchange", "purpose", purpose, "request", serializeRequest(req), "response", resp.Text())
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the request.
func serializeRequest(req Request) string {
	var b strings.Builder

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n", m.Role)
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}

	fmt.Fprintf(&b, "[params] temperature=%.2f max_tokens=%d", req.Temperature, req.MaxTokens)
	return b.String()
}
