package llm

import (
	"sync"
	"time"
)

// CallRecord summarizes one model call.
type CallRecord struct {
	Purpose string
	Model   string
	Usage   Usage
	Latency time.Duration
	Success bool
}

// Tally accumulates the calls made during one diagnosis run. It is safe for
// concurrent use; stages of a run may call the model in parallel.
type Tally struct {
	mu    sync.Mutex
	calls []CallRecord
}

// Record appends a call.
func (t *Tally) Record(rec CallRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, rec)
}

// Calls returns a copy of the recorded calls.
func (t *Tally) Calls() []CallRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]CallRecord(nil), t.calls...)
}

// Usage returns the summed token usage.
func (t *Tally) Usage() Usage {
	var u Usage
	for _, c := range t.Calls() {
		u.Add(c.Usage)
	}
	return u
}

// EstimatedCost sums the USD cost of calls whose model has known pricing.
// complete is false when at least one model had no price.
func (t *Tally) EstimatedCost() (usd float64, complete bool) {
	complete = true
	for _, c := range t.Calls() {
		cost := LookupCost(c.Model)
		if cost == nil {
			if c.Usage.TotalTokens > 0 {
				complete = false
			}
			continue
		}
		usd += cost.Cost(c.Usage.InputTokens, c.Usage.OutputTokens)
	}
	return usd, complete
}
