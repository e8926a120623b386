package metrics

import (
	"sync"
	"time"
)

// MemoryRecorder implements the Recorder interface using in-memory
// aggregation keyed by run. It needs no external services and backs the
// spend summary when the persistent ledger is disabled.
type MemoryRecorder struct {
	runs map[string]*RunTotals
	mu   sync.RWMutex
}

// RunTotals represents aggregated metrics for a generation run.
type RunTotals struct {
	RunID            string    `json:"run_id"`
	PromptTokens     int64     `json:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens"`
	TotalTokens      int64     `json:"total_tokens"`
	RequestCount     int64     `json:"request_count"`
	TotalCost        float64   `json:"total_cost_usd"`
	LastUpdated      time.Time `json:"last_updated"`
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{runs: make(map[string]*RunTotals)}
}

// ObserveRequest records metrics for a completed LLM request.
func (r *MemoryRecorder) ObserveRequest(
	_, runID, _ string,
	promptTokens, completionTokens int,
	cost float64,
	success bool,
	_ string,
	_ time.Duration,
) {
	// Only successful requests carry token and cost data.
	if !success || runID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	run, exists := r.runs[runID]
	if !exists {
		run = &RunTotals{RunID: runID}
		r.runs[runID] = run
	}

	run.PromptTokens += int64(promptTokens)
	run.CompletionTokens += int64(completionTokens)
	run.TotalTokens = run.PromptTokens + run.CompletionTokens
	run.TotalCost += cost
	run.RequestCount++
	run.LastUpdated = time.Now()
}

// RunTotals returns a copy of the aggregated metrics for a run, or nil when
// the run has recorded nothing.
func (r *MemoryRecorder) RunTotals(runID string) *RunTotals {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, exists := r.runs[runID]
	if !exists {
		return nil
	}
	cp := *run
	return &cp
}

// Reset clears all recorded runs.
func (r *MemoryRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = make(map[string]*RunTotals)
}
