// Package metrics provides metrics recording for LLM client operations.
package metrics

import "time"

// RunContext provides access to the active generation run for metrics labels.
type RunContext interface {
	// GetRunID returns the identifier of the current generation run.
	GetRunID() string
	// GetStage returns the pipeline stage currently generating.
	GetStage() string
}

// Recorder defines the interface for recording LLM operation metrics.
type Recorder interface {
	// ObserveRequest records metrics for a completed LLM request.
	ObserveRequest(
		model, runID, stage string,
		promptTokens, completionTokens int,
		cost float64,
		success bool,
		errorType string,
		duration time.Duration,
	)
}

// multiRecorder fans one observation out to several recorders.
type multiRecorder struct {
	recorders []Recorder
}

// Multi returns a recorder that forwards each observation to every given
// recorder in order.
func Multi(recorders ...Recorder) Recorder {
	return &multiRecorder{recorders: recorders}
}

// ObserveRequest forwards the observation to all wrapped recorders.
func (m *multiRecorder) ObserveRequest(
	model, runID, stage string,
	promptTokens, completionTokens int,
	cost float64,
	success bool,
	errorType string,
	duration time.Duration,
) {
	for _, r := range m.recorders {
		r.ObserveRequest(model, runID, stage, promptTokens, completionTokens, cost, success, errorType, duration)
	}
}

// NoopRecorder implements Recorder with no-op behavior for when metrics are disabled.
type NoopRecorder struct{}

// Nop returns a no-op metrics recorder that discards all metrics.
func Nop() Recorder {
	return &NoopRecorder{}
}

// ObserveRequest does nothing in the no-op recorder.
func (n *NoopRecorder) ObserveRequest(
	_, _, _ string,
	_, _ int,
	_ float64,
	_ bool,
	_ string,
	_ time.Duration,
) {
	// No-op
}
