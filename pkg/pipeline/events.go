package pipeline

import "time"

// EventType classifies progress events emitted during a run.
type EventType string

const (
	// EventRunStarted fires once, after the credential check passes.
	EventRunStarted EventType = "run_started"
	// EventStageStarted fires when a generation stage begins.
	EventStageStarted EventType = "stage_started"
	// EventStageCompleted fires when a stage's payload has validated.
	EventStageCompleted EventType = "stage_completed"
	// EventDiagramReady fires when a diagram has been synthesized.
	EventDiagramReady EventType = "diagram_ready"
	// EventWarning fires for soft policy and cross-check findings.
	EventWarning EventType = "warning"
	// EventRunCompleted fires once, after the blueprint is finalized.
	EventRunCompleted EventType = "run_completed"
	// EventRunFailed fires once when the run halts before completion.
	EventRunFailed EventType = "run_failed"
)

// Event is one progress notification. Events for a run are delivered in
// order; diagram events for earlier stages always precede those for later
// stages even though synthesis runs concurrently.
type Event struct {
	Type    EventType
	Stage   Stage
	Diagram string // set for EventDiagramReady
	Message string
	// Payload carries the stage's validated result on EventStageCompleted
	// and the partial blueprint on EventRunFailed. Receivers must treat it
	// as read-only.
	Payload   any
	Timestamp time.Time
}
