package pipeline

import (
	"fmt"
	"sync"
)

// Stage identifies one step of the generation state machine. Runs move
// forward only; a failed stage halts the run rather than rolling back.
type Stage string

const (
	StageInit         Stage = "INIT"
	StageRequirements Stage = "REQUIREMENTS"
	StageDatabase     Stage = "DATABASE"
	StageAPI          Stage = "API"
	StageFrontend     Stage = "FRONTEND"
	StageDeployment   Stage = "DEPLOYMENT"
	StageComplete     Stage = "COMPLETE"
	StageFailed       Stage = "FAILED"
)

// ValidTransitions defines the forward-only stage graph. Every generating
// stage may halt into FAILED; the two terminal stages have no exits.
var ValidTransitions = map[Stage][]Stage{
	StageInit:         {StageRequirements, StageFailed},
	StageRequirements: {StageDatabase, StageFailed},
	StageDatabase:     {StageAPI, StageFailed},
	StageAPI:          {StageFrontend, StageFailed},
	StageFrontend:     {StageDeployment, StageFailed},
	StageDeployment:   {StageComplete, StageFailed},
	StageComplete:     {},
	StageFailed:       {},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s Stage) CanTransitionTo(next Stage) bool {
	for _, allowed := range ValidTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the stage has no outgoing transitions.
func (s Stage) Terminal() bool {
	return len(ValidTransitions[s]) == 0
}

// runState tracks the current stage of one run. It doubles as the metrics
// label source, so stage reads may come from other goroutines.
type runState struct {
	runID string

	mu    sync.Mutex
	stage Stage
}

func newRunState(runID string) *runState {
	return &runState{runID: runID, stage: StageInit}
}

// GetRunID returns the run identifier for metrics labels.
func (r *runState) GetRunID() string {
	return r.runID
}

// GetStage returns the current stage name for metrics labels.
func (r *runState) GetStage() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.stage)
}

// transition moves to the next stage, enforcing the forward-only graph.
func (r *runState) transition(next Stage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.stage.CanTransitionTo(next) {
		return fmt.Errorf("invalid stage transition %s -> %s", r.stage, next)
	}
	r.stage = next
	return nil
}
