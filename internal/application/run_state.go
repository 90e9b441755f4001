package application

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Run lifecycle states.
const (
	RunStateIdle      = "idle"
	RunStateFetching  = "fetching"
	RunStateAnalyzing = "analyzing"
	RunStateComplete  = "complete"
	RunStateCancelled = "cancelled"
	RunStateFailed    = "failed"
)

// Run lifecycle events.
const (
	RunEventFetch    = "fetch"
	RunEventAnalyze  = "analyze"
	RunEventComplete = "complete"
	RunEventCancel   = "cancel"
	RunEventFail     = "fail"
)

// RunContext carries per-run state data.
type RunContext struct {
	RunID string
}

// RunStateMachine tracks one analysis run through its lifecycle. Terminal
// states accept no events, so a duplicate complete or cancel cannot move
// the run again.
type RunStateMachine struct {
	interpreter *statekit.Interpreter[RunContext]
}

func NewRunStateMachine(runID string) (*RunStateMachine, error) {
	builder := statekit.NewMachine[RunContext]("analysis-run").
		WithInitial(statekit.StateID(RunStateIdle)).
		WithContext(RunContext{RunID: runID})

	builder.State(RunStateIdle).
		On(RunEventFetch).Target(RunStateFetching).
		Done()

	builder.State(RunStateFetching).
		On(RunEventAnalyze).Target(RunStateAnalyzing).
		On(RunEventCancel).Target(RunStateCancelled).
		On(RunEventFail).Target(RunStateFailed).
		Done()

	builder.State(RunStateAnalyzing).
		On(RunEventComplete).Target(RunStateComplete).
		On(RunEventCancel).Target(RunStateCancelled).
		On(RunEventFail).Target(RunStateFailed).
		Done()

	builder.State(RunStateComplete).Done()
	builder.State(RunStateCancelled).Done()
	builder.State(RunStateFailed).Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build run state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &RunStateMachine{interpreter: interpreter}, nil
}

// Transition applies a lifecycle event. An event that does not apply in the
// current state is rejected and the state stays put.
func (sm *RunStateMachine) Transition(event string) error {
	before := sm.Current()
	sm.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := sm.Current()

	if before == after {
		return fmt.Errorf("run event %q is not valid in state %q", event, before)
	}
	return nil
}

// Current reports the run's lifecycle state.
func (sm *RunStateMachine) Current() string {
	return string(sm.interpreter.State().Value)
}
