package runner

import (
	"github.com/ntse/terrarunt/internal/stack"
)

// State is the coordinator's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateDiscovering
	StateGraphBuilding
	StateScheduling
	StateExecuting
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDiscovering:
		return "discovering"
	case StateGraphBuilding:
		return "graph-building"
	case StateScheduling:
		return "scheduling"
	case StateExecuting:
		return "executing"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Outcome is the per-stack result classification.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// StackResult is one attempted (or skipped) stack's outcome.
type StackResult struct {
	Stack    *stack.Stack
	Outcome  Outcome
	ExitCode int
	Output   string
	Err      error
}

// RunResult aggregates a whole run. Entries are appended incrementally as
// the coordinator proceeds and the collection is finalized (read-only) once
// the run completes or aborts.
type RunResult struct {
	RunID   string
	State   State
	Results []StackResult
	// Err is the engine error that aborted the run, if any.
	Err error

	finalized bool
}

func (r *RunResult) append(res StackResult) {
	if r.finalized {
		panic("append to finalized run result")
	}
	r.Results = append(r.Results, res)
}

func (r *RunResult) finalize(state State) {
	r.State = state
	r.finalized = true
}

// Failed reports whether any stack failed or the run aborted.
func (r *RunResult) Failed() bool {
	if r.State == StateAborted {
		return true
	}
	for _, res := range r.Results {
		if res.Outcome == OutcomeFailure {
			return true
		}
	}
	return false
}

// ExitCode is the whole-run exit status: zero only if every attempted
// stack succeeded and the engine did not abort.
func (r *RunResult) ExitCode() int {
	if r.Failed() {
		return 1
	}
	return 0
}

// Counts returns the number of succeeded, failed and skipped stacks.
func (r *RunResult) Counts() (succeeded, failed, skipped int) {
	for _, res := range r.Results {
		switch res.Outcome {
		case OutcomeSuccess:
			succeeded++
		case OutcomeFailure:
			failed++
		case OutcomeSkipped:
			skipped++
		}
	}
	return succeeded, failed, skipped
}
