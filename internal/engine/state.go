// Package engine orchestrates the remediation loop:
// audit, generate tests, then fix and validate until the tests pass or
// the iteration budget runs out.
package engine

import (
	"github.com/google/uuid"

	"github.com/jkaninda/rekebisha/internal/ledger"
	"github.com/jkaninda/rekebisha/internal/testrunner"
)

// Status is the lifecycle state of a remediation run.
type Status string

const (
	StatusInProgress    Status = "in_progress"
	StatusSuccess       Status = "success"
	StatusFailure       Status = "failure" // reserved for callers; the loop itself never sets it
	StatusMaxIterations Status = "max_iterations"
	StatusError         Status = "error"
)

// Terminal reports whether the run has finished.
func (s Status) Terminal() bool {
	return s != StatusInProgress
}

// Route is the decision after each validation: loop back to the Fixer
// or stop.
type Route string

const (
	RouteContinue Route = "continue"
	RouteEnd      Route = "end"
)

// RouteFor maps a status to a routing decision. It is a pure function:
// only Validate mutates the status, and only this decides the edge.
func RouteFor(s Status) Route {
	if s == StatusInProgress {
		return RouteContinue
	}
	return RouteEnd
}

// State is the full run state threaded through the loop.
type State struct {
	RunID     string
	TargetDir string

	// Auditor output.
	Files          []string
	Plan           string
	PylintBaseline float64

	// Iteration tracking.
	CurrentIteration int
	MaxIterations    int

	// Fixer output.
	PylintCurrent float64
	Attempts      *ledger.Ledger

	// Judge output. ErrorLogs is replaced wholesale each validation,
	// never accumulated across iterations.
	GeneratedTests []string
	TestResults    *testrunner.Result
	ErrorLogs      []string

	Status Status
}

// NewState creates the initial state for a run.
func NewState(targetDir string, maxIterations int) *State {
	return &State{
		RunID:         uuid.NewString(),
		TargetDir:     targetDir,
		MaxIterations: maxIterations,
		Attempts:      ledger.New(),
		Status:        StatusInProgress,
	}
}

// nextStatus decides the post-validation status. Success and error are
// checked first; the iteration budget only converts an in-progress run,
// so a final-iteration pass still reports success.
func nextStatus(run *testrunner.Result, currentIteration, maxIterations int) Status {
	status := StatusInProgress
	switch {
	case run.Success:
		status = StatusSuccess
	case run.Total == 0:
		status = StatusError
	}
	if status != StatusSuccess && status != StatusError && currentIteration+1 > maxIterations {
		status = StatusMaxIterations
	}
	return status
}
