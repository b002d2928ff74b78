package engine

import (
	"testing"

	"github.com/jkaninda/rekebisha/internal/testrunner"
)

func TestNextStatus_AllPass(t *testing.T) {
	run := &testrunner.Result{Passed: 4, Total: 4, Success: true}
	if got := nextStatus(run, 3, 10); got != StatusSuccess {
		t.Fatalf("got %s, want %s", got, StatusSuccess)
	}
}

func TestNextStatus_PassOnFinalIteration(t *testing.T) {
	// A pass on the last allowed iteration is still a success, never
	// max_iterations.
	run := &testrunner.Result{Passed: 4, Total: 4, Success: true}
	if got := nextStatus(run, 10, 10); got != StatusSuccess {
		t.Fatalf("got %s, want %s", got, StatusSuccess)
	}
}

func TestNextStatus_FailuresContinue(t *testing.T) {
	run := &testrunner.Result{Passed: 2, Failed: 2, Total: 4}
	if got := nextStatus(run, 8, 10); got != StatusInProgress {
		t.Fatalf("got %s, want %s", got, StatusInProgress)
	}
}

func TestNextStatus_BudgetExhausted(t *testing.T) {
	run := &testrunner.Result{Passed: 2, Failed: 2, Total: 4}
	if got := nextStatus(run, 10, 10); got != StatusMaxIterations {
		t.Fatalf("got %s, want %s", got, StatusMaxIterations)
	}
}

func TestNextStatus_LastAllowedIterationContinues(t *testing.T) {
	// Iteration 9 of 10 failing: 9+1 <= 10, one more round remains.
	run := &testrunner.Result{Failed: 1, Total: 1}
	if got := nextStatus(run, 9, 10); got != StatusInProgress {
		t.Fatalf("got %s, want %s", got, StatusInProgress)
	}
}

func TestNextStatus_ZeroTestsCollected(t *testing.T) {
	run := &testrunner.Result{Total: 0, Success: false}
	if got := nextStatus(run, 2, 10); got != StatusError {
		t.Fatalf("got %s, want %s", got, StatusError)
	}
}

func TestNextStatus_ZeroTestsBeatsBudget(t *testing.T) {
	// The error status is terminal on its own; it is never converted
	// to max_iterations even when the budget is also exhausted.
	run := &testrunner.Result{Total: 0, Success: false}
	if got := nextStatus(run, 10, 10); got != StatusError {
		t.Fatalf("got %s, want %s", got, StatusError)
	}
}

func TestRouteFor(t *testing.T) {
	cases := []struct {
		status Status
		want   Route
	}{
		{StatusInProgress, RouteContinue},
		{StatusSuccess, RouteEnd},
		{StatusError, RouteEnd},
		{StatusMaxIterations, RouteEnd},
		{StatusFailure, RouteEnd},
	}
	for _, tc := range cases {
		if got := RouteFor(tc.status); got != tc.want {
			t.Fatalf("RouteFor(%s) = %s, want %s", tc.status, got, tc.want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusInProgress.Terminal() {
		t.Fatal("in_progress is not terminal")
	}
	for _, s := range []Status{StatusSuccess, StatusError, StatusMaxIterations, StatusFailure} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
}

func TestNewState(t *testing.T) {
	s := NewState("/tmp/target", 10)
	if s.RunID == "" {
		t.Fatal("missing run ID")
	}
	if s.Status != StatusInProgress {
		t.Fatalf("initial status %s", s.Status)
	}
	if s.CurrentIteration != 0 {
		t.Fatalf("initial iteration %d", s.CurrentIteration)
	}
	if s.Attempts == nil || s.Attempts.Len() != 0 {
		t.Fatal("ledger not initialized empty")
	}

	other := NewState("/tmp/target", 10)
	if other.RunID == s.RunID {
		t.Fatal("run IDs must be unique")
	}
}
