package history

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.StartRun(ctx, "run-1", "/tmp/target"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := s.FinishRun(ctx, "run-1", "success", 3, 6.5, 9.8, 12, 0); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := s.Runs(ctx, 10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.Status != "success" || run.Iterations != 3 {
		t.Fatalf("run not updated: %+v", run)
	}
	if run.PylintBefore != 6.5 || run.PylintAfter != 9.8 {
		t.Fatalf("scores lost: %+v", run)
	}
	if run.CompletedAt == nil {
		t.Fatal("completion time missing")
	}
}

func TestActionsOrdered(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.StartRun(ctx, "run-2", "/tmp/target"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	s.RecordAction(ctx, ActionRecord{RunID: "run-2", Agent: "auditor", Action: "audit", Success: true})
	s.RecordAction(ctx, ActionRecord{RunID: "run-2", Agent: "fixer", Action: "fix", Iteration: 1, Success: true})
	s.RecordAction(ctx, ActionRecord{RunID: "other", Agent: "judge", Action: "pytest", Success: false})

	actions, err := s.Actions(ctx, "run-2")
	if err != nil {
		t.Fatalf("Actions: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(actions))
	}
	if actions[0].Agent != "auditor" || actions[1].Agent != "fixer" {
		t.Fatalf("order wrong: %+v", actions)
	}
}

func TestNilStoreIsSafe(t *testing.T) {
	var s *Store
	ctx := context.Background()

	if err := s.StartRun(ctx, "x", "y"); err != nil {
		t.Fatalf("nil StartRun: %v", err)
	}
	if err := s.FinishRun(ctx, "x", "success", 1, 0, 0, 0, 0); err != nil {
		t.Fatalf("nil FinishRun: %v", err)
	}
	s.RecordAction(ctx, ActionRecord{})
	if err := s.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}
