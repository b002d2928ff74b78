package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jkaninda/rekebisha/internal/agent"
	"github.com/jkaninda/rekebisha/internal/history"
	"github.com/jkaninda/rekebisha/internal/observability"
)

// Engine drives the remediation loop over the three agents.
type Engine struct {
	auditor *agent.Auditor
	judge   *agent.Judge
	fixer   *agent.Fixer

	logger  *slog.Logger
	metrics *observability.MetricsCollector
	tracer  trace.Tracer
	history *history.Store
}

// Options carries the optional collaborators.
type Options struct {
	Metrics *observability.MetricsCollector
	Tracer  *observability.TracerSetup
	History *history.Store
}

// New creates an Engine.
func New(auditor *agent.Auditor, judge *agent.Judge, fixer *agent.Fixer, logger *slog.Logger, opts Options) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		auditor: auditor,
		judge:   judge,
		fixer:   fixer,
		logger:  logger,
		metrics: opts.Metrics,
		tracer:  opts.Tracer.Tracer(),
		history: opts.History,
	}
}

// Run executes one remediation run to completion. The returned state
// always carries a terminal status; the error return is reserved for
// infrastructure failures (exhausted LLM retries, unreadable target),
// in which case the state reflects progress up to the failure.
func (e *Engine) Run(ctx context.Context, state *State) (*State, error) {
	log := e.logger.With(slog.String("run_id", state.RunID), slog.String("target", state.TargetDir))
	log.Info("remediation run started", slog.Int("max_iterations", state.MaxIterations))

	ctx, span := e.tracer.Start(ctx, "remediation.run")
	defer span.End()

	if err := e.history.StartRun(ctx, state.RunID, state.TargetDir); err != nil {
		log.Warn("could not record run start", slog.Any("error", err))
	}

	if err := e.audit(ctx, state); err != nil {
		return e.finish(ctx, state, log), fmt.Errorf("audit phase: %w", err)
	}

	if err := e.generateTests(ctx, state); err != nil {
		return e.finish(ctx, state, log), fmt.Errorf("test generation phase: %w", err)
	}

	// Fresh tests that already pass mean there was nothing to fix.
	if state.TestResults != nil && state.TestResults.Success {
		state.Status = StatusSuccess
		return e.finish(ctx, state, log), nil
	}

	for {
		if err := e.fix(ctx, state); err != nil {
			return e.finish(ctx, state, log), fmt.Errorf("fix phase (iteration %d): %w", state.CurrentIteration, err)
		}

		if err := e.validate(ctx, state); err != nil {
			return e.finish(ctx, state, log), fmt.Errorf("validation phase (iteration %d): %w", state.CurrentIteration, err)
		}

		log.Info("iteration complete",
			slog.Int("iteration", state.CurrentIteration),
			slog.Int("max_iterations", state.MaxIterations),
			slog.String("status", string(state.Status)))

		if RouteFor(state.Status) == RouteEnd {
			return e.finish(ctx, state, log), nil
		}
	}
}

func (e *Engine) audit(ctx context.Context, state *State) error {
	ctx, span := e.tracer.Start(ctx, "remediation.audit")
	defer span.End()
	defer e.observePhase("audit", time.Now())

	report, err := e.auditor.Analyze(ctx)
	if err != nil {
		state.Status = StatusError
		return err
	}

	state.Files = report.Files
	state.Plan = report.Plan
	state.PylintBaseline = report.PylintBaseline
	state.PylintCurrent = report.PylintBaseline
	state.CurrentIteration = 1
	return nil
}

func (e *Engine) generateTests(ctx context.Context, state *State) error {
	ctx, span := e.tracer.Start(ctx, "remediation.generate_tests")
	defer span.End()
	defer e.observePhase("generate_tests", time.Now())

	report, err := e.judge.GenerateTests(ctx, state.Plan, state.Files, state.CurrentIteration)
	if err != nil {
		state.Status = StatusError
		return err
	}

	state.GeneratedTests = report.GeneratedTests
	state.TestResults = report.Result
	state.ErrorLogs = report.ErrorLogs
	return nil
}

func (e *Engine) fix(ctx context.Context, state *State) error {
	ctx, span := e.tracer.Start(ctx, "remediation.fix")
	defer span.End()
	defer e.observePhase("fix", time.Now())

	report, err := e.fixer.Fix(ctx, state.Plan, state.Files, state.ErrorLogs, state.Attempts, state.CurrentIteration)
	if err != nil {
		state.Status = StatusError
		return err
	}

	state.PylintCurrent = report.PylintCurrent
	return nil
}

// validate runs the test suite and applies the status transition. This
// is the only place the loop sets the status or the iteration counter.
func (e *Engine) validate(ctx context.Context, state *State) error {
	ctx, span := e.tracer.Start(ctx, "remediation.validate")
	defer span.End()
	defer e.observePhase("validate", time.Now())

	report, err := e.judge.Validate(ctx, state.CurrentIteration)
	if err != nil {
		state.Status = StatusError
		return err
	}

	state.TestResults = report.Result
	state.ErrorLogs = report.ErrorLogs
	state.Status = nextStatus(report.Result, state.CurrentIteration, state.MaxIterations)
	state.CurrentIteration++
	return nil
}

func (e *Engine) observePhase(phase string, start time.Time) {
	e.metrics.ObservePhase(phase, start)
}

// finish records the terminal state everywhere it belongs and returns it.
func (e *Engine) finish(ctx context.Context, state *State, log *slog.Logger) *State {
	if state.Status == StatusInProgress {
		// Run aborted by an infrastructure failure before a terminal
		// status was computed.
		state.Status = StatusError
	}

	iterations := state.CurrentIteration - 1
	if iterations < 0 {
		iterations = 0
	}

	e.metrics.RecordRun(string(state.Status), iterations)

	var passed, failed int
	if state.TestResults != nil {
		passed = state.TestResults.Passed
		failed = state.TestResults.Failed + state.TestResults.Errors
	}
	if err := e.history.FinishRun(ctx, state.RunID, string(state.Status), iterations,
		state.PylintBaseline, state.PylintCurrent, passed, failed); err != nil {
		log.Warn("could not record run finish", slog.Any("error", err))
	}

	log.Info("remediation run finished",
		slog.String("status", string(state.Status)),
		slog.Int("iterations", iterations),
		slog.Float64("pylint_baseline", state.PylintBaseline),
		slog.Float64("pylint_current", state.PylintCurrent))

	return state
}
