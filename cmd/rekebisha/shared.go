package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jkaninda/rekebisha/internal/agent"
	"github.com/jkaninda/rekebisha/internal/analyzer"
	"github.com/jkaninda/rekebisha/internal/config"
	"github.com/jkaninda/rekebisha/internal/engine"
	"github.com/jkaninda/rekebisha/internal/history"
	"github.com/jkaninda/rekebisha/internal/llm"
	"github.com/jkaninda/rekebisha/internal/llm/gemini"
	"github.com/jkaninda/rekebisha/internal/llm/mistral"
	"github.com/jkaninda/rekebisha/internal/observability"
	"github.com/jkaninda/rekebisha/internal/sandbox"
	"github.com/jkaninda/rekebisha/internal/testrunner"
)

// SharedComponents holds all initialized subsystems the commands need.
// Built once by initShared, torn down by Cleanup.
type SharedComponents struct {
	Config  *config.Config
	Logger  *slog.Logger
	Obs     *observability.Observability
	History *history.Store
}

// initShared loads configuration and brings up the ambient subsystems.
func initShared(ctx context.Context) (*SharedComponents, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	obs, err := observability.New(cfg.Observability, logger)
	if err != nil {
		return nil, err
	}

	var hist *history.Store
	if cfg.History != nil {
		hist, err = history.Open(cfg.History.Path, logger)
		if err != nil {
			return nil, err
		}
		if err := hist.Migrate(ctx); err != nil {
			return nil, err
		}
	}

	return &SharedComponents{Config: cfg, Logger: logger, Obs: obs, History: hist}, nil
}

// Cleanup releases everything initShared created.
func (s *SharedComponents) Cleanup(ctx context.Context) {
	if s.History != nil {
		_ = s.History.Close()
	}
	s.Obs.Shutdown(ctx)
}

// buildProvider creates the configured LLM backend wrapped in the
// retry decorator.
func buildProvider(s *SharedComponents) (llm.Provider, error) {
	cfg := s.Config
	var inner llm.Provider
	switch cfg.Provider.Name {
	case "mistral":
		inner = mistral.NewClient(cfg.Provider.MistralAPIKey, cfg.Provider.Model, s.Logger)
	case "gemini":
		inner = gemini.NewClient(cfg.Provider.GoogleAPIKey, cfg.Provider.Model, s.Logger)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Name)
	}

	policy := llm.RetryPolicy{
		MaxRetries: cfg.Retry.MaxRetries,
		BaseDelay:  cfg.BaseDelay(),
		MaxDelay:   cfg.MaxDelay(),
	}
	return llm.NewRetryProvider(inner, policy, s.Logger), nil
}

// buildEngine wires the agents and engine for one target directory.
func buildEngine(s *SharedComponents, targetDir, runID string) (*engine.Engine, error) {
	provider, err := buildProvider(s)
	if err != nil {
		return nil, err
	}

	store, err := sandbox.NewStore(targetDir, s.Logger)
	if err != nil {
		return nil, fmt.Errorf("opening target directory: %w", err)
	}

	cfg := s.Config
	pylint := analyzer.New(cfg.Tools.Python, cfg.PylintTimeout(), s.Logger)
	tests := testrunner.New(cfg.Tools.Python, cfg.TestTimeout(), s.Logger)

	deps := agent.Deps{
		Provider:    provider,
		Store:       store,
		Logger:      s.Logger,
		Metrics:     s.Obs.MetricsOrNil(),
		History:     s.History,
		RunID:       runID,
		Temperature: cfg.Provider.Temperature,
		MaxTokens:   cfg.Provider.MaxTokens,
	}

	eng := engine.New(
		agent.NewAuditor(deps, pylint, tests),
		agent.NewJudge(deps, tests),
		agent.NewFixer(deps, pylint),
		s.Logger,
		engine.Options{
			Metrics: s.Obs.MetricsOrNil(),
			Tracer:  s.Obs.TracerOrNil(),
			History: s.History,
		},
	)
	return eng, nil
}

// remediate runs one full remediation and prints the final report.
func remediate(ctx context.Context, s *SharedComponents, targetDir string, maxIterations int) (*engine.State, error) {
	state := engine.NewState(targetDir, maxIterations)

	eng, err := buildEngine(s, targetDir, state.RunID)
	if err != nil {
		return nil, err
	}

	state, runErr := eng.Run(ctx, state)
	printReport(state)
	return state, runErr
}

// printReport prints the final run report. Printed for every terminal
// status, including failures.
func printReport(state *engine.State) {
	iterations := state.CurrentIteration - 1
	if iterations < 0 {
		iterations = 0
	}

	fmt.Printf("\nRun %s\n", state.RunID)
	fmt.Printf("  Status:      %s\n", state.Status)
	fmt.Printf("  Iterations:  %d/%d\n", iterations, state.MaxIterations)
	fmt.Printf("  Pylint:      %.2f -> %.2f\n", state.PylintBaseline, state.PylintCurrent)
	if state.TestResults != nil {
		fmt.Printf("  Tests:       %d passed, %d failed, %d errors\n",
			state.TestResults.Passed, state.TestResults.Failed, state.TestResults.Errors)
	}
}
