// Package agent implements the three remediation agents: the Auditor,
// which analyzes code and produces a plan; the Fixer, which applies
// fixes; and the Judge, which generates and runs tests.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jkaninda/rekebisha/internal/history"
	"github.com/jkaninda/rekebisha/internal/llm"
	"github.com/jkaninda/rekebisha/internal/observability"
	"github.com/jkaninda/rekebisha/internal/sandbox"
)

// Deps carries the shared collaborators each agent needs. Metrics and
// History may be nil; agents must tolerate that.
type Deps struct {
	Provider llm.Provider
	Store    *sandbox.Store
	Logger   *slog.Logger
	Metrics  *observability.MetricsCollector
	History  *history.Store

	RunID       string
	Temperature float64
	MaxTokens   int
}

// base holds the state common to all agents.
type base struct {
	name string
	deps Deps
}

func newBase(name string, deps Deps) base {
	return base{name: name, deps: deps.withDefaults()}
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Temperature == 0 {
		d.Temperature = 0.7
	}
	if d.MaxTokens == 0 {
		d.MaxTokens = 4096
	}
	return d
}

func (b *base) logger() *slog.Logger {
	return b.deps.Logger.With(slog.String("agent", b.name))
}

// callLLM sends one system+user prompt pair to the provider, records
// metrics and the history action, and returns the raw response text.
func (b *base) callLLM(ctx context.Context, action string, iteration int, systemPrompt, userPrompt string) (string, error) {
	req := &llm.Request{
		SystemPrompt: systemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: userPrompt}},
		Temperature:  b.deps.Temperature,
		MaxTokens:    b.deps.MaxTokens,
	}

	start := time.Now()
	resp, err := b.deps.Provider.Complete(ctx, req)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
	}
	if m := b.deps.Metrics; m != nil {
		m.LLMRequestsTotal.WithLabelValues(b.deps.Provider.Name(), modelOf(resp), status).Inc()
		m.LLMRequestDuration.WithLabelValues(b.deps.Provider.Name(), modelOf(resp)).Observe(elapsed.Seconds())
		if resp != nil {
			m.LLMTokensUsed.WithLabelValues(b.deps.Provider.Name(), resp.Model, "input").Add(float64(resp.Usage.InputTokens))
			m.LLMTokensUsed.WithLabelValues(b.deps.Provider.Name(), resp.Model, "output").Add(float64(resp.Usage.OutputTokens))
		}
	}

	rec := history.ActionRecord{
		RunID:      b.deps.RunID,
		Iteration:  iteration,
		Agent:      b.name,
		Action:     action,
		Success:    err == nil,
		DurationMS: elapsed.Milliseconds(),
	}
	if err != nil {
		rec.Detail = err.Error()
	} else {
		rec.InputTokens = resp.Usage.InputTokens
		rec.OutputTokens = resp.Usage.OutputTokens
	}
	b.deps.History.RecordAction(ctx, rec)

	if err != nil {
		return "", fmt.Errorf("%s %s: %w", b.name, action, err)
	}

	b.logger().Debug("llm call completed",
		slog.String("action", action),
		slog.Int("iteration", iteration),
		slog.Duration("duration", elapsed),
		slog.Int("response_chars", len(resp.Content)))

	return resp.Content, nil
}

// recordTool records a non-LLM tool action in the history trail.
func (b *base) recordTool(ctx context.Context, action, target, detail string, iteration int, success bool) {
	b.deps.History.RecordAction(ctx, history.ActionRecord{
		RunID:     b.deps.RunID,
		Iteration: iteration,
		Agent:     b.name,
		Action:    action,
		Target:    target,
		Success:   success,
		Detail:    detail,
	})
}

func (b *base) store() *sandbox.Store { return b.deps.Store }

func modelOf(resp *llm.Response) string {
	if resp == nil {
		return ""
	}
	return resp.Model
}
