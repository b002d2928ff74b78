package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jkaninda/rekebisha/internal/llm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestComplete(t *testing.T) {
	var captured map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1beta/models/gemini-2.0-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Goog-Api-Key"); got != "test-key" {
			t.Errorf("api key header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decoding request: %v", err)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"modelVersion": "gemini-2.0-flash-001",
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{
					{"text": "part one "},
					{"text": "part two"},
				}}},
			},
			"usageMetadata": map[string]any{"promptTokenCount": 80, "candidatesTokenCount": 20},
		})
	}))
	defer ts.Close()

	c := NewClient("test-key", "gemini-2.0-flash", testLogger(), WithBaseURL(ts.URL))
	resp, err := c.Complete(context.Background(), &llm.Request{
		SystemPrompt: "you are the judge",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "generate tests"},
			{Role: llm.RoleAssistant, Content: "previous reply"},
		},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "part one part two" {
		t.Fatalf("parts not concatenated: %q", resp.Content)
	}
	if resp.Model != "gemini-2.0-flash-001" {
		t.Fatalf("model %q", resp.Model)
	}
	if resp.Usage.InputTokens != 80 || resp.Usage.OutputTokens != 20 {
		t.Fatalf("usage %+v", resp.Usage)
	}

	if captured["system_instruction"] == nil {
		t.Fatal("system instruction missing from request")
	}
	contents := captured["contents"].([]any)
	if len(contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(contents))
	}
	// Assistant turns map to the "model" role on the wire.
	second := contents[1].(map[string]any)
	if second["role"] != "model" {
		t.Fatalf("assistant role mapped to %v", second["role"])
	}
}

func TestComplete_ServerErrorIsTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := NewClient("k", "m", testLogger(), WithBaseURL(ts.URL))
	_, err := c.Complete(context.Background(), &llm.Request{})
	if !errors.Is(err, llm.ErrTransient) {
		t.Fatalf("503 should be transient, got %v", err)
	}
}

func TestComplete_BadRequestIsFatal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	c := NewClient("k", "m", testLogger(), WithBaseURL(ts.URL))
	_, err := c.Complete(context.Background(), &llm.Request{})
	if !errors.Is(err, llm.ErrFatal) {
		t.Fatalf("400 should be fatal, got %v", err)
	}
}

func TestName(t *testing.T) {
	if got := NewClient("k", "m", testLogger()).Name(); got != "gemini" {
		t.Fatalf("Name() = %q", got)
	}
}
