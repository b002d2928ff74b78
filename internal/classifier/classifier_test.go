package classifier

import (
	"strings"
	"testing"

	"github.com/jkaninda/rekebisha/internal/testrunner"
)

func TestClassify_Tiers(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    Tier
	}{
		{"assertion", "AssertionError: assert 15 == 30", TierCritical},
		{"type error", "TypeError: unsupported operand type(s)", TierCritical},
		{"value error", "ValueError: invalid literal for int()", TierCritical},
		{"attribute", "AttributeError: 'Cart' object has no attribute 'total'", TierImportant},
		{"key", "KeyError: 'price'", TierImportant},
		{"index", "IndexError: list index out of range", TierImportant},
		{"name", "NameError: name 'helper' is not defined", TierImportant},
		{"other", "RuntimeError: something unexpected", TierContext},
		{"empty", "", TierContext},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cf := Classify(testrunner.Failure{Test: "t", Message: tc.message})
			if cf.Tier != tc.want {
				t.Fatalf("got tier %d, want %d", cf.Tier, tc.want)
			}
		})
	}
}

func TestClassify_Tier1BeatsTier2(t *testing.T) {
	// A message carrying both markers lands in the higher tier.
	cf := Classify(testrunner.Failure{Message: "TypeError raised instead of KeyError"})
	if cf.Tier != TierCritical {
		t.Fatalf("got tier %d, want %d", cf.Tier, TierCritical)
	}
}

func TestErrorLogs_SuccessProducesNothing(t *testing.T) {
	result := &testrunner.Result{Passed: 5, Total: 5, Success: true}
	if logs := ErrorLogs(result); logs != nil {
		t.Fatalf("expected nil for a successful run, got %v", logs)
	}
}

func TestErrorLogs_OrderingAndSummary(t *testing.T) {
	result := &testrunner.Result{
		Passed: 1, Failed: 3, Total: 4,
		Failures: []testrunner.Failure{
			{Test: "test_other", Message: "RuntimeError: boom"},
			{Test: "test_key", Message: "KeyError: 'price'"},
			{Test: "test_assert", Message: "AssertionError: assert 15 == 30"},
		},
	}

	logs := ErrorLogs(result)
	joined := strings.Join(logs, "\n")

	if !strings.HasPrefix(logs[0], "Tests: 1 passed, 3 failed, 0 errors") {
		t.Fatalf("summary line wrong: %q", logs[0])
	}

	critical := strings.Index(joined, "CRITICAL FAILURES")
	important := strings.Index(joined, "IMPORTANT FAILURES")
	other := strings.Index(joined, "OTHER FAILURES")
	if critical == -1 || important == -1 || other == -1 {
		t.Fatalf("missing sections:\n%s", joined)
	}
	if !(critical < important && important < other) {
		t.Fatalf("sections out of order:\n%s", joined)
	}

	// The assertion failure must be listed under CRITICAL.
	assertPos := strings.Index(joined, "FAILED: test_assert")
	if assertPos < critical || assertPos > important {
		t.Fatalf("assertion failure not under CRITICAL:\n%s", joined)
	}
}

func TestErrorLogs_OutputExcerptWhenUnstructured(t *testing.T) {
	result := &testrunner.Result{
		Failed: 1, Total: 1,
		Output: "collected 1 item\n\nsomething exploded before any FAILED lines",
	}
	logs := ErrorLogs(result)
	joined := strings.Join(logs, "\n")
	if !strings.Contains(joined, "Output excerpt") {
		t.Fatalf("expected output excerpt:\n%s", joined)
	}
}

func TestErrorLogs_Dedupes(t *testing.T) {
	result := &testrunner.Result{
		Failed: 2, Total: 2,
		Failures: []testrunner.Failure{
			{Test: "test_a", Message: "AssertionError: assert 1 == 2"},
			{Test: "TEST_A", Message: "AssertionError: assert 1 == 2"},
		},
	}
	logs := ErrorLogs(result)

	count := 0
	for _, l := range logs {
		if strings.EqualFold(strings.TrimSpace(l), "failed: test_a") {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("duplicate failure lines survived: %v", logs)
	}
}

func TestActionableInfo_AssertComparison(t *testing.T) {
	got := ActionableInfo("AssertionError: assert 15 == 30")
	if !strings.Contains(got, "15") || !strings.Contains(got, "30") {
		t.Fatalf("comparison values lost: %q", got)
	}
}

func TestActionableInfo_FallbackTruncates(t *testing.T) {
	long := strings.Repeat("x", 600)
	got := ActionableInfo(long)
	if len(got) != 400 {
		t.Fatalf("fallback should truncate to 400, got %d", len(got))
	}
}

func TestActionableInfo_CapsParts(t *testing.T) {
	msg := "Expected: 1\nExpected: 2\nExpected: 3\nExpected: 4\nExpected: 5"
	got := ActionableInfo(msg)
	if n := strings.Count(got, ";") + 1; n > 3 {
		t.Fatalf("too many parts (%d): %q", n, got)
	}
}
