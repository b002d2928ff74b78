package analyzer

import "testing"

func TestExtractScore(t *testing.T) {
	cases := []struct {
		name   string
		output string
		want   float64
	}{
		{"standard line", "Your code has been rated at 7.50/10 (previous run: 6.00/10)", 7.5},
		{"ten", "Your code has been rated at 10.00/10", 10.0},
		{"negative clamped", "Your code has been rated at -2.50/10", 0.0},
		{"short form", "module rated at 8.2/10", 8.2},
		{"score label", "score: 9.1/10", 9.1},
		{"bare fraction", "final 6/10 overall", 6.0},
		{"no score", "no rating line here", 0.0},
		{"empty", "", 0.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractScore(tc.output); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseIssues_CleanJSON(t *testing.T) {
	out := `[{"line": 4, "column": 0, "type": "error", "message-id": "E0602", "message": "Undefined variable 'x'", "path": "cart.py"}]`
	issues := parseIssues(out)
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	if issues[0].Line != 4 || issues[0].Code != "E0602" {
		t.Fatalf("fields lost: %+v", issues[0])
	}
}

func TestParseIssues_SalvagesNoisyOutput(t *testing.T) {
	out := "some warning banner\n" + `[{"line": 1, "type": "convention", "message-id": "C0114", "message": "Missing module docstring", "path": "a.py"}]` + "\ntrailing"
	issues := parseIssues(out)
	if len(issues) != 1 || issues[0].Code != "C0114" {
		t.Fatalf("salvage failed: %+v", issues)
	}
}

func TestParseIssues_Garbage(t *testing.T) {
	if issues := parseIssues("not json at all"); issues != nil {
		t.Fatalf("expected nil, got %+v", issues)
	}
}

func TestDegraded(t *testing.T) {
	rep := degraded("pylint timed out after 30s")
	if rep.Score != 0 {
		t.Fatalf("degraded score %v, want 0", rep.Score)
	}
	if len(rep.Issues) != 1 || rep.Issues[0].Severity != "fatal" {
		t.Fatalf("expected one fatal issue: %+v", rep.Issues)
	}
}
