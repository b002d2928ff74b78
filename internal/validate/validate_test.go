package validate

import (
	"strings"
	"testing"
)

func TestSyntax_ValidPython(t *testing.T) {
	code := "def add(a, b):\n    \"\"\"Add two numbers.\"\"\"\n    return a + b\n"
	res := Syntax(code, "math.py")
	if !res.Valid {
		t.Fatalf("valid code rejected: %v", res.Errors)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
}

func TestSyntax_Empty(t *testing.T) {
	res := Syntax("   \n", "empty.py")
	if res.Valid {
		t.Fatal("empty code should be invalid")
	}
}

func TestSyntax_BrokenCode(t *testing.T) {
	res := Syntax("def broken(:\n    return", "broken.py")
	if res.Valid {
		t.Fatal("broken code should be invalid")
	}
	if len(res.Errors) == 0 || !strings.Contains(res.Errors[0], "broken.py") {
		t.Fatalf("error should name the file: %v", res.Errors)
	}
	if !strings.Contains(res.Errors[0], "line ") {
		t.Fatalf("error should carry a line number: %v", res.Errors)
	}
}

func TestSyntax_ArtifactWarnings(t *testing.T) {
	code := "```python\nx = 1\n```"
	res := Syntax(code, "a.py")
	var found bool
	for _, w := range res.Warnings {
		if strings.Contains(w, "fence") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected fence warning, got %v", res.Warnings)
	}
}

func TestSyntax_LineNumberPrefixWarning(t *testing.T) {
	code := "   1 | x = 1"
	res := Syntax(code, "a.py")
	var found bool
	for _, w := range res.Warnings {
		if strings.Contains(w, "line number") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected line-number warning, got %v", res.Warnings)
	}
}

func TestFixResponse_Valid(t *testing.T) {
	response := "### FILE: cart.py\n```python\ndef total(items):\n    return sum(items)\n```\n"
	res := FixResponse(response, []string{"cart.py"})
	if !res.Valid {
		t.Fatalf("valid response rejected: %v", res.Errors)
	}
}

func TestFixResponse_NoBlocks(t *testing.T) {
	res := FixResponse("I cannot fix this code, sorry.", []string{"cart.py"})
	if res.Valid {
		t.Fatal("response without blocks should be invalid")
	}
}

func TestFixResponse_MissingExpectedIsWarning(t *testing.T) {
	response := "### FILE: cart.py\n```python\nx = 1\n```\n"
	res := FixResponse(response, []string{"cart.py", "auth.py"})
	if !res.Valid {
		t.Fatalf("missing expected file must not invalidate: %v", res.Errors)
	}
	var found bool
	for _, w := range res.Warnings {
		if strings.Contains(w, "auth.py") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected missing-file warning, got %v", res.Warnings)
	}
}

func TestFixResponse_SyntaxErrorInvalidates(t *testing.T) {
	response := "### FILE: cart.py\n```python\ndef broken(:\n    pass\n```\n"
	res := FixResponse(response, []string{"cart.py"})
	if res.Valid {
		t.Fatal("syntax error in a block should invalidate the response")
	}
}

func TestTestResponse_Warnings(t *testing.T) {
	response := "### FILE: tests/helpers.py\n```python\ndef helper():\n    return 1\n```\n"
	res := TestResponse(response)
	if !res.Valid {
		t.Fatalf("conventions are warnings, not errors: %v", res.Errors)
	}

	var naming, noTests bool
	for _, w := range res.Warnings {
		if strings.Contains(w, "test_") && strings.Contains(w, "doesn't start") {
			naming = true
		}
		if strings.Contains(w, "no test functions") {
			noTests = true
		}
	}
	if !naming || !noTests {
		t.Fatalf("expected naming and no-test warnings, got %v", res.Warnings)
	}
}

func TestTestResponse_PytestImportWarning(t *testing.T) {
	response := "### FILE: tests/test_cart.py\n```python\n@pytest.fixture\ndef cart():\n    return []\n\ndef test_cart(cart):\n    assert cart == []\n```\n"
	res := TestResponse(response)
	var found bool
	for _, w := range res.Warnings {
		if strings.Contains(w, "pytest not imported") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected missing-import warning, got %v", res.Warnings)
	}
}

func TestPlanResponse_EmptyInvalid(t *testing.T) {
	if res := PlanResponse(""); res.Valid {
		t.Fatal("empty plan should be invalid")
	}
}

func TestPlanResponse_GoodPlan(t *testing.T) {
	plan := "# Refactoring Plan\n\n## Summary\n- Files Analyzed: 2\n\n## File: cart.py\n\n### Issue 1: Wrong operator (Line 4)\n- Severity: High\n"
	res := PlanResponse(plan)
	if !res.Valid {
		t.Fatalf("good plan rejected: %v", res.Errors)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
}

func TestPlanResponse_UnstructuredPlanWarns(t *testing.T) {
	res := PlanResponse("just fix the bug in cart.py please, the total function uses subtraction")
	if !res.Valid {
		t.Fatal("unstructured plan should still be valid")
	}
	if len(res.Warnings) == 0 {
		t.Fatal("expected structure warnings")
	}
}
