package parser

import "testing"

func TestExtract_MarkedBlocks(t *testing.T) {
	response := "Here are the fixes:\n\n" +
		"### FILE: cart.py\n```python\ndef total(items):\n    return sum(items)\n```\n\n" +
		"### FILE: auth.py\n```python\ndef login(user):\n    return True\n```\n"

	blocks := Extract(response, nil)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Path != "cart.py" || blocks[1].Path != "auth.py" {
		t.Fatalf("order not preserved: %v", blocks)
	}
	if blocks[0].Content != "def total(items):\n    return sum(items)" {
		t.Fatalf("unexpected content: %q", blocks[0].Content)
	}
}

func TestExtract_SecondaryMarkerStyle(t *testing.T) {
	response := "**File:** `utils.py`\n```python\nx = 1\n```\n"
	blocks := Extract(response, nil)
	if len(blocks) != 1 || blocks[0].Path != "utils.py" {
		t.Fatalf("bold marker not recognized: %v", blocks)
	}
}

func TestExtract_FirstPatternWinsExclusively(t *testing.T) {
	// When the most specific pattern matches, blocks matching only a
	// later pattern must not be mixed in.
	response := "### FILE: a.py\n```python\na = 1\n```\n\n" +
		"**File:** b.py\n```python\nb = 2\n```\n"

	blocks := Extract(response, nil)
	if len(blocks) != 1 || blocks[0].Path != "a.py" {
		t.Fatalf("patterns were merged: %v", blocks)
	}
}

func TestExtract_DuplicatePathKeepsPosition(t *testing.T) {
	response := "### FILE: a.py\n```python\na = 1\n```\n\n" +
		"### FILE: a.py\n```python\na = 2\n```\n"

	blocks := Extract(response, nil)
	if len(blocks) != 1 {
		t.Fatalf("expected deduplication, got %d blocks", len(blocks))
	}
	if blocks[0].Content != "a = 2" {
		t.Fatalf("later content should win: %q", blocks[0].Content)
	}
}

func TestExtract_StripsLineNumbersFromContent(t *testing.T) {
	response := "### FILE: a.py\n```python\n   1 | x = 1\n   2 | y = 2\n```\n"
	blocks := Extract(response, nil)
	if len(blocks) != 1 || blocks[0].Content != "x = 1\ny = 2" {
		t.Fatalf("line numbers survived: %v", blocks)
	}
}

func TestExtract_PositionalFallbackZip(t *testing.T) {
	response := "First file:\n```python\na = 1\n```\nSecond file:\n```python\nb = 2\n```\n"
	blocks := Extract(response, []string{"a.py", "b.py"})
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Path != "a.py" || blocks[0].Content != "a = 1" {
		t.Fatalf("wrong zip: %v", blocks[0])
	}
	if blocks[1].Path != "b.py" || blocks[1].Content != "b = 2" {
		t.Fatalf("wrong zip: %v", blocks[1])
	}
}

func TestExtract_PositionalFallbackSingle(t *testing.T) {
	response := "```python\nx = 1\n```\n"
	blocks := Extract(response, []string{"only.py"})
	if len(blocks) != 1 || blocks[0].Path != "only.py" {
		t.Fatalf("single-file fallback failed: %v", blocks)
	}
}

func TestExtract_AmbiguousCountReturnsNothing(t *testing.T) {
	response := "```python\na = 1\n```\n```python\nb = 2\n```\n"
	blocks := Extract(response, []string{"a.py", "b.py", "c.py"})
	if blocks != nil {
		t.Fatalf("ambiguous mapping must be refused, got %v", blocks)
	}
}

func TestExtract_NoExpectedFilesNoFallback(t *testing.T) {
	response := "```python\nx = 1\n```\n"
	if blocks := Extract(response, nil); blocks != nil {
		t.Fatalf("fallback must require an expected file list, got %v", blocks)
	}
}

func TestExtract_DropsEmptyAndArtifactBlocks(t *testing.T) {
	response := "### FILE: a.py\n```python\n\n```\n\n" +
		"### FILE: b.py\n```python\n### FILE: b.py\n```\n"
	if blocks := Extract(response, nil); blocks != nil {
		t.Fatalf("empty/artifact blocks should be dropped, got %v", blocks)
	}
}
