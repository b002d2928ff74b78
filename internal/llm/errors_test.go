package llm

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status    int
		transient bool
	}{
		{408, true},
		{429, true},
		{500, true},
		{502, true},
		{503, true},
		{400, false},
		{401, false},
		{403, false},
		{404, false},
	}
	for _, tc := range cases {
		err := ClassifyStatus(tc.status, fmt.Errorf("status %d", tc.status))
		if got := errors.Is(err, ErrTransient); got != tc.transient {
			t.Fatalf("status %d: transient=%v, want %v", tc.status, got, tc.transient)
		}
		if tc.transient == errors.Is(err, ErrFatal) {
			t.Fatalf("status %d: classification must be exclusive", tc.status)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(Transient(errors.New("x"))) {
		t.Fatal("transient must be retryable")
	}
	if IsRetryable(Fatal(errors.New("x"))) {
		t.Fatal("fatal must not be retryable")
	}
	// Unclassified errors default to retryable.
	if !IsRetryable(errors.New("mystery")) {
		t.Fatal("unclassified errors should be retryable")
	}
}

func TestWrappersPreserveCause(t *testing.T) {
	cause := errors.New("root cause")
	if !errors.Is(Transient(cause), cause) {
		t.Fatal("Transient lost the cause")
	}
	if !errors.Is(Fatal(cause), cause) {
		t.Fatal("Fatal lost the cause")
	}
}
