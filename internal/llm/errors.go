package llm

import (
	"errors"
	"fmt"
)

// Failure classification sentinels. Providers wrap their errors with one of
// these so the retry boundary can make a pure decision over the error kind
// instead of matching provider-specific types.
var (
	// ErrTransient marks failures worth retrying: network errors, rate
	// limits, server-side errors.
	ErrTransient = errors.New("transient provider failure")

	// ErrFatal marks failures that will not succeed on retry: bad
	// credentials, malformed requests.
	ErrFatal = errors.New("fatal provider failure")
)

// Transient wraps err as a retryable failure.
func Transient(err error) error {
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Fatal wraps err as a non-retryable failure.
func Fatal(err error) error {
	return fmt.Errorf("%w: %w", ErrFatal, err)
}

// IsRetryable reports whether err should be retried. Unclassified errors are
// treated as transient: an unknown failure mode from a remote API is more
// often a hiccup than a permanent condition.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrFatal) {
		return false
	}
	return true
}

// ClassifyStatus maps an HTTP status code to a failure sentinel.
// 408, 429 and 5xx are transient; everything else fatal.
func ClassifyStatus(status int, err error) error {
	if status == 408 || status == 429 || status >= 500 {
		return Transient(err)
	}
	return Fatal(err)
}
