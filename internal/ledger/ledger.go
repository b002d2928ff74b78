// Package ledger records applied fixes so later iterations can avoid
// repeating strategies that already failed.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
)

// IssueFixApplied tags every entry recorded through Record.
const IssueFixApplied = "fix_applied"

// fingerprintLen is the number of hex characters kept from the hash.
const fingerprintLen = 16

// Attempt is one applied fix. Immutable once recorded.
type Attempt struct {
	File        string
	Issue       string
	Fingerprint string
	Iteration   int
}

// Ledger is an append-only sequence of fix attempts. Entries are never
// mutated, reordered, or removed. A run owns exactly one Ledger; access is
// single-threaded by design.
type Ledger struct {
	attempts []Attempt
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{}
}

// Record fingerprints (file, content) and appends an attempt for the given
// iteration, returning the new entry.
func (l *Ledger) Record(file, content string, iteration int) Attempt {
	a := Attempt{
		File:        file,
		Issue:       IssueFixApplied,
		Fingerprint: Fingerprint(file, content),
		Iteration:   iteration,
	}
	l.attempts = append(l.attempts, a)
	return a
}

// Recent returns the last n attempts in original order. n larger than the
// ledger returns everything.
func (l *Ledger) Recent(n int) []Attempt {
	if n <= 0 {
		return nil
	}
	if n > len(l.attempts) {
		n = len(l.attempts)
	}
	out := make([]Attempt, n)
	copy(out, l.attempts[len(l.attempts)-n:])
	return out
}

// Len returns the number of recorded attempts.
func (l *Ledger) Len() int { return len(l.attempts) }

// All returns a copy of every attempt in recording order.
func (l *Ledger) All() []Attempt {
	out := make([]Attempt, len(l.attempts))
	copy(out, l.attempts)
	return out
}

// Fingerprint is the fixed-length hash identifying a (file, content) pair
// without storing the content twice.
func Fingerprint(file, content string) string {
	sum := sha256.Sum256([]byte(file + ":" + content))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}
