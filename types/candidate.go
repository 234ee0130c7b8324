// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import "fmt"

// Outcome is the final disposition of a candidate address in a sweep.
type Outcome int

// The possible dispositions of a candidate address.
const (
	Undecided     Outcome = iota // not yet decided.
	Found                        // resolved and reachable: a live host.
	NoEntry                      // no reverse DNS entry.
	ResolveFailed                // reverse resolution failed for other reasons.
	Unreachable                  // resolved, but the probe failed.
)

// String returns the clear-text representation of an Outcome value.
func (o Outcome) String() string {
	switch o {
	case Undecided:
		return "undecided"
	case Found:
		return "found"
	case NoEntry:
		return "no-entry"
	case ResolveFailed:
		return "resolve-failed"
	case Unreachable:
		return "unreachable"
	}
	return fmt.Sprintf("Outcome(%d)", o)
}

// Candidate is a progress update about a single candidate address while it
// moves through reverse resolution and reachability probing. Candidates are
// passed around by value; there is nothing to protect.
type Candidate struct {
	Addr    string  // candidate IPv4 address.
	FQDN    string  // reverse-resolved name, if any yet.
	Quality Quality // reachability verification state.
	Outcome Outcome // final disposition, Undecided until decided.
	Err     error   // optional resolution error details.
}

// Record returns the host record for a Found candidate.
func (c Candidate) Record() HostRecord {
	return NewHostRecord(c.FQDN, c.Addr)
}
