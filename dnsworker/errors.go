// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dnsworker

import (
	"errors"
	"fmt"
)

// ErrNoEntry signals that an address has no reverse DNS entry. This is the
// expected, non-fatal case for most addresses on a subnet.
var ErrNoEntry = errors.New("no reverse DNS entry")

// ResolveError is any reverse resolution failure other than [ErrNoEntry], such
// as timeouts, unreachable resolvers, or server failures.
type ResolveError struct {
	Addr string // address that was to be reverse-resolved.
	Err  error  // underlying cause.
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("reverse resolution of %s failed: %s", e.Addr, e.Err.Error())
}

// Unwrap returns the underlying cause.
func (e *ResolveError) Unwrap() error { return e.Err }
