// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dnsworker

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/gammazero/workerpool"
)

// SystemPool is a (size-limited) pool of reverse lookups carried out by the
// platform's resolver instead of talking DNS directly. This includes sources
// such as the hosts file, as configured by the platform.
//
// SystemPool lookups always run in the caller's network namespace: the
// platform resolver might spin up its own threads, so switching the namespace
// of a single OS-level thread would not work reliably.
type SystemPool struct {
	resolver *net.Resolver
	timeout  time.Duration
	workers  *workerpool.WorkerPool
}

// NewSystem returns a new SystemPool of the specified size, limiting each
// individual reverse lookup to the specified timeout. A zero timeout defaults
// to [DefaultTimeout].
func NewSystem(size int, timeout time.Duration) *SystemPool {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SystemPool{
		resolver: net.DefaultResolver,
		timeout:  timeout,
		workers:  workerpool.New(size),
	}
}

// ResolveAddr submits a reverse lookup for the specified IP address; see
// [DnsPool.ResolveAddr] for the callback and error semantics.
func (p *SystemPool) ResolveAddr(ctx context.Context, addr string, fn func(string, error)) {
	p.workers.Submit(func() {
		var fqdn string
		var err error
		defer func() { fn(fqdn, err) }()

		select {
		case <-ctx.Done():
			err = &ResolveError{Addr: addr, Err: ctx.Err()}
			return
		default:
		}

		lookupctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		var names []string
		names, err = p.resolver.LookupAddr(lookupctx, addr)
		if err != nil {
			var dnserr *net.DNSError
			if errors.As(err, &dnserr) && dnserr.IsNotFound {
				err = ErrNoEntry
				return
			}
			err = &ResolveError{Addr: addr, Err: err}
			return
		}
		if len(names) == 0 {
			err = ErrNoEntry
			return
		}
		fqdn = strings.TrimSuffix(names[0], ".")
	})
}

// StopWait waits for all enqueued reverse lookups to finish, and then shuts
// down the pool.
func (p *SystemPool) StopWait() {
	p.workers.StopWait()
}
