// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dnsworker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/miekg/dns"
	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/ops/relations"
	"github.com/thediveo/lxkns/species"
)

// DefaultTimeout limits a single reverse lookup unless told otherwise, so that
// we never inherit an unbounded platform default.
const DefaultTimeout = 2 * time.Second

// DnsPool is a (size-limited) pool of DNS client connections talking with the
// same DNS resolver address.
type DnsPool struct {
	netns   relations.Relation // network namespace to resolve from, or nil.
	timeout time.Duration      // per-query exchange timeout.
	client  *dns.Client
	workers *workerpool.WorkerPool
	mu      sync.Mutex // protects the pool of DNS connections
	free    []*dns.Conn
}

// DnsPoolOption can be passed to New when creating new [DnsPool] objects.
type DnsPoolOption func(*DnsPool)

// New returns a pool of the specified size of DNS client connections, with each
// connection using the specified context and talking to the same DNS resolver
// address.
//
// DNS tasks are submitted using [DnsPool.Submit] in form of task functions
// receiving a concrete [dns.Conn].
//
// The passed context is used for creating (dialing) the DNS client connections
// only. It is not directly passed to the submitted DNS tasks, so task
// submitters are themselves responsible for capturing the necessary context in
// their task function closure.
//
// To operate a DnsPool in a network namespace different to that of the OS-level
// thread of the caller specify the [InNetworkNamespace] option and pass it a
// filesystem path that must reference a network namespace (such as
// "/proc/666/ns/net").
func New(ctx context.Context, size int, dnsclnt *dns.Client, addr string, options ...DnsPoolOption) (*DnsPool, error) {
	dnspool := &DnsPool{
		timeout: DefaultTimeout,
		workers: workerpool.New(size),
	}
	for _, opt := range options {
		opt(dnspool)
	}
	// Work on our own copy of the client so that the exchange timeout applies
	// to our queries only.
	clnt := *dnsclnt
	if clnt.Timeout == 0 {
		clnt.Timeout = dnspool.timeout
	}
	dnspool.client = &clnt
	// Create the DNS client connections for the workers ... please note that we
	// dial them all upfront and bail out if we cannot get all of them.
	free := make([]*dns.Conn, 0, size)
	dial := func() interface{} {
		for i := 0; i < size; i++ {
			conn, err := dnspool.client.DialContext(ctx, addr)
			if err != nil {
				// Immediately release all connections created so far.
				for _, conn := range free {
					conn.Close()
				}
				return err
			}
			free = append(free, conn)
		}
		return nil
	}
	// Dial the connections in the requested network namespace, if necessary.
	var err error
	var dialerr interface{}
	if dnspool.netns != nil {
		dialerr, err = ops.Execute(dial, dnspool.netns)
	} else {
		dialerr = dial()
	}
	if err == nil && dialerr != nil {
		err = dialerr.(error)
	}
	if err != nil {
		dnspool.workers.Stop()
		return nil, err
	}
	dnspool.free = free
	return dnspool, nil
}

// InNetworkNamespace optionally runs a DnsPool inside the network namespace
// referenced by the specified filesystem path.
func InNetworkNamespace(netnsref string) DnsPoolOption {
	return func(p *DnsPool) {
		if netnsref == "" {
			return
		}
		p.netns = ops.NewTypedNamespacePath(netnsref, species.CLONE_NEWNET)
	}
}

// WithTimeout sets the exchange timeout for each individual DNS query, unless
// the DNS client passed to New already has its own timeout set.
func WithTimeout(timeout time.Duration) DnsPoolOption {
	return func(p *DnsPool) {
		p.timeout = timeout
	}
}

// Submit a task to the DNS client connection pool, where it gets enqueued to be
// executed on an available DNS client connection.
func (p *DnsPool) Submit(task func(conn *dns.Conn)) {
	p.workers.Submit(func() { p.task(task) })
}

// ResolveAddr is a convenience method for submitting a PTR query for the
// specified IP address and gathering the result. The resolved FQDN (without
// its trailing root dot) or an error if resolution failed is passed to the
// specified callback function fn. fn is always called exactly once.
//
// When the address has no reverse entry, the error is [ErrNoEntry]. All other
// failures are reported as [*ResolveError].
//
// Please note that when the passed context is cancelled this will cancel all
// scheduled, but not yet started, reverse lookups.
func (p *DnsPool) ResolveAddr(ctx context.Context, addr string, fn func(string, error)) {
	p.Submit(func(conn *dns.Conn) {
		var fqdn string
		var err error
		defer func() { fn(fqdn, err) }() // ...ensure triggering the result callback on our way out

		select {
		case <-ctx.Done():
			err = &ResolveError{Addr: addr, Err: ctx.Err()}
			return
		default:
		}

		fqdn, err = p.lookupPTR(conn, addr)
	})
}

// lookupPTR queries the PTR record of the specified address on the passed DNS
// client connection.
func (p *DnsPool) lookupPTR(conn *dns.Conn, addr string) (string, error) {
	arpa, err := dns.ReverseAddr(addr)
	if err != nil {
		return "", &ResolveError{Addr: addr, Err: err}
	}
	msg := new(dns.Msg)
	msg.SetQuestion(arpa, dns.TypePTR)
	r, _, err := p.client.ExchangeWithConn(msg, conn)
	if err != nil {
		return "", &ResolveError{Addr: addr, Err: err}
	}
	switch r.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return "", ErrNoEntry
	default:
		return "", &ResolveError{
			Addr: addr,
			Err:  fmt.Errorf("resolver answered %s", dns.RcodeToString[r.Rcode]),
		}
	}
	for _, rr := range r.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, "."), nil
		}
	}
	// NOERROR, but no data: as good as having no entry at all.
	return "", ErrNoEntry
}

// task grabs the next free DNS client and passes it to the specified function.
// After the function returns, the connection is put back into the free list.
func (p *DnsPool) task(task func(conn *dns.Conn)) {
	// pop off a free DNS client connection,
	// https://ueokande.github.io/go-slice-tricks/,
	p.mu.Lock()
	if len(p.free) == 0 {
		p.mu.Unlock()
		panic("no free DNS client connection available")
	}
	last := len(p.free) - 1
	conn := p.free[last]
	p.free = p.free[:last]
	p.mu.Unlock()
	// ...and push the DNS client connection back into the free list, even if
	// the task panics.
	defer func() {
		p.mu.Lock()
		p.free = append(p.free, conn)
		p.mu.Unlock()
	}()
	task(conn)
}

// StopWait waits for all enqueued reverse lookup or generic DNS request tasks
// to finish, and then shuts down the pool.
func (p *DnsPool) StopWait() {
	p.workers.StopWait()
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, conn := range p.free {
		conn.Close()
	}
	p.free = nil
}
