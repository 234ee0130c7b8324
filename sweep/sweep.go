// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package sweep

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/siemens/subdig/dnsworker"
	"github.com/siemens/subdig/types"

	"github.com/thediveo/lxkns/log"
)

// The closed range of host numbers swept on a /24 subnet.
const (
	FirstHost = 1
	LastHost  = 254
)

// Resolver reverse-resolves addresses asynchronously, calling back exactly
// once per address. [dnsworker.DnsPool] and [dnsworker.SystemPool] are
// Resolvers.
type Resolver interface {
	ResolveAddr(ctx context.Context, addr string, fn func(fqdn string, err error))
	StopWait()
}

// Prober checks the reachability of an address; [probe.Prober] is a Prober.
type Prober interface {
	Probe(ctx context.Context, addr string) bool
}

// Summary summarizes a sweep and tells whether it ran to completion.
type Summary struct {
	Candidates    int  `json:"candidates"`
	Found         int  `json:"found"`
	NoEntry       int  `json:"noEntry"`
	ResolveFailed int  `json:"resolveFailed"`
	Unreachable   int  `json:"unreachable"`
	NotAttempted  int  `json:"notAttempted"` // left undecided by cancellation.
	Complete      bool `json:"complete"`     // false if the sweep was cut short.
}

// String renders the summary in a single line.
func (r Summary) String() string {
	s := fmt.Sprintf("%d candidates: %d found, %d without reverse entry, %d resolution failures, %d unreachable",
		r.Candidates, r.Found, r.NoEntry, r.ResolveFailed, r.Unreachable)
	if r.NotAttempted > 0 {
		s += fmt.Sprintf(", %d not attempted", r.NotAttempted)
	}
	if !r.Complete {
		s += " (incomplete)"
	}
	return s
}

// Sweeper discovers the live hosts on a subnet by first reverse-resolving each
// candidate address and then probing the reachability of the addresses that
// resolved.
//
// The reverse resolutions run concurrently as far as the Resolver allows,
// whereas the reachability probe of an address is carried out on the same
// worker that resolved it. Sweepers are single-use, as Sweep winds down the
// Resolver when done.
type Sweeper struct {
	resolver Resolver
	prober   Prober
	news     chan<- types.Candidate // optional progress stream, or nil.
}

// Option can be passed to New when creating new Sweeper objects.
type Option func(*Sweeper)

// WithNews tells a Sweeper to stream progress updates about the candidate
// addresses to the specified channel. The Sweeper closes this news channel
// when its sweep ends.
func WithNews(news chan<- types.Candidate) Option {
	return func(s *Sweeper) {
		s.news = news
	}
}

// New returns a new Sweeper using the specified Resolver and Prober.
func New(resolver Resolver, prober Prober, options ...Option) *Sweeper {
	s := &Sweeper{
		resolver: resolver,
		prober:   prober,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Candidates returns the candidate addresses prefix.1 to prefix.254, in
// ascending order.
func Candidates(prefix string) []string {
	addrs := make([]string, 0, LastHost-FirstHost+1)
	for host := FirstHost; host <= LastHost; host++ {
		addrs = append(addrs, prefix+"."+strconv.Itoa(host))
	}
	return addrs
}

// Sweep the subnet with the specified prefix (such as "192.168.1") and return
// the live hosts found in ascending address order, together with a report.
// Addresses without reverse entry, failing reverse resolution, or failing the
// reachability probe are skipped; no error ever escapes a sweep.
//
// When the context gets cancelled, Sweep returns as soon as the already
// started resolutions and probes have finished, with the report marked as
// incomplete.
func (s *Sweeper) Sweep(ctx context.Context, prefix string) ([]types.HostRecord, Summary) {
	addrs := Candidates(prefix)
	// Each worker writes only to the slot of its own candidate, so there is no
	// need for locking; StopWait below then provides the necessary
	// happens-before before we read all the slots.
	slots := make([]types.Candidate, len(addrs))
	for idx, addr := range addrs {
		idx, addr := idx, addr
		slots[idx] = types.Candidate{Addr: addr}
		s.notify(ctx, slots[idx])
		s.resolver.ResolveAddr(ctx, addr, func(fqdn string, err error) {
			slots[idx] = s.decide(ctx, addr, fqdn, err)
			s.notify(ctx, slots[idx])
		})
	}
	s.resolver.StopWait()
	if s.news != nil {
		close(s.news)
	}

	report := Summary{
		Candidates: len(addrs),
		Complete:   ctx.Err() == nil,
	}
	hosts := []types.HostRecord{}
	for _, c := range slots {
		switch c.Outcome {
		case types.Found:
			report.Found++
			hosts = append(hosts, c.Record())
		case types.NoEntry:
			report.NoEntry++
		case types.ResolveFailed:
			report.ResolveFailed++
		case types.Unreachable:
			report.Unreachable++
		default:
			report.NotAttempted++
			report.Complete = false
		}
	}
	return hosts, report
}

// decide the outcome of a single candidate address, given its reverse
// resolution result, probing the address if necessary.
func (s *Sweeper) decide(ctx context.Context, addr string, fqdn string, err error) types.Candidate {
	c := types.Candidate{Addr: addr, FQDN: fqdn}
	switch {
	case errors.Is(err, dnsworker.ErrNoEntry):
		log.Debugf("skipping %s: no reverse DNS entry", addr)
		c.Outcome = types.NoEntry
		return c
	case err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()):
		// cancelled before the lookup got a chance: neither found nor failed.
		c.Err = err
		return c
	case err != nil:
		log.Warnf("skipping %s: %s", addr, err.Error())
		c.Outcome = types.ResolveFailed
		c.Err = err
		return c
	case fqdn == "":
		log.Debugf("skipping %s: empty reverse DNS entry", addr)
		c.Outcome = types.NoEntry
		return c
	}
	c.Quality = types.Verifying
	s.notify(ctx, c)
	if !s.prober.Probe(ctx, addr) {
		log.Debugf("skipping %s (%s): unreachable", addr, fqdn)
		c.Quality = types.Invalid
		c.Outcome = types.Unreachable
		return c
	}
	log.Debugf("found %s (%s)", addr, fqdn)
	c.Quality = types.Verified
	c.Outcome = types.Found
	return c
}

// notify the news consumer, if any, about a candidate update. Allow cancelling
// a blocked send to avoid leaking goroutines.
func (s *Sweeper) notify(ctx context.Context, c types.Candidate) {
	if s.news == nil {
		return
	}
	select {
	case s.news <- c:
	case <-ctx.Done():
	}
}
