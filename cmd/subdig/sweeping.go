// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/siemens/subdig/config"
	"github.com/siemens/subdig/dnsworker"
	"github.com/siemens/subdig/inventory"
	"github.com/siemens/subdig/mobynet"
	"github.com/siemens/subdig/probe"
	"github.com/siemens/subdig/sweep"
	"github.com/siemens/subdig/types"

	"github.com/docker/docker/client"
	"github.com/gosuri/uilive"
	"github.com/miekg/dns"
	"github.com/thediveo/lxkns/log"
)

// SweepAndReport sweeps the configured subnet from inside the network
// namespace referenced by netns (or the current one if ""), and then writes
// the resulting inventory to out. Progress, if enabled, goes to errout.
//
// Once the resolver and prober are in place, SweepAndReport always writes an
// inventory, even if the sweep was interrupted; the inventory then contains
// the hosts found so far.
func SweepAndReport(ctx context.Context, cfg *config.Config, netns string, out io.Writer, errout io.Writer) error {
	resolver, err := newResolver(ctx, cfg, netns)
	if err != nil {
		return fmt.Errorf("cannot set up reverse resolution: %w", err)
	}
	prober, err := newProber(cfg, netns)
	if err != nil {
		resolver.StopWait()
		return fmt.Errorf("cannot set up reachability probing: %w", err)
	}

	var hosts []types.HostRecord
	var report sweep.Summary
	if *progress {
		hosts, report = sweepWithProgress(ctx, cfg.Subnet, resolver, prober, errout)
	} else {
		hosts, report = sweep.New(resolver, prober).Sweep(ctx, cfg.Subnet)
	}
	if report.Complete {
		log.Infof("swept %s.0/24: %s", cfg.Subnet, report.String())
	} else {
		log.Warnf("swept %s.0/24: %s", cfg.Subnet, report.String())
	}

	rules := cfg.Groups.Rules()
	log.Debugf("classifying by test substrings %s and groups %s",
		strings.Join(cfg.TestSubstrings, ","), strings.Join(rules.Names(), ","))
	doc, dropped, err := inventory.Build(hosts, cfg.TestSubstrings, rules)
	if err != nil {
		return err
	}
	for _, dup := range dropped {
		log.Warnf("dropping %s (%s): duplicate host name %s", dup.IP, dup.FQDN, dup.Hostname)
	}
	sizes := []string{}
	for _, group := range doc.Groups() {
		sizes = append(sizes, fmt.Sprintf("%s=%d", group.Name, len(group.Hosts)))
	}
	log.Infof("inventory of %d hosts, groups: %s", len(doc.Hosts()), strings.Join(sizes, " "))

	switch {
	case *host != "":
		return doc.WriteHostJSON(out, *host)
	case *format == formatYAML:
		return doc.WriteYAML(out)
	default:
		return doc.WriteJSON(out)
	}
}

// sweepWithProgress sweeps the subnet while rendering the progress to the
// specified writer.
func sweepWithProgress(ctx context.Context, subnet string, resolver sweep.Resolver, prober sweep.Prober, w io.Writer) ([]types.HostRecord, sweep.Summary) {
	// The tracker consumes the sweeper's news stream, while the rendering
	// goroutine periodically renders the tracked state. Rendering stops only
	// after tracking has finished, that is, after the sweeper closed the news
	// stream. We then render a final update and signal renderingDone.
	tracker := sweep.NewTracker()
	news := make(chan types.Candidate, sweep.LastHost)
	trackingDone := make(chan struct{})
	renderingDone := make(chan struct{})

	go func() {
		// Avoid uilive's background updating using Start(), as it may trigger
		// at any time with the rendering into the buffer not yet complete.
		// Instead, flush explicitly after having rendered.
		term := uilive.New()
		term.Out = w
		renderer := newRenderer(term, subnet)
		defer func() {
			renderTracked(term, renderer, tracker)
			renderer.Stop()
			close(renderingDone)
		}()
		renderTracked(term, renderer, tracker)
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				renderTracked(term, renderer, tracker)
			case <-trackingDone:
				return
			}
		}
	}()
	go func() {
		// Don't stop tracking on cancellation: the sweeper closes the news
		// channel in any case.
		_ = tracker.Track(context.Background(), news)
		close(trackingDone)
	}()

	hosts, report := sweep.New(resolver, prober, sweep.WithNews(news)).Sweep(ctx, subnet)
	<-renderingDone
	return hosts, report
}

// renderTracked gets the current state of the candidates and then renders
// (and flushes) it to the terminal.
func renderTracked(term *uilive.Writer, r *renderer, tracker *sweep.Tracker) {
	r.Render(tracker.Get(), tracker.Counts())
	_ = term.Flush()
}

// newResolver returns the reverse resolver as configured; it can be replaced
// in tests.
var newResolver = func(ctx context.Context, cfg *config.Config, netns string) (sweep.Resolver, error) {
	timeout := cfg.Resolver.Timeout.Duration()
	if cfg.Resolver.Mode == config.ResolverSystem {
		return dnsworker.NewSystem(cfg.Workers, timeout), nil
	}
	addr, err := dnsworker.ResolverAddress(cfg.Resolver.Server)
	if err != nil {
		return nil, err
	}
	log.Debugf("reverse resolving via %s", addr)
	return dnsworker.New(ctx, cfg.Workers, &dns.Client{Net: "udp"}, addr,
		dnsworker.InNetworkNamespace(netns),
		dnsworker.WithTimeout(timeout))
}

// newProber returns the reachability prober as configured; it can be replaced
// in tests.
var newProber = func(cfg *config.Config, netns string) (sweep.Prober, error) {
	method, err := probe.ParseMethod(cfg.Probe.Method)
	if err != nil {
		return nil, err
	}
	options := []probe.ProberOption{
		probe.WithMethod(method),
		probe.WithPort(uint16(cfg.Probe.Port)),
		probe.WithTimeout(cfg.Probe.Timeout.Duration()),
		probe.InNetworkNamespace(netns),
	}
	if cfg.Probe.Unprivileged {
		options = append(options, probe.AsUnprivileged())
	}
	return probe.New(options...), nil
}

// containerNetwork returns the network namespace and the IPv4 subnet prefixes
// of the named container; it can be replaced in tests.
var containerNetwork = func(ctx context.Context, name string) (string, []string, error) {
	cln, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return "", nil, fmt.Errorf("cannot connect to the Docker daemon: %w", err)
	}
	defer cln.Close()
	return mobynet.ContainerNetwork(ctx, cln, name)
}
