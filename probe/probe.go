// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-ping/ping"
	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/ops/relations"
	"github.com/thediveo/lxkns/species"
)

// Defaults for probing: the SSH port, as the inventory is meant for an
// SSH-based orchestration tool, and one second per connection attempt.
const (
	DefaultPort    = 22
	DefaultTimeout = time.Second
)

// Method is the way of probing an address for reachability.
type Method int

// The supported probing methods.
const (
	TCP  Method = iota // TCP connect to the probe port.
	ICMP               // single ICMP (or UDP, if unprivileged) echo.
)

// String returns the clear-text representation of a Method value.
func (m Method) String() string {
	switch m {
	case TCP:
		return "tcp"
	case ICMP:
		return "icmp"
	}
	return fmt.Sprintf("Method(%d)", m)
}

// ParseMethod returns the Method with the specified name.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(name) {
	case "tcp", "":
		return TCP, nil
	case "icmp":
		return ICMP, nil
	}
	return TCP, fmt.Errorf("unknown probe method %q", name)
}

// Prober checks the reachability of individual addresses. A Prober is
// stateless after its creation and can thus be used concurrently.
type Prober struct {
	port         int                // TCP port to connect to.
	timeout      time.Duration      // per-probe timeout.
	method       Method             // how to probe.
	unprivileged bool               // if true, uses UDP-based pings instead of privileged ICMPs.
	netns        relations.Relation // network namespace to probe from, or nil.
}

// ProberOption can be passed to New when creating new Prober objects.
type ProberOption func(*Prober)

// New returns a new [Prober]. The new prober defaults to TCP connects to port
// 22 with a timeout of 1s.
//
// The prober can be configured during creation using several options:
//   - [WithPort]
//   - [WithTimeout]
//   - [WithMethod]
//   - [AsUnprivileged]
//
// To operate a Prober in a network namespace different to that of the OS-level
// thread of the caller specify the InNetworkNamespace option and pass it a
// filesystem path that must reference a network namespace (such as
// "/proc/666/ns/net").
func New(options ...ProberOption) *Prober {
	p := &Prober{
		port:    DefaultPort,
		timeout: DefaultTimeout,
		method:  TCP,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// InNetworkNamespace optionally runs a [Prober] inside the network namespace
// referenced by the specified filesystem path.
func InNetworkNamespace(netnsref string) ProberOption {
	return func(p *Prober) {
		if netnsref == "" {
			return
		}
		p.netns = ops.NewTypedNamespacePath(netnsref, species.CLONE_NEWNET)
	}
}

// WithPort sets the TCP port to connect to.
func WithPort(port uint16) ProberOption {
	if port == 0 {
		panic("Prober: port must be 1 <= port <= 65535")
	}
	return func(p *Prober) {
		p.port = int(port)
	}
}

// WithTimeout sets the maximum time to wait for a probe to succeed.
func WithTimeout(timeout time.Duration) ProberOption {
	return func(p *Prober) {
		p.timeout = timeout
	}
}

// WithMethod sets the probing method.
func WithMethod(method Method) ProberOption {
	return func(p *Prober) {
		p.method = method
	}
}

// AsUnprivileged tells the Prober to carry out unprivileged pings using UDP
// instead of ICMP packets when using the ICMP method.
func AsUnprivileged() ProberOption {
	return func(p *Prober) {
		p.unprivileged = true
	}
}

// Probe returns true if the specified address is reachable using the
// configured probe method within the configured timeout. Errors, timeouts, and
// a cancelled context all render an address unreachable.
func (p *Prober) Probe(ctx context.Context, addr string) bool {
	probe := func() interface{} {
		switch p.method {
		case ICMP:
			return p.echo(ctx, addr)
		default:
			if !IsReachable(ctx, addr, p.port, p.timeout) {
				return errUnreachable
			}
			return nil
		}
	}
	// Run the probe in the requested network namespace, if necessary. lxkns'
	// ops.Execute differentiates between a namespace switching error and the
	// under switched namespaces called function result, so we need to check
	// both.
	if p.netns != nil {
		res, err := ops.Execute(probe, p.netns)
		return err == nil && res == nil
	}
	return probe() == nil
}

var errUnreachable = errors.New("unreachable")

// IsReachable returns true if a TCP connection to the specified address and
// port could be established before the timeout elapsed. The connection is then
// immediately closed again without sending any data. Any connection error or
// timeout results in false, and there are no retries.
func IsReachable(ctx context.Context, addr string, port int, timeout time.Duration) bool {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(addr, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// echo sends a single ICMP echo to the specified address, returning nil if a
// reply came back in time.
func (p *Prober) echo(ctx context.Context, addr string) error {
	// A quick and non-blocking check to see if the context has been cancelled
	// before we start our work...
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	pinger, err := ping.NewPinger(addr)
	if err != nil {
		return err
	}
	pinger.SetPrivileged(!p.unprivileged)
	pinger.Count = 1
	pinger.Interval = p.timeout
	pinger.Timeout = p.timeout
	// While the ping will be running, we need to monitor the context in case it
	// becomes "done" by either getting cancelled or reaching its deadline. The
	// done channel here works "the other way round" in the sense that it
	// terminates the concurrent context monitoring.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pinger.Stop()
		case <-done:
		}
	}()
	if err = pinger.Run(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if pinger.Statistics().PacketsRecv == 0 {
		return errors.New("no reply")
	}
	return nil
}
