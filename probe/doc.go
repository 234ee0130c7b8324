/*
Package probe implements reachability probing of individual IP addresses.

By default, a [Prober] attempts a TCP connect to the SSH port of an address,
giving up after one second. The connection is torn down immediately after it
has been established; no data is ever sent. Alternatively, a Prober can send a
single ICMP echo request instead, either privileged or unprivileged (using UDP).

	         +---+
	string-->| P +--> bool
	         +---+

A Prober can be told to probe from inside a different network namespace, such
as the one of a container, in order to see the network from the perspective of
that container.

# Acknowledgements

ICMP-based probes leverage the [go-ping/ping] module.

[go-ping/ping]: https://github.com/go-ping/ping
*/
package probe
