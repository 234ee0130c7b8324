/*
Package sweep implements the discovery of live hosts on a /24 subnet.

A [Sweeper] walks the candidate addresses prefix.1 to prefix.254 and first
reverse-resolves each candidate. Only candidates with a reverse DNS entry are
then probed for reachability; a candidate becomes a live host only if it passes
both stages. Reverse resolutions and probes might run concurrently, depending on
the size of the worker pool backing the [Resolver], but the live hosts are
always returned in ascending address order.

	              +----------+      +--------+
	prefix.1..254-->| Resolver +----->| Prober +--> []HostRecord
	              +----------+      +--------+

Optionally, a Sweeper streams progress updates about its candidates, which a
[Tracker] can consume for rendering purposes.
*/
package sweep
