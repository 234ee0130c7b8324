/*
Package dnsworker implements a simple limiting DNS client-request execution
pool. Subdig uses [DnsPool] with a pool of “DNS workers” for reverse (PTR)
lookups of candidate addresses.

Usage

	dnsclnt := dns.Client{Net: "udp"}
	workers, err := dnsworker.New(
	    context.Background(),
	    4,                    // number of parallel DNS connections and thus workers
	    &dnsclnt,             // DNS client
	    "127.0.0.1:53",       // address of server/resolver
	    dnsworker.WithTimeout(time.Second),
	)
	workers.ResolveAddr(ctx,
	    "192.168.1.5",
	    func(fqdn string, err error){
	        // do something with fqdn, unless there's an error reported
	    })
	workers.Submit(func(conn *dns.Conn){
	    // do something with the DNS connection
	})

Reverse lookups report one of three results: a name, [ErrNoEntry] if the
address simply has no reverse entry, or a [*ResolveError] for everything else.
Callers use errors.Is to tell the expected from the unexpected.

[SystemPool] offers the same ResolveAddr contract, but delegates to the
platform's resolver so that, for instance, hosts file entries are honored.

# Acknowledgements

Under its hood, [DnsPool] leverages [gammazero/workerpool] as
the limiting goroutine pool.

[gammazero/workerpool]: https://github.com/gammazero/workerpool
*/
package dnsworker
