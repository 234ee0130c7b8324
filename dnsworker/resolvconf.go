// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dnsworker

import (
	"fmt"
	"net"

	"github.com/miekg/dns"
)

// ResolvConfPath is where the platform's DNS resolver configuration lives.
var ResolvConfPath = "/etc/resolv.conf"

// ResolverAddress returns the "host:port" address of the DNS resolver to send
// queries to. An explicitly specified server wins, defaulting to port 53 if it
// lacks a port. Otherwise, the first nameserver from [ResolvConfPath] is used.
func ResolverAddress(server string) (string, error) {
	if server != "" {
		if _, _, err := net.SplitHostPort(server); err == nil {
			return server, nil
		}
		return net.JoinHostPort(server, "53"), nil
	}
	cc, err := dns.ClientConfigFromFile(ResolvConfPath)
	if err != nil {
		return "", fmt.Errorf("cannot read resolver configuration: %w", err)
	}
	if len(cc.Servers) == 0 {
		return "", fmt.Errorf("no nameserver configured in %s", ResolvConfPath)
	}
	return net.JoinHostPort(cc.Servers[0], cc.Port), nil
}
