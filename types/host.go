// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import "strings"

// HostRecord describes a single live host, that is, an address that has both a
// reverse DNS entry and accepted a connection.
type HostRecord struct {
	FQDN     string `json:"fqdn"`     // as returned by reverse resolution, without the root dot.
	Hostname string `json:"hostname"` // short name: FQDN up to its first dot.
	IP       string `json:"ip"`       // dotted-decimal address that produced this record.
}

// NewHostRecord returns a host record for the specified FQDN and IP address,
// deriving the short host name from the FQDN. A trailing root dot, as found in
// PTR resource records, gets stripped from the FQDN first.
func NewHostRecord(fqdn string, ip string) HostRecord {
	fqdn = strings.TrimSuffix(fqdn, ".")
	return HostRecord{
		FQDN:     fqdn,
		Hostname: ShortName(fqdn),
		IP:       ip,
	}
}

// ShortName returns the first label of an FQDN, or the FQDN itself if it
// consists of a single label only.
func ShortName(fqdn string) string {
	if idx := strings.IndexByte(fqdn, '.'); idx >= 0 {
		return fqdn[:idx]
	}
	return fqdn
}
