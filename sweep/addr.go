// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package sweep

import (
	"bytes"
	"net"
)

// addrLess orders IP addresses numerically, falling back to lexicographic
// order for anything that isn't an IP address.
func addrLess(a, b string) bool {
	ipA := net.ParseIP(a).To16()
	ipB := net.ParseIP(b).To16()
	if ipA == nil || ipB == nil {
		return a < b
	}
	return bytes.Compare(ipA, ipB) < 0
}
