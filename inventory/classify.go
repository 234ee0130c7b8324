// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package inventory

import (
	"strings"

	"github.com/siemens/subdig/types"
)

// Names of the two built-in groups.
const (
	TestGroup = "test"
	ProdGroup = "prod"
)

// GroupRule admits a host into the named group if its short host name contains
// any one of the rule's substrings.
type GroupRule struct {
	Name       string
	Substrings []string
}

// GroupRules is an ordered list of group rules. The order doesn't change the
// classification, but it determines the order of the groups in the inventory.
type GroupRules []GroupRule

// Names returns the group names in rule order.
func (r GroupRules) Names() []string {
	names := make([]string, 0, len(r))
	for _, rule := range r {
		names = append(names, rule.Name)
	}
	return names
}

// NamedGroup is a group of hosts, listed by their short host names.
type NamedGroup struct {
	Name  string
	Hosts []string
}

// BaseGroups is the split of hosts into the built-in test and prod groups.
type BaseGroups struct {
	Test []string
	Prod []string
}

// Groups returns the base groups as named groups, test first.
func (b BaseGroups) Groups() []NamedGroup {
	return []NamedGroup{
		{Name: TestGroup, Hosts: b.Test},
		{Name: ProdGroup, Hosts: b.Prod},
	}
}

// containsAny returns true if s contains at least one of the substrings. The
// match is a case-sensitive plain substring containment.
func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ClassifyTestProd splits the hosts into the test group, with the host names
// containing any of the test substrings, and the prod group with all the other
// hosts. Every host thus lands in exactly one of the two groups, and the groups
// keep the order of the hosts.
func ClassifyTestProd(hosts []types.HostRecord, testSubstrings []string) BaseGroups {
	groups := BaseGroups{
		Test: []string{},
		Prod: []string{},
	}
	for _, host := range hosts {
		if containsAny(host.Hostname, testSubstrings) {
			groups.Test = append(groups.Test, host.Hostname)
			continue
		}
		groups.Prod = append(groups.Prod, host.Hostname)
	}
	return groups
}

// ClassifyByRules returns one group per rule, in rule order, listing the hosts
// whose names contain any of the rule's substrings. A host is listed at most
// once per group, however many substrings it matches, but it might be listed
// in several groups, or in none. Groups without any matching host are present
// nevertheless, with an empty host list.
func ClassifyByRules(hosts []types.HostRecord, rules GroupRules) []NamedGroup {
	groups := make([]NamedGroup, 0, len(rules))
	for _, rule := range rules {
		group := NamedGroup{Name: rule.Name, Hosts: []string{}}
		for _, host := range hosts {
			if containsAny(host.Hostname, rule.Substrings) {
				group.Hosts = append(group.Hosts, host.Hostname)
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// Dedup removes hosts whose short host name duplicates the name of an earlier
// host, returning the kept hosts as well as the dropped ones. As hosts come in
// ascending address order, the host with the lowest address wins.
func Dedup(hosts []types.HostRecord) (kept []types.HostRecord, dropped []types.HostRecord) {
	kept = make([]types.HostRecord, 0, len(hosts))
	seen := map[string]struct{}{}
	for _, host := range hosts {
		if _, ok := seen[host.Hostname]; ok {
			dropped = append(dropped, host)
			continue
		}
		seen[host.Hostname] = struct{}{}
		kept = append(kept, host)
	}
	return kept, dropped
}
