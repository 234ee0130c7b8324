// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package inventory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/siemens/subdig/types"
)

// Errors when assembling groups that would shadow each other.
var (
	ErrReservedGroup  = errors.New("reserved group name")
	ErrDuplicateGroup = errors.New("duplicate group name")
)

// Top-level keys of an inventory document besides its groups.
const (
	allKey  = "all"
	metaKey = "_meta"
)

// reserved lists the group names that additional groups must not use.
var reserved = map[string]struct{}{
	TestGroup: {},
	ProdGroup: {},
	allKey:    {},
	metaKey:   {},
}

// HostVars are the per-host variables of a host in an inventory.
type HostVars struct {
	FQDN string `json:"fqdn"`
	IP   string `json:"ip"`
}

// Document is an Ansible dynamic inventory. It is immutable once assembled.
type Document struct {
	all      []string
	hostvars map[string]HostVars
	groups   []NamedGroup // built-in groups first, then additional groups.
}

// CheckGroupName returns an error if the specified name cannot be used for an
// additional group.
func CheckGroupName(name string) error {
	if name == "" {
		return fmt.Errorf("empty group name")
	}
	if _, ok := reserved[name]; ok {
		return fmt.Errorf("group %q: %w", name, ErrReservedGroup)
	}
	return nil
}

// Assemble the inventory document from the hosts, the built-in base groups and
// the additional groups. Additional groups must neither reuse the name of a
// built-in group nor of the top-level "all" and "_meta" keys, nor must they
// repeat each other's names.
func Assemble(hosts []types.HostRecord, base BaseGroups, additional []NamedGroup) (*Document, error) {
	doc := &Document{
		all:      make([]string, 0, len(hosts)),
		hostvars: make(map[string]HostVars, len(hosts)),
		groups:   make([]NamedGroup, 0, 2+len(additional)),
	}
	for _, host := range hosts {
		doc.all = append(doc.all, host.Hostname)
		doc.hostvars[host.Hostname] = HostVars{FQDN: host.FQDN, IP: host.IP}
	}
	doc.groups = append(doc.groups, base.Groups()...)
	seen := map[string]struct{}{}
	for _, group := range additional {
		if err := CheckGroupName(group.Name); err != nil {
			return nil, err
		}
		if _, ok := seen[group.Name]; ok {
			return nil, fmt.Errorf("group %q: %w", group.Name, ErrDuplicateGroup)
		}
		seen[group.Name] = struct{}{}
		doc.groups = append(doc.groups, group)
	}
	for idx := range doc.groups {
		if doc.groups[idx].Hosts == nil {
			doc.groups[idx].Hosts = []string{}
		}
	}
	return doc, nil
}

// Build deduplicates the hosts, classifies them, and then assembles the
// inventory. It additionally returns the hosts dropped as duplicates.
func Build(hosts []types.HostRecord, testSubstrings []string, rules GroupRules) (*Document, []types.HostRecord, error) {
	hosts, dropped := Dedup(hosts)
	doc, err := Assemble(hosts,
		ClassifyTestProd(hosts, testSubstrings),
		ClassifyByRules(hosts, rules))
	if err != nil {
		return nil, nil, err
	}
	return doc, dropped, nil
}

// Hosts returns the short names of all hosts, in discovery order.
func (d *Document) Hosts() []string {
	return append([]string{}, d.all...)
}

// Groups returns all groups, built-in groups first.
func (d *Document) Groups() []NamedGroup {
	return append([]NamedGroup{}, d.groups...)
}

// HostVarsFor returns the host variables of the named host and true, or false
// if there is no such host.
func (d *Document) HostVarsFor(name string) (HostVars, bool) {
	vars, ok := d.hostvars[name]
	return vars, ok
}

type hostList struct {
	Hosts []string `json:"hosts"`
}

type meta struct {
	HostVars map[string]HostVars `json:"hostvars"`
}

// MarshalJSON renders the inventory with its top-level keys in the order
// "all", "_meta", and then the groups with the built-in groups first.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	field := func(key string, v interface{}) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}
	if err := field(allKey, hostList{Hosts: d.all}); err != nil {
		return nil, err
	}
	if err := field(metaKey, meta{HostVars: d.hostvars}); err != nil {
		return nil, err
	}
	for _, group := range d.groups {
		if err := field(group.Name, hostList{Hosts: group.Hosts}); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteJSON writes the inventory as JSON indented by four spaces, followed by a
// newline.
func (d *Document) WriteJSON(w io.Writer) error {
	return writeIndentedJSON(w, d)
}

// WriteHostJSON writes the host variables of the named host as indented JSON;
// unknown hosts get an empty object, as Ansible expects.
func (d *Document) WriteHostJSON(w io.Writer, name string) error {
	vars, ok := d.HostVarsFor(name)
	if !ok {
		return writeIndentedJSON(w, struct{}{})
	}
	return writeIndentedJSON(w, vars)
}

func writeIndentedJSON(w io.Writer, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cannot render inventory: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "    "); err != nil {
		return fmt.Errorf("cannot render inventory: %w", err)
	}
	out.WriteByte('\n')
	_, err = out.WriteTo(w)
	return err
}
