// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"time"

	"github.com/siemens/subdig/inventory"
	"gopkg.in/yaml.v3"
)

// Config is the complete subdig configuration.
type Config struct {
	Subnet         string         `yaml:"subnet"`
	TestSubstrings []string       `yaml:"test_substrings"`
	Groups         Groups         `yaml:"groups"`
	Probe          ProbeConfig    `yaml:"probe"`
	Resolver       ResolverConfig `yaml:"resolver"`
	Workers        int            `yaml:"workers"`

	subnetSet bool // subnet explicitly configured by file or environment.
}

// SubnetConfigured returns true if the subnet was explicitly set in the
// configuration file or environment, as opposed to being the default.
func (c *Config) SubnetConfigured() bool {
	return c.subnetSet
}

// ProbeConfig configures the reachability probes.
type ProbeConfig struct {
	Method       string   `yaml:"method"` // "tcp" or "icmp"
	Port         int      `yaml:"port"`
	Timeout      Duration `yaml:"timeout"`
	Unprivileged bool     `yaml:"unprivileged,omitempty"`
}

// ResolverConfig configures reverse DNS resolution.
type ResolverConfig struct {
	Mode    string   `yaml:"mode"`             // "dns" or "system"
	Server  string   `yaml:"server,omitempty"` // empty: first nameserver in resolv.conf
	Timeout Duration `yaml:"timeout"`
}

// Resolver modes.
const (
	ResolverDNS    = "dns"
	ResolverSystem = "system"
)

// Groups are the additional inventory groups in the order they were
// configured. In YAML, groups are a mapping from group names to substring
// lists.
type Groups inventory.GroupRules

// Rules returns the groups as inventory group rules.
func (g Groups) Rules() inventory.GroupRules {
	return inventory.GroupRules(g)
}

// UnmarshalYAML decodes a mapping of group names to substring lists, keeping
// the order of the groups.
func (g *Groups) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: groups must be a mapping of group names to substring lists",
			value.Line)
	}
	groups := make(Groups, 0, len(value.Content)/2)
	for idx := 0; idx+1 < len(value.Content); idx += 2 {
		var name string
		if err := value.Content[idx].Decode(&name); err != nil {
			return err
		}
		var substrings []string
		if err := value.Content[idx+1].Decode(&substrings); err != nil {
			return fmt.Errorf("group %q: %w", name, err)
		}
		if substrings == nil {
			substrings = []string{}
		}
		groups = append(groups, inventory.GroupRule{Name: name, Substrings: substrings})
	}
	*g = groups
	return nil
}

// MarshalYAML encodes the groups as a mapping, in group order.
func (g Groups) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, group := range g {
		var substrings yaml.Node
		if err := substrings.Encode(group.Substrings); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: group.Name},
			&substrings)
	}
	return node, nil
}

// Duration wraps time.Duration for YAML (un)marshalling in the "1s" notation.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
