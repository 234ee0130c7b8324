// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package inventory

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// WriteYAML writes the inventory as a static Ansible YAML inventory: all hosts
// with their variables below "all.hosts", and the groups as children of "all",
// in group order.
func (d *Document) WriteYAML(w io.Writer) error {
	hosts := mapping()
	for _, name := range d.all {
		vars := d.hostvars[name]
		hosts.Content = append(hosts.Content,
			scalar(name),
			mapping(
				scalar("ansible_host"), scalar(vars.IP),
				scalar("fqdn"), scalar(vars.FQDN),
			))
	}
	children := mapping()
	for _, group := range d.groups {
		members := mapping()
		for _, name := range group.Hosts {
			members.Content = append(members.Content, scalar(name), null())
		}
		children.Content = append(children.Content,
			scalar(group.Name),
			mapping(scalar("hosts"), members))
	}
	doc := mapping(
		scalar(allKey), mapping(
			scalar("hosts"), hosts,
			scalar("children"), children,
		))

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		_ = enc.Close()
		return fmt.Errorf("failed to encode Ansible inventory: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to write Ansible inventory: %w", err)
	}
	return nil
}

func mapping(content ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: content}
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func null() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: ""}
}
