// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package mobynet

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/docker/docker/api/types"
)

// ContainerInspector inspects containers; [client.Client] from
// github.com/docker/docker/client is a ContainerInspector.
type ContainerInspector interface {
	ContainerInspect(ctx context.Context, container string) (types.ContainerJSON, error)
}

// AttachedNetwork is a Docker network a container is attached to, together
// with the container's IPv4 address on it.
type AttachedNetwork struct {
	Name   string // Docker network name
	IP     string // the container's IPv4 address on this network
	Prefix string // the /24 prefix of IP, such as "172.17.0"
}

// ContainerNetwork takes on the position of the container identified by name
// (or ID) and returns the path of its network namespace, as well as the /24
// prefixes of the IPv4 networks it is attached to, sorted by network name and
// without duplicates. Sweeping such a prefix from inside the container's
// network namespace then discovers the other containers on that network.
func ContainerNetwork(ctx context.Context, moby ContainerInspector, name string) (string, []string, error) {
	netnsref, networks, err := AttachedNetworks(ctx, moby, name)
	if err != nil {
		return "", nil, err
	}
	seen := map[string]struct{}{}
	prefixes := make([]string, 0, len(networks))
	for _, network := range networks {
		if _, ok := seen[network.Prefix]; ok {
			continue
		}
		seen[network.Prefix] = struct{}{}
		prefixes = append(prefixes, network.Prefix)
	}
	return netnsref, prefixes, nil
}

// AttachedNetworks inspects the container identified by name (or ID) and
// returns the path of its network namespace as well as the networks with IPv4
// addresses it is attached to, sorted by network name.
func AttachedNetworks(ctx context.Context, moby ContainerInspector, name string) (string, []AttachedNetwork, error) {
	details, err := moby.ContainerInspect(ctx, name)
	if err != nil {
		return "", nil, err
	}
	if details.ContainerJSONBase == nil || details.State == nil || details.State.Pid == 0 {
		return "", nil, fmt.Errorf("container '%s' is not running", name)
	}
	netnsref := fmt.Sprintf("/proc/%d/ns/net", details.State.Pid)
	if details.NetworkSettings == nil {
		return netnsref, []AttachedNetwork{}, nil
	}
	networks := make([]AttachedNetwork, 0, len(details.NetworkSettings.Networks))
	for netName, endpoint := range details.NetworkSettings.Networks {
		if endpoint == nil || endpoint.IPAddress == "" {
			continue // host network, or IPv6 only
		}
		prefix, err := SubnetPrefix(endpoint.IPAddress)
		if err != nil {
			continue
		}
		networks = append(networks, AttachedNetwork{
			Name:   netName,
			IP:     endpoint.IPAddress,
			Prefix: prefix,
		})
	}
	sort.Slice(networks, func(a, b int) bool {
		return networks[a].Name < networks[b].Name
	})
	return netnsref, networks, nil
}

// SubnetPrefix returns the first three octets of an IPv4 address, such as
// "192.168.1" for "192.168.1.42".
func SubnetPrefix(ipv4 string) (string, error) {
	ip := net.ParseIP(strings.TrimSpace(ipv4)).To4()
	if ip == nil {
		return "", fmt.Errorf("not an IPv4 address: %q", ipv4)
	}
	return fmt.Sprintf("%d.%d.%d", ip[0], ip[1], ip[2]), nil
}
