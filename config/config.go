// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/siemens/subdig/inventory"
	"github.com/siemens/subdig/probe"
	"gopkg.in/yaml.v3"
)

// Built-in defaults.
const (
	DefaultSubnet          = "192.168.1"
	DefaultPort            = 22
	DefaultProbeTimeout    = 1 * time.Second
	DefaultResolverTimeout = 2 * time.Second
	DefaultWorkers         = 16
)

// Environment variables overriding configuration values.
const (
	EnvSubnet         = "SUBDIG_SUBNET"
	EnvTestSubstrings = "SUBDIG_TEST_SUBSTRINGS"
	EnvPort           = "SUBDIG_PORT"
	EnvWorkers        = "SUBDIG_WORKERS"
	EnvNameserver     = "SUBDIG_NAMESERVER"
)

// ErrInvalid is wrapped by all validation errors.
var ErrInvalid = errors.New("invalid configuration")

// Default returns the built-in default configuration.
func DefaultConfig() *Config {
	return &Config{
		Subnet:         DefaultSubnet,
		TestSubstrings: []string{"test", "dev"},
		Groups: Groups{
			{Name: "group1", Substrings: []string{"dev", "app"}},
			{Name: "group2", Substrings: []string{"db", "srv"}},
		},
		Probe: ProbeConfig{
			Method:  probe.TCP.String(),
			Port:    DefaultPort,
			Timeout: Duration(DefaultProbeTimeout),
		},
		Resolver: ResolverConfig{
			Mode:    ResolverDNS,
			Timeout: Duration(DefaultResolverTimeout),
		},
		Workers: DefaultWorkers,
	}
}

// Load loads the configuration file at the specified path or, if path is
// empty, the configuration file found by [FindConfigPath]. Without any
// configuration file, Load returns the defaults. Load additionally returns the
// path of the configuration file loaded, if any.
func Load(path string) (*Config, string, error) {
	if path == "" {
		path = FindConfigPath()
		if path == "" {
			return DefaultConfig(), "", nil
		}
	}
	return LoadFromPath(path)
}

// LoadFromPath loads the configuration from the specified path. Elements
// missing from the configuration file keep their defaults.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, path, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, path, nil
}

// Parse parses a YAML configuration on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	var present struct {
		Subnet *string `yaml:"subnet"`
	}
	if err := yaml.Unmarshal(data, &present); err != nil {
		return nil, err
	}
	cfg.subnetSet = present.Subnet != nil
	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills in elements left empty.
func (c *Config) applyDefaults() {
	if c.Probe.Method == "" {
		c.Probe.Method = probe.TCP.String()
	}
	if c.Resolver.Mode == "" {
		c.Resolver.Mode = ResolverDNS
	}
	if c.TestSubstrings == nil {
		c.TestSubstrings = []string{}
	}
	if c.Groups == nil {
		c.Groups = Groups{}
	}
}

// ApplyEnv overrides configuration values from the SUBDIG_* environment
// variables, as returned by lookup; usually, lookup is [os.LookupEnv].
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if subnet, ok := lookup(EnvSubnet); ok {
		c.Subnet = subnet
		c.subnetSet = true
	}
	if substrings, ok := lookup(EnvTestSubstrings); ok {
		c.TestSubstrings = SplitList(substrings)
	}
	if port, ok := lookup(EnvPort); ok {
		p, err := strconv.Atoi(strings.TrimSpace(port))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Probe.Port = p
	}
	if workers, ok := lookup(EnvWorkers); ok {
		w, err := strconv.Atoi(strings.TrimSpace(workers))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = w
	}
	if server, ok := lookup(EnvNameserver); ok {
		c.Resolver.Server = server
	}
	return nil
}

// SplitList splits a comma-separated list, dropping empty elements.
func SplitList(s string) []string {
	list := []string{}
	for _, element := range strings.Split(s, ",") {
		if element = strings.TrimSpace(element); element != "" {
			list = append(list, element)
		}
	}
	return list
}

// Validate checks the configuration, returning an error wrapping [ErrInvalid]
// for the first problem found.
func (c *Config) Validate() error {
	if err := ValidateSubnet(c.Subnet); err != nil {
		return err
	}
	if c.Probe.Port < 1 || c.Probe.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range 1-65535", ErrInvalid, c.Probe.Port)
	}
	if c.Probe.Timeout <= 0 {
		return fmt.Errorf("%w: probe timeout must be positive", ErrInvalid)
	}
	if _, err := probe.ParseMethod(c.Probe.Method); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, err.Error())
	}
	switch c.Resolver.Mode {
	case ResolverDNS, ResolverSystem:
	default:
		return fmt.Errorf("%w: unknown resolver mode %q", ErrInvalid, c.Resolver.Mode)
	}
	if c.Resolver.Timeout <= 0 {
		return fmt.Errorf("%w: resolver timeout must be positive", ErrInvalid)
	}
	if c.Workers < 1 || c.Workers > 254 {
		return fmt.Errorf("%w: workers %d out of range 1-254", ErrInvalid, c.Workers)
	}
	seen := map[string]struct{}{}
	for _, group := range c.Groups {
		if err := inventory.CheckGroupName(group.Name); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalid, err.Error())
		}
		if _, ok := seen[group.Name]; ok {
			return fmt.Errorf("%w: group %q configured twice", ErrInvalid, group.Name)
		}
		seen[group.Name] = struct{}{}
	}
	return nil
}

// ValidateSubnet checks that subnet consists of exactly three dotted decimal
// octets, such as "192.168.1".
func ValidateSubnet(subnet string) error {
	octets := strings.Split(subnet, ".")
	if len(octets) != 3 {
		return fmt.Errorf("%w: subnet %q must consist of three octets", ErrInvalid, subnet)
	}
	for _, octet := range octets {
		if octet == "" || len(octet) > 3 || strings.Trim(octet, "0123456789") != "" {
			return fmt.Errorf("%w: subnet %q has malformed octet %q", ErrInvalid, subnet, octet)
		}
		if value, _ := strconv.Atoi(octet); value > 255 {
			return fmt.Errorf("%w: subnet %q has octet %s out of range", ErrInvalid, subnet, octet)
		}
	}
	return nil
}

// Marshal renders the configuration as YAML, in the same format as
// configuration files.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
