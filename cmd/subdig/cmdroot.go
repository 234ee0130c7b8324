// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/siemens/subdig/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/thediveo/lxkns/log"
)

// Output formats.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	configPath      *string
	list            *bool
	host            *string
	subnet          *string
	port            *int
	probeTimeout    *time.Duration
	probeMethod     *string
	unprivileged    *bool
	resolverMode    *string
	nameserver      *string
	resolveTimeout  *time.Duration
	workerNumber    *int
	containerName   *string
	netnsPath       *string
	format          *string
	progress        *bool
	printConfig     *bool
	spinnerInterval *time.Duration
	debug           *bool
)

func newRootCmd() (rootCmd *cobra.Command) {
	rootCmd = &cobra.Command{
		Use:   "subdig [flags]",
		Short: "subdig sweeps a /24 subnet for reverse-resolvable, reachable hosts and emits an Ansible inventory",
		Long: `subdig sweeps the 254 host addresses of a /24 subnet, keeps the addresses
having a reverse DNS entry and answering a reachability probe, and then prints
an Ansible dynamic inventory of these hosts, grouped into "test" and "prod" as
well as additional configurable groups.`,
		Version: "0.9",
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if *list && *host != "" {
				return fmt.Errorf("--list and --host are mutually exclusive")
			}
			if *format != formatJSON && *format != formatYAML {
				return fmt.Errorf("--format must be either %s or %s", formatJSON, formatYAML)
			}
			if *host != "" && *format != formatJSON {
				return fmt.Errorf("--host only supports the %s format", formatJSON)
			}
			if *containerName != "" && *netnsPath != "" {
				return fmt.Errorf("--container and --netns are mutually exclusive")
			}
			if *spinnerInterval < 10*time.Millisecond {
				return fmt.Errorf("--spinner must be at least 10ms")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			logrus.SetOutput(cmd.ErrOrStderr())
			if *debug {
				log.SetLevel(log.DebugLevel)
				log.Debugf("debug logging enabled")
			} else {
				log.SetLevel(log.InfoLevel)
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			cfg, err := configure(cmd)
			if err != nil {
				return err
			}
			netns, err := networkNamespace(ctx, cmd, cfg)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if *printConfig {
				data, err := cfg.Marshal()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if cfg.Resolver.Mode == config.ResolverSystem && netns != "" {
				return fmt.Errorf("the system resolver cannot work in another network namespace, use --resolver %s",
					config.ResolverDNS)
			}
			return SweepAndReport(ctx, cfg, netns, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	rootCmd.SilenceUsage = true
	// Sets up the flags.
	flags := rootCmd.PersistentFlags()
	debug = flags.Bool(
		"debug", false, "enable debugging output")
	configPath = flags.String(
		"config", "", "configuration file (default: searched, see documentation)")
	list = flags.Bool(
		"list", false, "print the complete inventory (default)")
	host = flags.String(
		"host", "", "print only the variables of the specified host")
	subnet = flags.String(
		"subnet", config.DefaultSubnet, "first three octets of the /24 subnet to sweep")
	port = flags.Int(
		"port", config.DefaultPort, "TCP port to probe")
	probeTimeout = flags.Duration(
		"timeout", config.DefaultProbeTimeout, "reachability probe timeout")
	probeMethod = flags.String(
		"method", "tcp", "reachability probe method: tcp or icmp")
	unprivileged = flags.Bool(
		"unprivileged", false, "use unprivileged ICMP datagram sockets")
	resolverMode = flags.String(
		"resolver", config.ResolverDNS, "reverse resolver: dns or system")
	nameserver = flags.String(
		"nameserver", "", "DNS server address (default: first nameserver in /etc/resolv.conf)")
	resolveTimeout = flags.Duration(
		"resolve-timeout", config.DefaultResolverTimeout, "reverse resolution timeout")
	workerNumber = flags.Int(
		"workers", config.DefaultWorkers, "number of concurrent resolution and probe workers")
	containerName = flags.String(
		"container", "", "sweep from inside the network namespace of this Docker container")
	netnsPath = flags.String(
		"netns", "", "sweep from inside the network namespace at this path")
	format = flags.String(
		"format", formatJSON, "inventory output format: json or yaml")
	progress = flags.Bool(
		"progress", false, "show the sweep progress on stderr")
	printConfig = flags.Bool(
		"print-config", false, "print the effective configuration as YAML instead of sweeping")
	spinnerInterval = flags.Duration(
		"spinner", 100*time.Millisecond, "progress spinner interval")
	return
}

// configure returns the effective configuration, layering the configuration
// file, the environment, and finally the explicitly set CLI flags on top of
// the built-in defaults.
func configure(cmd *cobra.Command) (*config.Config, error) {
	cfg, path, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		log.Debugf("using configuration file %s", path)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("subnet") {
		cfg.Subnet = *subnet
	}
	if flags.Changed("port") {
		cfg.Probe.Port = *port
	}
	if flags.Changed("timeout") {
		cfg.Probe.Timeout = config.Duration(*probeTimeout)
	}
	if flags.Changed("method") {
		cfg.Probe.Method = *probeMethod
	}
	if flags.Changed("unprivileged") {
		cfg.Probe.Unprivileged = *unprivileged
	}
	if flags.Changed("resolver") {
		cfg.Resolver.Mode = *resolverMode
	}
	if flags.Changed("nameserver") {
		cfg.Resolver.Server = *nameserver
	}
	if flags.Changed("resolve-timeout") {
		cfg.Resolver.Timeout = config.Duration(*resolveTimeout)
	}
	if flags.Changed("workers") {
		cfg.Workers = *workerNumber
	}
	return cfg, nil
}

// networkNamespace returns the path of the network namespace to sweep from, or
// "" for the current network namespace. When sweeping from a container, the
// subnet defaults to the container's first network, unless the subnet has
// been set explicitly on the command line, in the environment, or in the
// configuration file.
func networkNamespace(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (string, error) {
	if *netnsPath != "" {
		return *netnsPath, nil
	}
	if *containerName == "" {
		return "", nil
	}
	netns, prefixes, err := containerNetwork(ctx, *containerName)
	if err != nil {
		return "", fmt.Errorf("cannot discover networks of container %s: %w", *containerName, err)
	}
	if !cmd.Flags().Changed("subnet") && !cfg.SubnetConfigured() {
		if len(prefixes) == 0 {
			return "", fmt.Errorf("container %s has no IPv4 network attached", *containerName)
		}
		cfg.Subnet = prefixes[0]
		log.Infof("sweeping subnet %s.0/24 of container %s", cfg.Subnet, *containerName)
	}
	return netns, nil
}
