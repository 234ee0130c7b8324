/*
Package config provides the configuration of subdig: the subnet to sweep, how
to classify the hosts found, and how to resolve and probe them.

Configuration values are layered, with later layers overriding earlier ones:

 1. built-in defaults, see [DefaultConfig].
 2. a YAML configuration file, see [FindConfigPath] for where it is searched.
 3. SUBDIG_* environment variables, see [Config.ApplyEnv].
 4. command line flags, applied by the CLI itself.

A configuration file looks like this, with all elements optional:

	subnet: "10.0.0"
	test_substrings: [test, dev]
	groups:
	  group1: [dev, app]
	  group2: [db, srv]
	probe:
	  method: tcp
	  port: 22
	  timeout: 1s
	resolver:
	  mode: dns
	  server: 127.0.0.53
	  timeout: 2s
	workers: 16

The order of the groups in the configuration file is the order of the groups
in the inventory. Specifying "groups" replaces the default groups entirely.
*/
package config
