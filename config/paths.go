// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for an explicit configuration
	// file path.
	EnvConfigPath = "SUBDIG_CONFIG"
	// ConfigFileName is the name of a configuration file in the working
	// directory.
	ConfigFileName = "subdig.yaml"
	// ConfigDirName is the name of the configuration directory below the
	// user's and the system's configuration directories.
	ConfigDirName = "subdig"
)

// FindConfigPath searches for a configuration file in this order, returning the
// first one that exists, or "" if there is none:
//
//  1. $SUBDIG_CONFIG
//  2. ./subdig.yaml
//  3. $XDG_CONFIG_HOME/subdig/config.yaml
//  4. ~/.config/subdig/config.yaml
//  5. /etc/subdig/config.yaml
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" && fileExists(path) {
		return path
	}
	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		path := filepath.Join(xdgHome, ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}
	if home := os.Getenv("HOME"); home != "" {
		path := filepath.Join(home, ".config", ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}
	if path := filepath.Join(systemConfigDir, ConfigDirName, "config.yaml"); fileExists(path) {
		return path
	}
	return ""
}

// systemConfigDir is where to look for system-wide configuration; tests point
// it elsewhere.
var systemConfigDir = "/etc"

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
