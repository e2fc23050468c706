// Copyright (c) 2025 Oleksandr Kolodkin. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package config loads the scanner configuration from defaults, an
// optional YAML file and command-line flags, in that precedence order.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kolod/uss-detect/internal/prefs"
)

// Config holds everything one scan run needs.
type Config struct {
	// Port is the serial device node. Empty selects interactively.
	Port string `mapstructure:"port"`

	// ForceAll probes every baudrate/address combination instead of
	// stopping at the first responding device.
	ForceAll bool `mapstructure:"force_all"`

	// Addresses is the address specification, e.g. "0", "0-10" or
	// "0,2,5". Empty scans the whole 0-31 space.
	Addresses string `mapstructure:"id"`

	// Timeout bounds the wait for a single probe response.
	Timeout time.Duration `mapstructure:"timeout"`

	// PrefsFile is the preference store path.
	PrefsFile string `mapstructure:"prefs_file"`

	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error
	LogFile  string `mapstructure:"log_file"`  // empty or "-" for stdout
}

// Load merges defaults, the config file and command-line flags.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", "")
	v.SetDefault("force_all", false)
	v.SetDefault("id", "")
	v.SetDefault("timeout", 100*time.Millisecond)
	v.SetDefault("prefs_file", prefs.DefaultPath())
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	pflag.StringP("config", "c", "", "Configuration file path.")
	pflag.StringP("port", "p", v.GetString("port"), "Serial port device name (default: interactive selection).")
	pflag.Bool("force-all", v.GetBool("force_all"), "Test all baudrate/address combinations (for devices with incorrect baudrate).")
	pflag.String("id", v.GetString("id"), "Address(es) to scan: single (0), range (0-10), or comma-separated (0,2,3).")
	pflag.DurationP("timeout", "W", v.GetDuration("timeout"), "Response wait time per probe.")
	pflag.StringP("log_level", "v", v.GetString("log_level"), "Log verbosity level (debug, info, warn, error).")
	pflag.StringP("log_file", "L", v.GetString("log_file"), "Log file name ('-' for logging to STDOUT only).")
	pflag.Parse()

	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return nil, fmt.Errorf("failed to bind pflags: %w", err)
	}
	// The flag spells it with a dash, the config file with an underscore.
	if err := v.BindPFlag("force_all", pflag.Lookup("force-all")); err != nil {
		return nil, fmt.Errorf("failed to bind pflags: %w", err)
	}

	if configFile := v.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.config/uss-detect")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Timeout <= 0 {
		config.Timeout = 100 * time.Millisecond
	}

	return &config, nil
}
