// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/specula/config.yaml",
	"/etc/specula/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "SPECULA_CONFIG"

// Load builds the runtime configuration from layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
//
// Precedence is ENV > file > defaults. Nested keys map through koanf struct
// tags; flat environment variable names map through envTransformFunc.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc maps flat environment variable names to nested koanf
// config paths.
//
// Examples:
//   - ADMIN_PASSWORD -> auth.admin_password
//   - MAX_CONCURRENT_MONITORS -> scheduler.max_concurrent
//   - REQUEST_TIMEOUT -> probe.request_timeout_ms
//   - PORT -> server.port
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"host": "server.host",
		"port": "server.port",

		// Storage
		"data_dir":       "database.path",
		"db_sync_writes": "database.sync_writes",

		// Authentication and sessions
		"admin_password":        "auth.admin_password",
		"session_expire_hours":  "auth.session_expire_hours",
		"login_lockout_minutes": "auth.lockout_minutes",
		"max_login_attempts":    "auth.max_login_attempts",

		// Monitor intervals and retention
		"default_monitor_interval": "monitor.default_interval_minutes",
		"min_monitor_interval":     "monitor.min_interval_minutes",
		"max_monitor_interval":     "monitor.max_interval_minutes",
		"history_retention_days":   "monitor.history_retention_days",

		// Probe execution
		"request_timeout":        "probe.request_timeout_ms",
		"probe_max_retries":      "probe.max_retries",
		"probe_retry_backoff_ms": "probe.retry_backoff_ms",

		// Scheduler
		"max_concurrent_monitors":  "scheduler.max_concurrent",
		"scheduler_tick_seconds":   "scheduler.tick_seconds",
		"scheduler_batch_pause_ms": "scheduler.batch_pause_ms",

		// Cache and maintenance
		"cache_cleanup_interval": "cache.cleanup_interval",
		"maintenance_interval":   "maintenance.interval",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them.
	// This prevents unrelated environment variables from polluting config.
	return ""
}
