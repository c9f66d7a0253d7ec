// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package config loads and validates Specula's runtime configuration from
// defaults, an optional YAML file, and environment variables, in that
// precedence order (env wins).
package config

import (
	"fmt"
	"time"
)

// DefaultAdminPassword is the out-of-the-box credential. Deployments are
// expected to override it; startup warns when they do not.
const DefaultAdminPassword = "admin123"

// Config is the full runtime configuration tree.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Auth        AuthConfig        `koanf:"auth"`
	Monitor     MonitorConfig     `koanf:"monitor"`
	Probe       ProbeConfig       `koanf:"probe"`
	Scheduler   SchedulerConfig   `koanf:"scheduler"`
	Cache       CacheConfig       `koanf:"cache"`
	Maintenance MaintenanceConfig `koanf:"maintenance"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the host:port bind address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig controls the embedded badger store.
type DatabaseConfig struct {
	// Path is the badger directory. Created if missing.
	Path string `koanf:"path"`

	// SyncWrites trades write throughput for durability on crash.
	SyncWrites bool `koanf:"sync_writes"`

	// InMemory runs badger without disk persistence. Tests only.
	InMemory bool `koanf:"in_memory"`
}

// AuthConfig controls the admin credential, sessions, and login lockout.
type AuthConfig struct {
	AdminPassword      string `koanf:"admin_password"`
	SessionExpireHours int    `koanf:"session_expire_hours"`
	LockoutMinutes     int    `koanf:"lockout_minutes"`
	MaxLoginAttempts   int    `koanf:"max_login_attempts"`
}

// SessionTTL returns the session lifetime as a duration.
func (c *AuthConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionExpireHours) * time.Hour
}

// LockoutWindow returns the trailing window in which login failures count
// toward the lockout threshold.
func (c *AuthConfig) LockoutWindow() time.Duration {
	return time.Duration(c.LockoutMinutes) * time.Minute
}

// MonitorConfig bounds monitor intervals and history retention.
type MonitorConfig struct {
	DefaultIntervalMinutes int `koanf:"default_interval_minutes"`
	MinIntervalMinutes     int `koanf:"min_interval_minutes"`
	MaxIntervalMinutes     int `koanf:"max_interval_minutes"`
	HistoryRetentionDays   int `koanf:"history_retention_days"`
}

// HistoryRetention returns the retention horizon as a duration.
func (c *MonitorConfig) HistoryRetention() time.Duration {
	return time.Duration(c.HistoryRetentionDays) * 24 * time.Hour
}

// ProbeConfig controls the outbound probe request behavior.
type ProbeConfig struct {
	// RequestTimeoutMS is the hard per-probe deadline in milliseconds,
	// spanning retries.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// MaxRetries is the number of retries after the first attempt for
	// retryable network errors.
	MaxRetries int `koanf:"max_retries"`

	// RetryBackoffMS is the linear backoff unit: attempt n waits
	// n*RetryBackoffMS before retrying.
	RetryBackoffMS int `koanf:"retry_backoff_ms"`
}

// Timeout returns the per-probe deadline as a duration.
func (c *ProbeConfig) Timeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// RetryBackoff returns the linear backoff unit as a duration.
func (c *ProbeConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMS) * time.Millisecond
}

// SchedulerConfig controls the probe scheduler loop.
type SchedulerConfig struct {
	TickSeconds   int `koanf:"tick_seconds"`
	MaxConcurrent int `koanf:"max_concurrent"`
	BatchPauseMS  int `koanf:"batch_pause_ms"`
}

// Tick returns the scheduler period as a duration.
func (c *SchedulerConfig) Tick() time.Duration {
	return time.Duration(c.TickSeconds) * time.Second
}

// BatchPause returns the inter-batch pause as a duration.
func (c *SchedulerConfig) BatchPause() time.Duration {
	return time.Duration(c.BatchPauseMS) * time.Millisecond
}

// CacheConfig controls the in-process TTL cache.
type CacheConfig struct {
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// MaintenanceConfig controls the periodic retention sweeps.
type MaintenanceConfig struct {
	Interval time.Duration `koanf:"interval"`
}

// LoggingConfig controls process logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults; file and environment layers
// override them.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:       "./data",
			SyncWrites: false,
			InMemory:   false,
		},
		Auth: AuthConfig{
			AdminPassword:      DefaultAdminPassword,
			SessionExpireHours: 24,
			LockoutMinutes:     15,
			MaxLoginAttempts:   5,
		},
		Monitor: MonitorConfig{
			DefaultIntervalMinutes: 1,
			MinIntervalMinutes:     1,
			MaxIntervalMinutes:     60,
			HistoryRetentionDays:   30,
		},
		Probe: ProbeConfig{
			RequestTimeoutMS: 30000,
			MaxRetries:       2,
			RetryBackoffMS:   1000,
		},
		Scheduler: SchedulerConfig{
			TickSeconds:   60,
			MaxConcurrent: 10,
			BatchPauseMS:  1000,
		},
		Cache: CacheConfig{
			CleanupInterval: 10 * time.Minute,
		},
		Maintenance: MaintenanceConfig{
			Interval: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range 1-65535", c.Server.Port)
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		return fmt.Errorf("database.path must be set")
	}
	if c.Auth.AdminPassword == "" {
		return fmt.Errorf("auth.admin_password must not be empty")
	}
	if c.Auth.SessionExpireHours < 1 {
		return fmt.Errorf("auth.session_expire_hours must be >= 1, got %d", c.Auth.SessionExpireHours)
	}
	if c.Auth.LockoutMinutes < 1 {
		return fmt.Errorf("auth.lockout_minutes must be >= 1, got %d", c.Auth.LockoutMinutes)
	}
	if c.Auth.MaxLoginAttempts < 1 {
		return fmt.Errorf("auth.max_login_attempts must be >= 1, got %d", c.Auth.MaxLoginAttempts)
	}
	if c.Monitor.MinIntervalMinutes < 1 {
		return fmt.Errorf("monitor.min_interval_minutes must be >= 1, got %d", c.Monitor.MinIntervalMinutes)
	}
	if c.Monitor.MaxIntervalMinutes < c.Monitor.MinIntervalMinutes {
		return fmt.Errorf("monitor.max_interval_minutes %d below min %d",
			c.Monitor.MaxIntervalMinutes, c.Monitor.MinIntervalMinutes)
	}
	if c.Monitor.DefaultIntervalMinutes < c.Monitor.MinIntervalMinutes ||
		c.Monitor.DefaultIntervalMinutes > c.Monitor.MaxIntervalMinutes {
		return fmt.Errorf("monitor.default_interval_minutes %d outside [%d, %d]",
			c.Monitor.DefaultIntervalMinutes, c.Monitor.MinIntervalMinutes, c.Monitor.MaxIntervalMinutes)
	}
	if c.Monitor.HistoryRetentionDays < 1 {
		return fmt.Errorf("monitor.history_retention_days must be >= 1, got %d", c.Monitor.HistoryRetentionDays)
	}
	if c.Probe.RequestTimeoutMS < 1 {
		return fmt.Errorf("probe.request_timeout_ms must be >= 1, got %d", c.Probe.RequestTimeoutMS)
	}
	if c.Probe.MaxRetries < 0 {
		return fmt.Errorf("probe.max_retries must be >= 0, got %d", c.Probe.MaxRetries)
	}
	if c.Scheduler.TickSeconds < 1 {
		return fmt.Errorf("scheduler.tick_seconds must be >= 1, got %d", c.Scheduler.TickSeconds)
	}
	if c.Scheduler.MaxConcurrent < 1 {
		return fmt.Errorf("scheduler.max_concurrent must be >= 1, got %d", c.Scheduler.MaxConcurrent)
	}
	if c.Cache.CleanupInterval < time.Second {
		return fmt.Errorf("cache.cleanup_interval must be >= 1s, got %s", c.Cache.CleanupInterval)
	}
	if c.Maintenance.Interval < time.Minute {
		return fmt.Errorf("maintenance.interval must be >= 1m, got %s", c.Maintenance.Interval)
	}
	return nil
}

// UsingDefaultPassword reports whether the admin credential was left at the
// shipped default. Startup logs a warning when it is.
func (c *Config) UsingDefaultPassword() bool {
	return c.Auth.AdminPassword == DefaultAdminPassword
}
