// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package models defines the persisted entities, API request/response
// shapes, and the response envelope shared across Specula.
package models

import (
	"net/url"
	"strings"
	"time"
)

// MonitorStatus is the probe outcome state of a monitor.
type MonitorStatus string

const (
	// StatusSuccess means the last probe met the success criteria.
	StatusSuccess MonitorStatus = "success"
	// StatusError means the last probe failed.
	StatusError MonitorStatus = "error"
	// StatusPending means no probe has produced a terminal outcome yet.
	StatusPending MonitorStatus = "pending"
)

// AllowedMethods are the HTTP methods a monitor may be configured with.
var AllowedMethods = []string{"GET", "POST", "HEAD"}

// MonitorConfig is the unit of monitoring: one HTTP endpoint probed on a
// fixed interval.
//
// Persisted under the monitors:<id> key. Status fields (last_check_at,
// status, last_error) are written by the scheduler; everything else is
// written by the API.
type MonitorConfig struct {
	// ID is a random UUID assigned at creation.
	ID string `json:"id"`

	// Name is the operator-facing display name.
	Name string `json:"name"`

	// URL is the probe target. Must parse as http or https.
	URL string `json:"url"`

	// Method is GET, POST, or HEAD. Empty means GET.
	Method string `json:"method"`

	// Cookie is an optional raw Cookie header value sent with each probe.
	Cookie string `json:"cookie,omitempty"`

	// Headers are optional extra request headers; they override the
	// built-in browser-like defaults on key collision.
	Headers map[string]string `json:"headers,omitempty"`

	// IntervalMinutes is the probe cadence. Bounded by configuration
	// (MIN_MONITOR_INTERVAL..MAX_MONITOR_INTERVAL).
	IntervalMinutes int `json:"interval_minutes"`

	// Enabled gates scheduling. Disabled monitors keep their history.
	Enabled bool `json:"enabled"`

	// LastCheckAt is the start time of the most recent probe, absent until
	// the first probe runs.
	LastCheckAt *time.Time `json:"last_check_at,omitempty"`

	// Status is pending until the first terminal outcome, then success or
	// error.
	Status MonitorStatus `json:"status,omitempty"`

	// LastError holds the most recent probe error, empty on success.
	LastError string `json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveMethod returns the configured method normalized to upper case,
// defaulting to GET.
func (m *MonitorConfig) EffectiveMethod() string {
	if m.Method == "" {
		return "GET"
	}
	return strings.ToUpper(m.Method)
}

// EffectiveStatus returns pending when no probe has completed yet.
func (m *MonitorConfig) EffectiveStatus() MonitorStatus {
	if m.LastCheckAt == nil || m.Status == "" {
		return StatusPending
	}
	return m.Status
}

// IsDue reports whether the monitor should be probed at now: never probed,
// or at least one interval has elapsed since the last probe.
func (m *MonitorConfig) IsDue(now time.Time) bool {
	if m.LastCheckAt == nil {
		return true
	}
	return now.Sub(*m.LastCheckAt) >= time.Duration(m.IntervalMinutes)*time.Minute
}

// ValidateURL reports whether raw is an absolute http or https URL with a
// host.
func ValidateURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ValidMethod reports whether method (case-insensitive) is one of the
// allowed probe methods.
func ValidMethod(method string) bool {
	upper := strings.ToUpper(method)
	for _, m := range AllowedMethods {
		if m == upper {
			return true
		}
	}
	return false
}

// MonitorHistory is one terminal probe outcome. Records are append-only;
// retention and cascade deletes remove them wholesale.
type MonitorHistory struct {
	ID        string    `json:"id"`
	MonitorID string    `json:"monitor_id"`
	Timestamp time.Time `json:"timestamp"`

	// Status is success or error; never pending.
	Status MonitorStatus `json:"status"`

	// ResponseTimeMS is present whenever a response or a timeout was
	// observed (absent for e.g. an invalid URL).
	ResponseTimeMS *int64 `json:"response_time_ms,omitempty"`

	// HTTPStatus is the final HTTP status code when a response was
	// received.
	HTTPStatus *int `json:"http_status,omitempty"`

	// Error is the failure reason, absent on success.
	Error string `json:"error,omitempty"`
}

// MonitorStatusSummary is the compact per-monitor row returned by
// GET /api/monitors/status.
type MonitorStatusSummary struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Enabled   bool          `json:"enabled"`
	Status    MonitorStatus `json:"status"`
	LastCheck *time.Time    `json:"last_check,omitempty"`
	LastError string        `json:"last_error,omitempty"`
}

// Summary projects the config into its status row.
func (m *MonitorConfig) Summary() MonitorStatusSummary {
	return MonitorStatusSummary{
		ID:        m.ID,
		Name:      m.Name,
		Enabled:   m.Enabled,
		Status:    m.EffectiveStatus(),
		LastCheck: m.LastCheckAt,
		LastError: m.LastError,
	}
}
