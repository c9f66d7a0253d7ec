// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package cache

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// TTLs for the named cache uses. Staleness up to these bounds is an accepted
// trade against KV read volume.
const (
	TTLMonitorConfigs = 2 * time.Minute
	TTLMonitorHistory = 5 * time.Minute
	TTLMonitorStats   = 5 * time.Minute
	TTLSystemLogs     = 3 * time.Minute
)

// PrefixMonitorConfigs is cleared whenever any MonitorConfig mutates.
const PrefixMonitorConfigs = "all_monitor_configs"

// KeyAllMonitorConfigs caches the full config list.
const KeyAllMonitorConfigs = "all_monitor_configs"

// KeyMonitorHistory caches one monitor's recent-history page.
func KeyMonitorHistory(monitorID string, limit int) string {
	return fmt.Sprintf("monitor_history_%s_%d", monitorID, limit)
}

// KeyMonitorStats caches one monitor's aggregated stats for a period.
func KeyMonitorStats(monitorID, period string) string {
	return fmt.Sprintf("monitor_stats_%s_%s", monitorID, period)
}

// KeySystemLogs caches one page of a filtered system log query. filterSig
// identifies the filter combination; use GenerateKey for non-trivial filters.
func KeySystemLogs(filterSig string, page int) string {
	return fmt.Sprintf("system_logs_%s_%d", filterSig, page)
}

// GenerateKey creates a cache key from a method name and its parameters.
// Parameters are JSON-hashed so arbitrary filter structs produce compact,
// stable keys.
func GenerateKey(method string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Fallback to simple string key
		return fmt.Sprintf("%s:%v", method, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}
