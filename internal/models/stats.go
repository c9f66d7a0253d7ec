// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package models

import "time"

// Stats periods accepted by the stats endpoints.
const (
	Period24H = "24h"
	Period7D  = "7d"
)

// ValidPeriod reports whether p is a supported aggregation period.
func ValidPeriod(p string) bool {
	return p == Period24H || p == Period7D
}

// StatBucket is one aggregation bucket (an hour for 24h, a day for 7d).
type StatBucket struct {
	// Label is "HH:00" for hourly buckets and "M/D" for daily ones, in
	// local time.
	Label string `json:"label"`

	SuccessCount int `json:"success_count"`
	FailureCount int `json:"failure_count"`

	// SuccessRate is success/(success+failure)*100 rounded to 2 decimals,
	// 0 when the bucket has no samples.
	SuccessRate float64 `json:"success_rate"`

	// BucketStart is the inclusive start instant of the bucket.
	BucketStart time.Time `json:"bucket_start"`
}

// MonitorStats is the bucketed availability series for one monitor over one
// period, oldest bucket first.
type MonitorStats struct {
	MonitorID   string       `json:"monitor_id"`
	MonitorName string       `json:"monitor_name"`
	Period      string       `json:"period"`
	Data        []StatBucket `json:"data"`
}

// StatsOverview counts monitors by state for GET /api/stats/overview.
type StatsOverview struct {
	Total   int `json:"total"`
	Enabled int `json:"enabled"`
	Success int `json:"success"`
	Error   int `json:"error"`
	Pending int `json:"pending"`
}

// SchedulerStatus is the scheduler's externally visible state.
type SchedulerStatus struct {
	IsRunning         bool       `json:"isRunning"`
	ExecutionCount    int64      `json:"executionCount"`
	LastExecutionTime *time.Time `json:"lastExecutionTime,omitempty"`
}
