// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package metrics provides Prometheus instrumentation for probes, the
// scheduler, the cache, auth, maintenance, and the API surface. Metrics are
// exported at /metrics via promhttp.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Probe Metrics
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "probe_results_total",
			Help: "Total number of completed probes by terminal status",
		},
		[]string{"status"}, // "success", "error"
	)

	ProbeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "probe_duration_seconds",
			Help:    "Probe round-trip duration in seconds, timeouts included",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"status"},
	)

	ProbeRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "probe_retries_total",
			Help: "Total number of probe retry attempts",
		},
	)

	// Scheduler Metrics
	SchedulerTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_ticks_total",
			Help: "Total number of scheduler ticks, including empty ones",
		},
	)

	SchedulerTicksSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_ticks_skipped_total",
			Help: "Total number of ticks skipped because the previous tick was still running",
		},
	)

	SchedulerDueMonitors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_due_monitors",
			Help: "Number of monitors due in the most recent tick",
		},
	)

	SchedulerTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scheduler_tick_duration_seconds",
			Help:    "Duration of scheduler ticks in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry, invalidation, clear)",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
	)

	// Auth Metrics
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"}, // "success", "failure", "locked_out"
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Number of persisted sessions, expired included until swept",
		},
	)

	// Maintenance Metrics
	MaintenanceSweeps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintenance_sweeps_total",
			Help: "Total number of maintenance sweeps by target and result",
		},
		[]string{"target", "result"}, // target: "sessions", "history", "system_logs", "login_attempts"
	)

	MaintenanceDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintenance_deleted_total",
			Help: "Total number of records removed by maintenance sweeps",
		},
		[]string{"target"},
	)

	// System Log Metrics
	SystemLogWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "system_log_writes_total",
			Help: "Total number of system log entries written",
		},
	)

	SystemLogDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "system_log_drops_total",
			Help: "Total number of system log entries dropped on a full buffer",
		},
	)
)

// RecordProbe records one terminal probe outcome.
func RecordProbe(status string, duration time.Duration) {
	ProbesTotal.WithLabelValues(status).Inc()
	ProbeDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordTick records one scheduler tick.
func RecordTick(due int, duration time.Duration) {
	SchedulerTicks.Inc()
	SchedulerDueMonitors.Set(float64(due))
	SchedulerTickDuration.Observe(duration.Seconds())
}

// RecordAPIRequest records one served API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordMaintenanceSweep records one sweep outcome.
func RecordMaintenanceSweep(target string, deleted int, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	MaintenanceSweeps.WithLabelValues(target, result).Inc()
	if deleted > 0 {
		MaintenanceDeleted.WithLabelValues(target).Add(float64(deleted))
	}
}
