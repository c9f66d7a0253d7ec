// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package stats aggregates probe history into bucketed availability series.
//
// Buckets are aligned to local wall-clock boundaries: 24 hourly buckets
// ending at the current hour, or 7 daily buckets ending today. Aggregation
// scans history newest-first and stops at the period cutoff.
package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/specula/internal/cache"
	"github.com/tomtom215/specula/internal/models"
	"github.com/tomtom215/specula/internal/store"
)

// Engine computes stats over persisted history, with per-(monitor, period)
// result caching.
type Engine struct {
	monitors *store.Monitors
	history  *store.History
	cache    *cache.Cache
}

// NewEngine creates a stats engine. cache may be nil to disable caching.
func NewEngine(monitors *store.Monitors, history *store.History, c *cache.Cache) *Engine {
	return &Engine{monitors: monitors, history: history, cache: c}
}

// ForMonitor returns the bucketed series for one monitor and period.
// Unknown monitor IDs return store.ErrNotFound; invalid periods error.
func (e *Engine) ForMonitor(monitorID, period string) (*models.MonitorStats, error) {
	if !models.ValidPeriod(period) {
		return nil, fmt.Errorf("invalid period: %s", period)
	}

	cacheKey := cache.KeyMonitorStats(monitorID, period)
	if e.cache != nil {
		if cached, ok := e.cache.Get(cacheKey); ok {
			if stats, ok := cached.(*models.MonitorStats); ok {
				return stats, nil
			}
		}
	}

	monitor, err := e.monitors.Get(monitorID)
	if err != nil {
		return nil, err
	}

	buckets, cutoff := makeBuckets(period, time.Now())

	err = e.history.ScanSince(monitorID, cutoff, func(rec *models.MonitorHistory) error {
		idx := bucketIndex(buckets, rec.Timestamp)
		if idx < 0 {
			return nil
		}
		switch rec.Status {
		case models.StatusSuccess:
			buckets[idx].SuccessCount++
		case models.StatusError:
			buckets[idx].FailureCount++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate history for %s: %w", monitorID, err)
	}

	for i := range buckets {
		buckets[i].SuccessRate = successRate(buckets[i].SuccessCount, buckets[i].FailureCount)
	}

	stats := &models.MonitorStats{
		MonitorID:   monitor.ID,
		MonitorName: monitor.Name,
		Period:      period,
		Data:        buckets,
	}

	if e.cache != nil {
		e.cache.Set(cacheKey, stats, cache.TTLMonitorStats)
	}
	return stats, nil
}

// ForAll returns the series of every monitor for one period, in the monitor
// store's listing order.
func (e *Engine) ForAll(period string) ([]*models.MonitorStats, error) {
	if !models.ValidPeriod(period) {
		return nil, fmt.Errorf("invalid period: %s", period)
	}

	configs, err := e.monitors.List()
	if err != nil {
		return nil, err
	}

	all := make([]*models.MonitorStats, 0, len(configs))
	for _, cfg := range configs {
		stats, err := e.ForMonitor(cfg.ID, period)
		if err != nil {
			return nil, err
		}
		all = append(all, stats)
	}
	return all, nil
}

// Overview counts monitors by state.
func (e *Engine) Overview() (*models.StatsOverview, error) {
	configs, err := e.monitors.List()
	if err != nil {
		return nil, err
	}

	overview := &models.StatsOverview{Total: len(configs)}
	for _, cfg := range configs {
		if cfg.Enabled {
			overview.Enabled++
		}
		switch cfg.EffectiveStatus() {
		case models.StatusSuccess:
			overview.Success++
		case models.StatusError:
			overview.Error++
		default:
			overview.Pending++
		}
	}
	return overview, nil
}

// makeBuckets builds the empty bucket series for period ending at now and
// returns it with the inclusive cutoff instant of the oldest bucket.
func makeBuckets(period string, now time.Time) ([]models.StatBucket, time.Time) {
	local := now.Local()

	if period == models.Period24H {
		// 24 hourly buckets, oldest first, the last one covering the
		// current hour.
		end := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, time.Local)
		buckets := make([]models.StatBucket, 24)
		for i := range buckets {
			start := end.Add(time.Duration(i-23) * time.Hour)
			buckets[i] = models.StatBucket{
				Label:       fmt.Sprintf("%02d:00", start.Hour()),
				BucketStart: start,
			}
		}
		return buckets, buckets[0].BucketStart
	}

	// 7 daily buckets ending today, aligned to local midnight.
	end := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
	buckets := make([]models.StatBucket, 7)
	for i := range buckets {
		start := end.AddDate(0, 0, i-6)
		buckets[i] = models.StatBucket{
			Label:       fmt.Sprintf("%d/%d", int(start.Month()), start.Day()),
			BucketStart: start,
		}
	}
	return buckets, buckets[0].BucketStart
}

// bucketIndex returns the index of the bucket containing ts, or -1 when ts
// precedes the series. Buckets are oldest-first and contiguous, so the match
// is the last bucket whose start is not after ts.
func bucketIndex(buckets []models.StatBucket, ts time.Time) int {
	local := ts.Local()
	for i := len(buckets) - 1; i >= 0; i-- {
		if !local.Before(buckets[i].BucketStart) {
			return i
		}
	}
	return -1
}

// successRate returns success/(success+failure) as a percentage rounded to
// two decimals, 0 with no samples.
func successRate(success, failure int) float64 {
	total := success + failure
	if total == 0 {
		return 0
	}
	return math.Round(float64(success)/float64(total)*10000) / 100
}
