// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package stats

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/specula/internal/cache"
	"github.com/tomtom215/specula/internal/models"
	"github.com/tomtom215/specula/internal/store"
)

type statsEnv struct {
	engine   *Engine
	monitors *store.Monitors
	history  *store.History
	cache    *cache.Cache
}

func newTestEnv(t *testing.T) *statsEnv {
	t.Helper()

	db, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	monitors := store.NewMonitors(db)
	history := store.NewHistory(db)
	c := cache.New(time.Minute)

	return &statsEnv{
		engine:   NewEngine(monitors, history, c),
		monitors: monitors,
		history:  history,
		cache:    c,
	}
}

func (e *statsEnv) putMonitor(t *testing.T, id, name string, enabled bool, status models.MonitorStatus) {
	t.Helper()
	cfg := &models.MonitorConfig{
		ID: id, Name: name, URL: "https://example.com",
		IntervalMinutes: 5, Enabled: enabled, Status: status,
	}
	if status != "" {
		now := time.Now().UTC()
		cfg.LastCheckAt = &now
	}
	if err := e.monitors.Put(cfg); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
}

func (e *statsEnv) appendRecord(t *testing.T, monitorID string, ts time.Time, status models.MonitorStatus) {
	t.Helper()
	err := e.history.Append(&models.MonitorHistory{
		MonitorID: monitorID,
		Timestamp: ts.UTC(),
		Status:    status,
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
}

func TestForMonitorBucketShape(t *testing.T) {
	env := newTestEnv(t)
	env.putMonitor(t, "m1", "site", true, "")

	tests := []struct {
		period      string
		wantBuckets int
	}{
		{models.Period24H, 24},
		{models.Period7D, 7},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			stats, err := env.engine.ForMonitor("m1", tt.period)
			if err != nil {
				t.Fatalf("ForMonitor() error = %v", err)
			}
			if stats.MonitorName != "site" {
				t.Errorf("MonitorName = %q, want %q", stats.MonitorName, "site")
			}
			if len(stats.Data) != tt.wantBuckets {
				t.Fatalf("len(Data) = %d, want %d", len(stats.Data), tt.wantBuckets)
			}
			for i := 1; i < len(stats.Data); i++ {
				if !stats.Data[i].BucketStart.After(stats.Data[i-1].BucketStart) {
					t.Errorf("buckets not oldest-first at index %d", i)
				}
			}
			// Empty buckets report a zero rate, not 100.
			for i, b := range stats.Data {
				if b.SuccessRate != 0 {
					t.Errorf("empty bucket %d SuccessRate = %v, want 0", i, b.SuccessRate)
				}
			}
		})
	}
}

func TestForMonitorAggregates(t *testing.T) {
	env := newTestEnv(t)
	env.putMonitor(t, "m1", "site", true, "")

	now := time.Now()
	env.appendRecord(t, "m1", now.Add(-10*time.Minute), models.StatusSuccess)
	env.appendRecord(t, "m1", now.Add(-8*time.Minute), models.StatusSuccess)
	env.appendRecord(t, "m1", now.Add(-6*time.Minute), models.StatusError)
	// Outside the 24h window, must not be counted.
	env.appendRecord(t, "m1", now.Add(-25*time.Hour), models.StatusError)

	stats, err := env.engine.ForMonitor("m1", models.Period24H)
	if err != nil {
		t.Fatalf("ForMonitor() error = %v", err)
	}

	var success, failure int
	for _, b := range stats.Data {
		success += b.SuccessCount
		failure += b.FailureCount
	}
	if success != 2 || failure != 1 {
		t.Errorf("totals = %d success, %d failure, want 2, 1", success, failure)
	}
}

func TestSuccessRateRounding(t *testing.T) {
	tests := []struct {
		success, failure int
		want             float64
	}{
		{0, 0, 0},
		{1, 0, 100},
		{0, 1, 0},
		{1, 2, 33.33},
		{2, 1, 66.67},
		{1, 7, 12.5},
	}

	for _, tt := range tests {
		if got := successRate(tt.success, tt.failure); got != tt.want {
			t.Errorf("successRate(%d, %d) = %v, want %v", tt.success, tt.failure, got, tt.want)
		}
	}
}

func TestForMonitorUnknownID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.ForMonitor("missing", models.Period24H)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ForMonitor() error = %v, want ErrNotFound", err)
	}
}

func TestForMonitorInvalidPeriod(t *testing.T) {
	env := newTestEnv(t)
	env.putMonitor(t, "m1", "site", true, "")

	if _, err := env.engine.ForMonitor("m1", "30d"); err == nil {
		t.Error("ForMonitor() with invalid period succeeded, want error")
	}
}

func TestForMonitorCachesResult(t *testing.T) {
	env := newTestEnv(t)
	env.putMonitor(t, "m1", "site", true, "")

	first, err := env.engine.ForMonitor("m1", models.Period24H)
	if err != nil {
		t.Fatalf("ForMonitor() error = %v", err)
	}

	// New records are invisible until the cached result expires.
	env.appendRecord(t, "m1", time.Now(), models.StatusSuccess)

	second, err := env.engine.ForMonitor("m1", models.Period24H)
	if err != nil {
		t.Fatalf("ForMonitor() error = %v", err)
	}
	if first != second {
		t.Error("second call did not return the cached result")
	}
}

func TestForAll(t *testing.T) {
	env := newTestEnv(t)
	env.putMonitor(t, "a", "first", true, "")
	env.putMonitor(t, "b", "second", true, "")

	all, err := env.engine.ForAll(models.Period7D)
	if err != nil {
		t.Fatalf("ForAll() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
}

func TestOverview(t *testing.T) {
	env := newTestEnv(t)
	env.putMonitor(t, "a", "ok", true, models.StatusSuccess)
	env.putMonitor(t, "b", "down", true, models.StatusError)
	env.putMonitor(t, "c", "new", true, "")
	env.putMonitor(t, "d", "off", false, models.StatusSuccess)

	overview, err := env.engine.Overview()
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}

	if overview.Total != 4 {
		t.Errorf("Total = %d, want 4", overview.Total)
	}
	if overview.Enabled != 3 {
		t.Errorf("Enabled = %d, want 3", overview.Enabled)
	}
	if overview.Success != 2 {
		t.Errorf("Success = %d, want 2", overview.Success)
	}
	if overview.Error != 1 {
		t.Errorf("Error = %d, want 1", overview.Error)
	}
	if overview.Pending != 1 {
		t.Errorf("Pending = %d, want 1", overview.Pending)
	}
}

func TestMakeBucketsAlignment(t *testing.T) {
	// 2026-08-26 14:37 local.
	now := time.Date(2026, 8, 26, 14, 37, 12, 0, time.Local)

	hourly, cutoff := makeBuckets(models.Period24H, now)
	if got := hourly[23].Label; got != "14:00" {
		t.Errorf("newest hourly label = %q, want %q", got, "14:00")
	}
	if got := hourly[23].BucketStart; got.Minute() != 0 || got.Hour() != 14 {
		t.Errorf("newest hourly start = %v, want top of hour 14", got)
	}
	if want := hourly[0].BucketStart; !cutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", cutoff, want)
	}

	daily, _ := makeBuckets(models.Period7D, now)
	if got := daily[6].Label; got != "8/26" {
		t.Errorf("newest daily label = %q, want %q", got, "8/26")
	}
	if got := daily[0].Label; got != "8/20" {
		t.Errorf("oldest daily label = %q, want %q", got, "8/20")
	}
	for _, b := range daily {
		if b.BucketStart.Hour() != 0 || b.BucketStart.Minute() != 0 {
			t.Errorf("daily bucket %q not midnight-aligned: %v", b.Label, b.BucketStart)
		}
	}
}
