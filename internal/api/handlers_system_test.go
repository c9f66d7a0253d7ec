// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/tomtom215/specula/internal/models"
)

func TestSystemInfo(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	createMonitor(t, api, models.MonitorCreateRequest{Name: "a", URL: "https://a.example.com"})
	createMonitor(t, api, models.MonitorCreateRequest{Name: "b", URL: "https://b.example.com", Enabled: boolPtr(false)})

	w := api.do(t, http.MethodGet, "/api/system/info", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var info models.SystemInfo
	decodeData(t, decodeEnvelope(t, w), &info)
	if info.Version != "test" {
		t.Errorf("Version = %q, want test", info.Version)
	}
	if info.TotalMonitors != 2 || info.EnabledMonitors != 1 {
		t.Errorf("monitors = %d total %d enabled, want 2, 1", info.TotalMonitors, info.EnabledMonitors)
	}
	if info.Scheduler.IsRunning {
		t.Error("scheduler reported running without Start")
	}
}

func TestSystemHealth(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/system/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var health models.SystemHealth
	decodeData(t, decodeEnvelope(t, w), &health)
	if health.Status != "ok" {
		t.Errorf("Status = %q, want ok", health.Status)
	}
	if health.Services["scheduler"] != "stopped" {
		t.Errorf("scheduler service = %q, want stopped", health.Services["scheduler"])
	}
}

func TestCacheInfoAndClear(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	api.cache.Set("some_key", "value", time.Minute)

	w := api.do(t, http.MethodGet, "/api/system/cache", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var info models.CacheInfo
	decodeData(t, decodeEnvelope(t, w), &info)
	if info.CacheSize < 1 {
		t.Errorf("CacheSize = %d, want >= 1", info.CacheSize)
	}

	w = api.do(t, http.MethodPost, "/api/system/cache/clear", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("clear status = %d", w.Code)
	}
	if api.cache.Size() != 0 {
		t.Errorf("cache size after clear = %d, want 0", api.cache.Size())
	}
}

func TestSchedulerStatusEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	w := api.do(t, http.MethodGet, "/api/system/scheduler", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var status models.SchedulerStatus
	decodeData(t, decodeEnvelope(t, w), &status)
	if status.IsRunning || status.ExecutionCount != 0 {
		t.Errorf("status = %+v, want idle scheduler", status)
	}
}

func TestStatsOverviewEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	createMonitor(t, api, models.MonitorCreateRequest{Name: "a", URL: "https://a.example.com"})

	w := api.do(t, http.MethodGet, "/api/stats/overview", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var overview models.StatsOverview
	decodeData(t, decodeEnvelope(t, w), &overview)
	if overview.Total != 1 || overview.Pending != 1 {
		t.Errorf("overview = %+v, want 1 total 1 pending", overview)
	}
}

func TestStatsAllEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	createMonitor(t, api, models.MonitorCreateRequest{Name: "a", URL: "https://a.example.com"})
	createMonitor(t, api, models.MonitorCreateRequest{Name: "b", URL: "https://b.example.com"})

	w := api.do(t, http.MethodGet, "/api/stats?period=24h", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var all []models.MonitorStats
	decodeData(t, decodeEnvelope(t, w), &all)
	if len(all) != 2 {
		t.Errorf("series = %d, want 2", len(all))
	}

	w = api.do(t, http.MethodGet, "/api/stats?period=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid period status = %d, want 400", w.Code)
	}
}

func TestSystemLogsPagination(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	for i := 0; i < 5; i++ {
		api.server.eventLog.Info("startup event", "", "")
	}
	api.server.eventLog.Error("probe failed", "m1", "site")

	// The writer is async; logged entries land shortly after.
	deadline := time.After(2 * time.Second)
	for {
		// Drop the cached page so each poll sees fresh data.
		api.cache.Clear()
		w := api.do(t, http.MethodGet, "/api/system/logs?limit=3", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var page systemLogsPage
		decodeData(t, decodeEnvelope(t, w), &page)
		if page.Pagination.Total >= 6 {
			if len(page.Logs) != 3 {
				t.Errorf("page = %d logs, want 3", len(page.Logs))
			}
			if page.Pagination.TotalPages != 2 {
				t.Errorf("TotalPages = %d, want 2", page.Pagination.TotalPages)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("log entries not persisted in time (total %d)", page.Pagination.Total)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestSystemLogsFilterValidation(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	w := api.do(t, http.MethodGet, "/api/system/logs?level=BOGUS", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid level status = %d, want 400", w.Code)
	}

	w = api.do(t, http.MethodGet, "/api/system/logs?page=0", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid page status = %d, want 400", w.Code)
	}
}
