// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/tomtom215/specula/internal/cache"
	"github.com/tomtom215/specula/internal/models"
)

func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func createMonitor(t *testing.T, api *testAPI, req models.MonitorCreateRequest) models.MonitorConfig {
	t.Helper()

	w := api.do(t, http.MethodPost, "/api/monitors", req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}

	var monitor models.MonitorConfig
	decodeData(t, decodeEnvelope(t, w), &monitor)
	return monitor
}

func TestMonitorCreateDefaults(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	monitor := createMonitor(t, api, models.MonitorCreateRequest{
		Name: "example",
		URL:  "https://example.com",
	})

	if monitor.ID == "" {
		t.Error("ID not assigned")
	}
	if monitor.IntervalMinutes != 5 {
		t.Errorf("IntervalMinutes = %d, want configured default 5", monitor.IntervalMinutes)
	}
	if !monitor.Enabled {
		t.Error("Enabled = false, want default true")
	}
	if monitor.EffectiveStatus() != models.StatusPending {
		t.Errorf("status = %q, want pending before first probe", monitor.EffectiveStatus())
	}
	if monitor.CreatedAt.IsZero() || monitor.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestMonitorCreateValidation(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	tests := []struct {
		name string
		req  models.MonitorCreateRequest
	}{
		{"missing name", models.MonitorCreateRequest{URL: "https://example.com"}},
		{"missing url", models.MonitorCreateRequest{Name: "x"}},
		{"bad scheme", models.MonitorCreateRequest{Name: "x", URL: "ftp://example.com"}},
		{"bad method", models.MonitorCreateRequest{Name: "x", URL: "https://example.com", Method: "DELETE"}},
		{"interval too low", models.MonitorCreateRequest{Name: "x", URL: "https://example.com", Interval: intPtr(0)}},
		{"interval too high", models.MonitorCreateRequest{Name: "x", URL: "https://example.com", Interval: intPtr(120)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/api/monitors", tt.req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
			}
			resp := decodeEnvelope(t, w)
			if resp.Code != models.CodeValidation {
				t.Errorf("code = %d, want %d", resp.Code, models.CodeValidation)
			}
		})
	}
}

func TestMonitorGetAndList(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	created := createMonitor(t, api, models.MonitorCreateRequest{Name: "one", URL: "https://example.com"})

	w := api.do(t, http.MethodGet, "/api/monitors/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got models.MonitorConfig
	decodeData(t, decodeEnvelope(t, w), &got)
	if got.ID != created.ID || got.Name != "one" {
		t.Errorf("got = %+v, want created monitor", got)
	}

	w = api.do(t, http.MethodGet, "/api/monitors", nil)
	var list []models.MonitorConfig
	decodeData(t, decodeEnvelope(t, w), &list)
	if len(list) != 1 {
		t.Errorf("list length = %d, want 1", len(list))
	}
}

func TestMonitorNotFound(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	for _, tt := range []struct{ method, path string }{
		{http.MethodGet, "/api/monitors/nope"},
		{http.MethodPut, "/api/monitors/nope"},
		{http.MethodDelete, "/api/monitors/nope"},
		{http.MethodGet, "/api/monitors/nope/history"},
		{http.MethodGet, "/api/monitors/nope/stats"},
	} {
		var body interface{}
		if tt.method == http.MethodPut {
			body = models.MonitorUpdateRequest{}
		}
		w := api.do(t, tt.method, tt.path, body)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want 404", tt.method, tt.path, w.Code)
			continue
		}
		resp := decodeEnvelope(t, w)
		if resp.Code != models.CodeNotFound {
			t.Errorf("%s %s code = %d, want %d", tt.method, tt.path, resp.Code, models.CodeNotFound)
		}
		if resp.Error != "监控配置不存在" {
			t.Errorf("%s %s error = %q", tt.method, tt.path, resp.Error)
		}
	}
}

func TestMonitorPartialUpdate(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	created := createMonitor(t, api, models.MonitorCreateRequest{
		Name:     "original",
		URL:      "https://example.com",
		Cookie:   "keep=me",
		Interval: intPtr(10),
	})

	w := api.do(t, http.MethodPut, "/api/monitors/"+created.ID, models.MonitorUpdateRequest{
		Name:    strPtr("renamed"),
		Enabled: boolPtr(false),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", w.Code, w.Body.String())
	}

	var updated models.MonitorConfig
	decodeData(t, decodeEnvelope(t, w), &updated)
	if updated.Name != "renamed" {
		t.Errorf("Name = %q, want renamed", updated.Name)
	}
	if updated.Enabled {
		t.Error("Enabled = true, want false")
	}
	// Absent fields are preserved.
	if updated.URL != "https://example.com" || updated.Cookie != "keep=me" || updated.IntervalMinutes != 10 {
		t.Errorf("unsupplied fields changed: %+v", updated)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Error("UpdatedAt not advanced")
	}
}

func TestMonitorUpdateRejectsBadInterval(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	created := createMonitor(t, api, models.MonitorCreateRequest{Name: "x", URL: "https://example.com"})

	w := api.do(t, http.MethodPut, "/api/monitors/"+created.ID, models.MonitorUpdateRequest{
		Interval: intPtr(999),
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestMonitorDeleteCascades(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	created := createMonitor(t, api, models.MonitorCreateRequest{Name: "x", URL: "https://example.com"})
	api.history.Append(&models.MonitorHistory{
		MonitorID: created.ID, Timestamp: time.Now().UTC(), Status: models.StatusSuccess,
	})

	w := api.do(t, http.MethodDelete, "/api/monitors/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}

	w = api.do(t, http.MethodGet, "/api/monitors/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", w.Code)
	}

	n, err := api.history.CountForMonitor(created.ID)
	if err != nil || n != 0 {
		t.Errorf("history after delete = %d, %v, want 0, nil", n, err)
	}
}

func TestMonitorListCacheInvalidatedByMutation(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	// Prime the cache with the empty list.
	api.do(t, http.MethodGet, "/api/monitors", nil)
	if !api.cache.Has(cache.KeyAllMonitorConfigs) {
		t.Fatal("list not cached")
	}

	createMonitor(t, api, models.MonitorCreateRequest{Name: "x", URL: "https://example.com"})

	w := api.do(t, http.MethodGet, "/api/monitors", nil)
	var list []models.MonitorConfig
	decodeData(t, decodeEnvelope(t, w), &list)
	if len(list) != 1 {
		t.Errorf("list after create = %d entries, want 1 (stale cache served)", len(list))
	}
}

func TestMonitorStatuses(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	createMonitor(t, api, models.MonitorCreateRequest{Name: "a", URL: "https://a.example.com"})
	createMonitor(t, api, models.MonitorCreateRequest{Name: "b", URL: "https://b.example.com", Enabled: boolPtr(false)})

	w := api.do(t, http.MethodGet, "/api/monitors/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var rows []models.MonitorStatusSummary
	decodeData(t, decodeEnvelope(t, w), &rows)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	for _, row := range rows {
		if row.Status != models.StatusPending {
			t.Errorf("row %s status = %q, want pending", row.Name, row.Status)
		}
	}
}

func TestMonitorHistoryLimits(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	created := createMonitor(t, api, models.MonitorCreateRequest{Name: "x", URL: "https://example.com"})
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 60; i++ {
		api.history.Append(&models.MonitorHistory{
			MonitorID: created.ID,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Status:    models.StatusSuccess,
		})
	}

	// Default limit 50.
	w := api.do(t, http.MethodGet, fmt.Sprintf("/api/monitors/%s/history", created.ID), nil)
	var records []models.MonitorHistory
	decodeData(t, decodeEnvelope(t, w), &records)
	if len(records) != 50 {
		t.Errorf("default page = %d records, want 50", len(records))
	}

	// Explicit limit.
	w = api.do(t, http.MethodGet, fmt.Sprintf("/api/monitors/%s/history?limit=10", created.ID), nil)
	decodeData(t, decodeEnvelope(t, w), &records)
	if len(records) != 10 {
		t.Errorf("limit=10 page = %d records, want 10", len(records))
	}
	// Newest first.
	if len(records) > 1 && records[0].Timestamp.Before(records[1].Timestamp) {
		t.Error("records not newest-first")
	}

	// Invalid limit.
	w = api.do(t, http.MethodGet, fmt.Sprintf("/api/monitors/%s/history?limit=abc", created.ID), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid limit status = %d, want 400", w.Code)
	}
}

func TestMonitorStatsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	created := createMonitor(t, api, models.MonitorCreateRequest{Name: "x", URL: "https://example.com"})
	api.history.Append(&models.MonitorHistory{
		MonitorID: created.ID, Timestamp: time.Now().UTC(), Status: models.StatusSuccess,
	})

	w := api.do(t, http.MethodGet, fmt.Sprintf("/api/monitors/%s/stats?period=7d", created.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var stats models.MonitorStats
	decodeData(t, decodeEnvelope(t, w), &stats)
	if stats.Period != models.Period7D || len(stats.Data) != 7 {
		t.Errorf("stats = period %q with %d buckets, want 7d with 7", stats.Period, len(stats.Data))
	}

	w = api.do(t, http.MethodGet, fmt.Sprintf("/api/monitors/%s/stats?period=1y", created.ID), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid period status = %d, want 400", w.Code)
	}
}
