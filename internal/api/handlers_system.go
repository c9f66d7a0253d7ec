// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/specula/internal/cache"
	"github.com/tomtom215/specula/internal/eventlog"
	"github.com/tomtom215/specula/internal/models"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 200
)

// handleStatsAll returns the bucketed series of every monitor.
func (s *Server) handleStatsAll(w http.ResponseWriter, r *http.Request) {
	period := statsPeriod(r)
	if !models.ValidPeriod(period) {
		respondError(w, "无效的统计周期: "+period, models.CodeValidation)
		return
	}

	all, err := s.stats.ForAll(period)
	if err != nil {
		respondError(w, "统计计算失败", models.CodeDatabase)
		return
	}
	respondSuccess(w, all)
}

// handleStatsOverview returns monitor counts by state.
func (s *Server) handleStatsOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.stats.Overview()
	if err != nil {
		respondError(w, "统计计算失败", models.CodeDatabase)
		return
	}
	respondSuccess(w, overview)
}

// handleSystemInfo returns version, monitor counts, uptime, and scheduler
// state.
func (s *Server) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	configs, err := s.monitors.List()
	if err != nil {
		respondError(w, "读取监控配置失败", models.CodeDatabase)
		return
	}

	enabled := 0
	for _, cfg := range configs {
		if cfg.Enabled {
			enabled++
		}
	}

	respondSuccess(w, models.SystemInfo{
		Version:         s.version,
		TotalMonitors:   len(configs),
		EnabledMonitors: enabled,
		UptimeMS:        time.Since(s.startedAt).Milliseconds(),
		Scheduler:       s.scheduler.Status(),
	})
}

// handleSystemHealth is the unauthenticated liveness probe.
func (s *Server) handleSystemHealth(w http.ResponseWriter, r *http.Request) {
	schedState := "stopped"
	if s.scheduler.IsRunning() {
		schedState = "running"
	}

	respondSuccess(w, models.SystemHealth{
		Status: "ok",
		Services: map[string]string{
			"database":  "ok",
			"cache":     "ok",
			"scheduler": schedState,
		},
		Scheduler: s.scheduler.Status(),
	})
}

// handleCacheInfo exposes the cache counters and key list.
func (s *Server) handleCacheInfo(w http.ResponseWriter, r *http.Request) {
	stats := s.cache.GetStats()
	respondSuccess(w, models.CacheInfo{
		CacheSize: s.cache.Size(),
		CacheKeys: s.cache.Keys(),
		Hits:      uint64(stats.Hits),
		Misses:    uint64(stats.Misses),
		Evictions: uint64(stats.Evictions),
		HitRate:   s.cache.HitRate(),
	})
}

// handleCacheClear drops every cached entry.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.cache.Clear()
	respondSuccess(w, map[string]string{"message": "缓存已清空"})
}

// handleSchedulerStatus returns the scheduler loop state.
func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, s.scheduler.Status())
}

// systemLogsPage is the data payload of GET /api/system/logs.
type systemLogsPage struct {
	Logs       []*eventlog.Entry `json:"logs"`
	Pagination models.Pagination `json:"pagination"`
}

// handleSystemLogs returns a filtered page of system log entries, newest
// first. The total is exact only within the store's scan window.
func (s *Server) handleSystemLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, "无效的page参数", models.CodeValidation)
			return
		}
		page = n
	}

	limit := defaultLogLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, "无效的limit参数", models.CodeValidation)
			return
		}
		limit = n
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}

	level := eventlog.Level(q.Get("level"))
	if level != "" && !eventlog.ValidLevel(level) {
		respondError(w, "无效的日志级别: "+string(level), models.CodeValidation)
		return
	}

	filter := eventlog.Filter{
		Level:     level,
		MonitorID: q.Get("monitor_id"),
		Contains:  q.Get("search"),
		Offset:    (page - 1) * limit,
		Limit:     limit,
	}

	cacheKey := cache.KeySystemLogs(cache.GenerateKey("logs", filter), page)
	if cached, ok := s.cache.Get(cacheKey); ok {
		if result, ok := cached.(*systemLogsPage); ok {
			respondSuccess(w, result)
			return
		}
	}

	entries, total, err := s.eventLog.Query(filter)
	if err != nil {
		respondError(w, "读取系统日志失败", models.CodeDatabase)
		return
	}
	if entries == nil {
		entries = []*eventlog.Entry{}
	}

	totalPages := (total + limit - 1) / limit
	result := &systemLogsPage{
		Logs: entries,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}

	s.cache.Set(cacheKey, result, cache.TTLSystemLogs)
	respondSuccess(w, result)
}
