// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/specula/internal/cache"
	"github.com/tomtom215/specula/internal/models"
	"github.com/tomtom215/specula/internal/store"
	"github.com/tomtom215/specula/internal/validation"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

const msgMonitorNotFound = "监控配置不存在"

// handleMonitorList returns every monitor config, cached briefly since the
// dashboard polls it.
func (s *Server) handleMonitorList(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.cache.Get(cache.KeyAllMonitorConfigs); ok {
		if configs, ok := cached.([]*models.MonitorConfig); ok {
			respondSuccess(w, configs)
			return
		}
	}

	configs, err := s.monitors.List()
	if err != nil {
		respondError(w, "读取监控配置失败", models.CodeDatabase)
		return
	}
	if configs == nil {
		configs = []*models.MonitorConfig{}
	}

	s.cache.Set(cache.KeyAllMonitorConfigs, configs, cache.TTLMonitorConfigs)
	respondSuccess(w, configs)
}

// handleMonitorCreate validates and persists a new monitor.
func (s *Server) handleMonitorCreate(w http.ResponseWriter, r *http.Request) {
	var req models.MonitorCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err.Error(), models.CodeValidation)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, err.Message(), models.CodeValidation)
		return
	}
	if !models.ValidateURL(req.URL) {
		respondError(w, "无效的URL: "+req.URL, models.CodeValidation)
		return
	}

	interval := s.config.Monitor.DefaultIntervalMinutes
	if req.Interval != nil {
		interval = *req.Interval
	}
	if err := s.checkInterval(interval); err != nil {
		respondError(w, err.Error(), models.CodeValidation)
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	now := time.Now().UTC()
	monitor := &models.MonitorConfig{
		ID:              uuid.NewString(),
		Name:            req.Name,
		URL:             req.URL,
		Method:          req.Method,
		Cookie:          req.Cookie,
		Headers:         req.Headers,
		IntervalMinutes: interval,
		Enabled:         enabled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.monitors.Put(monitor); err != nil {
		respondError(w, "保存监控配置失败", models.CodeDatabase)
		return
	}

	s.cache.ClearByPrefix(cache.PrefixMonitorConfigs)
	s.eventLog.Info("创建监控项: "+monitor.Name, monitor.ID, monitor.Name)
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(monitor))
}

// handleMonitorGet returns one monitor config.
func (s *Server) handleMonitorGet(w http.ResponseWriter, r *http.Request) {
	monitor, ok := s.loadMonitor(w, r)
	if !ok {
		return
	}
	respondSuccess(w, monitor)
}

// handleMonitorUpdate applies a partial update: absent fields keep their
// persisted values.
func (s *Server) handleMonitorUpdate(w http.ResponseWriter, r *http.Request) {
	monitor, ok := s.loadMonitor(w, r)
	if !ok {
		return
	}

	var req models.MonitorUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err.Error(), models.CodeValidation)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, err.Message(), models.CodeValidation)
		return
	}

	if req.URL != nil {
		if !models.ValidateURL(*req.URL) {
			respondError(w, "无效的URL: "+*req.URL, models.CodeValidation)
			return
		}
		monitor.URL = *req.URL
	}
	if req.Interval != nil {
		if err := s.checkInterval(*req.Interval); err != nil {
			respondError(w, err.Error(), models.CodeValidation)
			return
		}
		monitor.IntervalMinutes = *req.Interval
	}
	if req.Name != nil {
		monitor.Name = *req.Name
	}
	if req.Method != nil {
		monitor.Method = *req.Method
	}
	if req.Cookie != nil {
		monitor.Cookie = *req.Cookie
	}
	if req.Headers != nil {
		monitor.Headers = req.Headers
	}
	if req.Enabled != nil {
		monitor.Enabled = *req.Enabled
	}
	monitor.UpdatedAt = time.Now().UTC()

	if err := s.monitors.Put(monitor); err != nil {
		respondError(w, "保存监控配置失败", models.CodeDatabase)
		return
	}

	s.cache.ClearByPrefix(cache.PrefixMonitorConfigs)
	respondSuccess(w, monitor)
}

// handleMonitorDelete removes a monitor and its history.
func (s *Server) handleMonitorDelete(w http.ResponseWriter, r *http.Request) {
	monitor, ok := s.loadMonitor(w, r)
	if !ok {
		return
	}

	if err := s.monitors.Delete(monitor.ID); err != nil {
		respondError(w, "删除监控配置失败", models.CodeDatabase)
		return
	}

	s.cache.ClearByPrefix(cache.PrefixMonitorConfigs)
	s.cache.ClearByPrefix("monitor_history_" + monitor.ID)
	s.cache.ClearByPrefix("monitor_stats_" + monitor.ID)
	s.eventLog.Info("删除监控项: "+monitor.Name, monitor.ID, monitor.Name)
	respondSuccess(w, map[string]string{"message": "已删除"})
}

// handleMonitorStatuses returns the compact status row for every monitor.
func (s *Server) handleMonitorStatuses(w http.ResponseWriter, r *http.Request) {
	configs, err := s.monitors.List()
	if err != nil {
		respondError(w, "读取监控配置失败", models.CodeDatabase)
		return
	}

	summaries := make([]models.MonitorStatusSummary, 0, len(configs))
	for _, cfg := range configs {
		summaries = append(summaries, cfg.Summary())
	}
	respondSuccess(w, summaries)
}

// handleMonitorHistory returns recent probe records, newest first.
func (s *Server) handleMonitorHistory(w http.ResponseWriter, r *http.Request) {
	monitor, ok := s.loadMonitor(w, r)
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, "无效的limit参数", models.CodeValidation)
			return
		}
		limit = n
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	cacheKey := cache.KeyMonitorHistory(monitor.ID, limit)
	if cached, ok := s.cache.Get(cacheKey); ok {
		if records, ok := cached.([]*models.MonitorHistory); ok {
			respondSuccess(w, records)
			return
		}
	}

	records, err := s.history.ListRecent(monitor.ID, limit)
	if err != nil {
		respondError(w, "读取历史记录失败", models.CodeDatabase)
		return
	}
	if records == nil {
		records = []*models.MonitorHistory{}
	}

	s.cache.Set(cacheKey, records, cache.TTLMonitorHistory)
	respondSuccess(w, records)
}

// handleMonitorStats returns the bucketed series for one monitor.
func (s *Server) handleMonitorStats(w http.ResponseWriter, r *http.Request) {
	period := statsPeriod(r)
	if !models.ValidPeriod(period) {
		respondError(w, "无效的统计周期: "+period, models.CodeValidation)
		return
	}

	result, err := s.stats.ForMonitor(chi.URLParam(r, "id"), period)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, msgMonitorNotFound, models.CodeNotFound)
			return
		}
		respondError(w, "统计计算失败", models.CodeDatabase)
		return
	}
	respondSuccess(w, result)
}

// loadMonitor resolves the {id} path parameter, writing the not-found
// envelope on failure.
func (s *Server) loadMonitor(w http.ResponseWriter, r *http.Request) (*models.MonitorConfig, bool) {
	id := chi.URLParam(r, "id")
	monitor, err := s.monitors.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, msgMonitorNotFound, models.CodeNotFound)
		} else {
			respondError(w, "读取监控配置失败", models.CodeDatabase)
		}
		return nil, false
	}
	return monitor, true
}

// checkInterval enforces the configured interval bounds.
func (s *Server) checkInterval(minutes int) error {
	min := s.config.Monitor.MinIntervalMinutes
	max := s.config.Monitor.MaxIntervalMinutes
	if minutes < min || minutes > max {
		return fmt.Errorf("监控间隔必须在%d到%d分钟之间", min, max)
	}
	return nil
}

// statsPeriod returns the period query parameter, defaulting to 24h.
func statsPeriod(r *http.Request) string {
	if p := r.URL.Query().Get("period"); p != "" {
		return p
	}
	return models.Period24H
}
