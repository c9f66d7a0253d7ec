// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package models

import (
	"net/http"
	"time"
)

// APIResponse is the uniform envelope returned by every /api endpoint.
//
// Success:
//
//	{
//	  "success": true,
//	  "data": {...},
//	  "timestamp": "2026-01-15T10:30:00Z"
//	}
//
// Error:
//
//	{
//	  "success": false,
//	  "error": "监控配置不存在",
//	  "code": 1004,
//	  "timestamp": "2026-01-15T10:30:00Z"
//	}
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      int         `json:"code,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewSuccessResponse wraps data in a success envelope.
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// NewErrorResponse builds an error envelope with the numeric taxonomy code.
func NewErrorResponse(message string, code int) APIResponse {
	return APIResponse{
		Success:   false,
		Error:     message,
		Code:      code,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Numeric error codes carried in the envelope alongside the HTTP status.
const (
	// CodeValidation covers missing fields, malformed URLs, and intervals
	// out of range.
	CodeValidation = 1001
	// CodeAuthFailed is a wrong password.
	CodeAuthFailed = 1002
	// CodeUnauthorized is a missing or invalid session on a protected route.
	CodeUnauthorized = 1003
	// CodeNotFound is an unknown monitor ID.
	CodeNotFound = 1004
	// CodeDatabase is a failed KV operation.
	CodeDatabase = 2001
	// CodeNetwork is an unexpected I/O failure inside a handler.
	CodeNetwork = 2002
	// CodeRateLimited is too many failed logins in the lockout window.
	CodeRateLimited = 3001
	// CodeInternal is an uncaught panic or unclassified failure.
	CodeInternal = 5001
)

// HTTPStatusFor maps a taxonomy code to its HTTP status.
func HTTPStatusFor(code int) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeAuthFailed, CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeDatabase, CodeNetwork, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// AuthCheckResponse is the body of GET /api/auth/check.
type AuthCheckResponse struct {
	Authenticated bool         `json:"authenticated"`
	Session       *SessionInfo `json:"session,omitempty"`
}

// MonitorCreateRequest is the body of POST /api/monitors. Interval and
// Enabled are pointers so that absent fields take configured defaults.
type MonitorCreateRequest struct {
	Name    string            `json:"name" validate:"required,max=200"`
	URL     string            `json:"url" validate:"required"`
	Method  string            `json:"method" validate:"omitempty,oneof=GET POST HEAD get post head"`
	Cookie  string            `json:"cookie"`
	Headers map[string]string `json:"headers"`

	// Interval is the cadence in minutes; nil applies
	// DEFAULT_MONITOR_INTERVAL. Range-checked against configuration.
	Interval *int `json:"interval"`

	// Enabled defaults to true when absent.
	Enabled *bool `json:"enabled"`
}

// MonitorUpdateRequest is the partial body of PUT /api/monitors/{id}.
// Nil fields are preserved; supplied fields are validated with the create
// rules.
type MonitorUpdateRequest struct {
	Name     *string           `json:"name" validate:"omitempty,min=1,max=200"`
	URL      *string           `json:"url"`
	Method   *string           `json:"method" validate:"omitempty,oneof=GET POST HEAD get post head"`
	Cookie   *string           `json:"cookie"`
	Headers  map[string]string `json:"headers"`
	Interval *int              `json:"interval"`
	Enabled  *bool             `json:"enabled"`
}

// SystemInfo is the body of GET /api/system/info.
type SystemInfo struct {
	Version         string          `json:"version"`
	TotalMonitors   int             `json:"totalMonitors"`
	EnabledMonitors int             `json:"enabledMonitors"`
	UptimeMS        int64           `json:"uptime_ms"`
	Scheduler       SchedulerStatus `json:"scheduler"`
}

// SystemHealth is the body of GET /api/system/health.
type SystemHealth struct {
	Status    string            `json:"status"`
	Services  map[string]string `json:"services"`
	Scheduler SchedulerStatus   `json:"scheduler"`
}

// CacheInfo is the body of GET /api/system/cache.
type CacheInfo struct {
	CacheSize int      `json:"cacheSize"`
	CacheKeys []string `json:"cacheKeys"`
	Hits      uint64   `json:"hits"`
	Misses    uint64   `json:"misses"`
	Evictions uint64   `json:"evictions"`
	HitRate   float64  `json:"hitRate"`
}

// Pagination describes a page of a bounded scan. Total is exact only within
// the scan window (see the system log query contract).
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
