// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package eventlog provides the persisted, operator-facing system log.
//
// Entries are stored in the embedded KV under time-ordered keys so that a
// reverse range scan yields newest-first without a secondary index. Writes
// are asynchronous and fire-and-forget: a logging failure never fails the
// caller. This is distinct from internal/logging, which covers process logs.
package eventlog

import (
	"time"

	"github.com/goccy/go-json"
)

// Level classifies an entry's severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// ValidLevel reports whether l is one of the four entry levels.
func ValidLevel(l Level) bool {
	switch l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return true
	default:
		return false
	}
}

// Entry is one operator-facing event.
type Entry struct {
	ID      string `json:"id"`
	Level   Level  `json:"level"`
	Message string `json:"message"`

	// MonitorID and MonitorName are set on probe-related entries.
	MonitorID   string `json:"monitor_id,omitempty"`
	MonitorName string `json:"monitor_name,omitempty"`

	// Metadata carries event-specific structured details.
	Metadata json.RawMessage `json:"metadata,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Filter selects entries for a query. Zero-valued fields match everything.
type Filter struct {
	// Level matches entries of exactly this level.
	Level Level

	// MonitorID matches entries tagged with this monitor.
	MonitorID string

	// Contains matches entries whose message contains this substring
	// (case-insensitive).
	Contains string

	// Offset and Limit page through the matched set, newest first.
	Offset int
	Limit  int
}

// Store persists entries. The badger implementation lives in store.go.
type Store interface {
	// Save persists one entry.
	Save(entry *Entry) error

	// Query scans at most maxScan newest entries, applies filter in memory,
	// and returns the requested page plus the count matched within the scan
	// window. The count is exact only within the window; otherwise it is a
	// lower bound.
	Query(filter Filter) ([]*Entry, int, error)

	// DeleteOlderThan removes entries recorded before cutoff and returns the
	// number deleted.
	DeleteOlderThan(cutoff time.Time) (int, error)

	// Count returns the total number of persisted entries.
	Count() (int, error)
}

// mustJSON marshals v for an entry's metadata, returning an empty object on
// error.
func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}
