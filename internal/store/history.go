// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package store

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/specula/internal/models"
)

// History persists MonitorHistory records under their monitor's key range.
// Record IDs embed the probe timestamp (see NewRecordID), so per-monitor key
// order is chronological and a reverse scan yields newest-first.
type History struct {
	db *DB
}

// NewHistory creates a history store on db.
func NewHistory(db *DB) *History {
	return &History{db: db}
}

// Append writes one probe outcome. Assigns a time-ordered record ID when the
// record has none.
func (s *History) Append(rec *models.MonitorHistory) error {
	if rec.ID == "" {
		rec.ID = NewRecordID(rec.Timestamp)
	}
	return s.db.SetJSON(historyKey(rec.MonitorID, rec.ID), rec)
}

// ListRecent returns up to limit records for monitorID, newest first.
// limit must be positive.
func (s *History) ListRecent(monitorID string, limit int) ([]*models.MonitorHistory, error) {
	var records []*models.MonitorHistory
	err := s.db.ScanPrefixReverse(historyPrefix(monitorID), func(key string, val []byte) (bool, error) {
		var rec models.MonitorHistory
		if err := json.Unmarshal(val, &rec); err != nil {
			return false, fmt.Errorf("unmarshal %s: %w", key, err)
		}
		records = append(records, &rec)
		return len(records) < limit, nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ScanSince streams records for monitorID newest-first and stops at the
// first record older than cutoff. This is the bounded scan the stats engine
// aggregates over.
func (s *History) ScanSince(monitorID string, cutoff time.Time, fn func(*models.MonitorHistory) error) error {
	return s.db.ScanPrefixReverse(historyPrefix(monitorID), func(key string, val []byte) (bool, error) {
		var rec models.MonitorHistory
		if err := json.Unmarshal(val, &rec); err != nil {
			return false, fmt.Errorf("unmarshal %s: %w", key, err)
		}
		if rec.Timestamp.Before(cutoff) {
			return false, nil
		}
		if err := fn(&rec); err != nil {
			return false, err
		}
		return true, nil
	})
}

// DeleteOlderThan removes records across all monitors whose timestamp is
// before cutoff. Unreadable records are removed with the sweep. Returns the
// number deleted.
func (s *History) DeleteOlderThan(cutoff time.Time) (int, error) {
	var keys []string
	err := s.db.ScanPrefix(prefixHistory, func(key string, val []byte) error {
		var rec models.MonitorHistory
		if err := json.Unmarshal(val, &rec); err != nil {
			keys = append(keys, key)
			return nil
		}
		if rec.Timestamp.Before(cutoff) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return s.db.DeleteKeys(keys)
}

// CountForMonitor returns the number of records stored for monitorID.
func (s *History) CountForMonitor(monitorID string) (int, error) {
	return s.db.CountPrefix(historyPrefix(monitorID))
}
