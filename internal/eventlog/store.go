// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package eventlog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/specula/internal/store"
)

// keyPrefix is the system log keyspace. The time key after the prefix makes
// lexicographic order chronological.
const keyPrefix = "system_logs:"

// DefaultMaxScan bounds how many newest entries one query inspects. Matched
// counts are exact only within this window.
const DefaultMaxScan = 1000

// BadgerStore persists entries in the shared embedded database.
type BadgerStore struct {
	db *store.DB

	// maxScan is the query scan bound; DefaultMaxScan when zero.
	maxScan int
}

// NewBadgerStore creates an entry store on db.
func NewBadgerStore(db *store.DB) *BadgerStore {
	return &BadgerStore{db: db, maxScan: DefaultMaxScan}
}

// entryKey builds the time-ordered key for an entry.
func entryKey(ts time.Time, id string) string {
	return keyPrefix + store.TimeKey(ts) + ":" + id
}

// Save persists one entry, assigning an ID and timestamp when absent.
func (s *BadgerStore) Save(entry *Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	return s.db.SetJSON(entryKey(entry.Timestamp, entry.ID), entry)
}

// Query scans at most maxScan newest entries, filters in memory, and returns
// the page at filter.Offset/filter.Limit plus the matched count within the
// scan window.
func (s *BadgerStore) Query(filter Filter) ([]*Entry, int, error) {
	maxScan := s.maxScan
	if maxScan <= 0 {
		maxScan = DefaultMaxScan
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	contains := strings.ToLower(filter.Contains)

	var page []*Entry
	matched := 0
	scanned := 0

	err := s.db.ScanPrefixReverse(keyPrefix, func(key string, val []byte) (bool, error) {
		scanned++

		var entry Entry
		if err := json.Unmarshal(val, &entry); err != nil {
			return scanned < maxScan, nil
		}

		if filter.Level != "" && entry.Level != filter.Level {
			return scanned < maxScan, nil
		}
		if filter.MonitorID != "" && entry.MonitorID != filter.MonitorID {
			return scanned < maxScan, nil
		}
		if contains != "" && !strings.Contains(strings.ToLower(entry.Message), contains) {
			return scanned < maxScan, nil
		}

		if matched >= filter.Offset && len(page) < limit {
			page = append(page, &entry)
		}
		matched++

		return scanned < maxScan, nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("query system logs: %w", err)
	}

	return page, matched, nil
}

// DeleteOlderThan removes entries recorded before cutoff. The time-ordered
// key layout lets the scan run oldest-first and stop at the cutoff.
func (s *BadgerStore) DeleteOlderThan(cutoff time.Time) (int, error) {
	boundary := keyPrefix + store.TimeKey(cutoff)

	var keys []string
	err := s.db.ScanPrefix(keyPrefix, func(key string, val []byte) error {
		if key >= boundary {
			return errStopScan
		}
		keys = append(keys, key)
		return nil
	})
	if err != nil && !errors.Is(err, errStopScan) {
		return 0, err
	}

	return s.db.DeleteKeys(keys)
}

// errStopScan terminates the retention scan at the cutoff boundary.
var errStopScan = errors.New("eventlog: stop scan")

// Count returns the number of persisted entries.
func (s *BadgerStore) Count() (int, error) {
	return s.db.CountPrefix(keyPrefix)
}
