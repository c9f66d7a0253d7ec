// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package store

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/specula/internal/models"
)

// Attempts persists login attempts for the lockout window.
type Attempts struct {
	db *DB
}

// NewAttempts creates an attempt store on db.
func NewAttempts(db *DB) *Attempts {
	return &Attempts{db: db}
}

// Record appends one attempt for its IP.
func (s *Attempts) Record(att *models.LoginAttempt) error {
	if att.ID == "" {
		att.ID = uuid.NewString()
	}
	return s.db.SetJSON(attemptKey(att.IP, att.ID), att)
}

// CountRecentFailures returns the number of failed attempts from ip strictly
// within the trailing window ending at now.
func (s *Attempts) CountRecentFailures(ip string, window time.Duration, now time.Time) (int, error) {
	cutoff := now.Add(-window)
	count := 0
	err := s.db.ScanPrefix(attemptPrefix(ip), func(key string, val []byte) error {
		var att models.LoginAttempt
		if err := json.Unmarshal(val, &att); err != nil {
			return nil
		}
		// IPv6 strings contain colons, so the flat prefix can match a longer
		// IP. The stored IP field is authoritative.
		if att.IP != ip {
			return nil
		}
		if !att.Success && att.Timestamp.After(cutoff) {
			count++
		}
		return nil
	})
	return count, err
}

// DeleteOlderThan removes attempts recorded before cutoff across all IPs.
// Returns the number deleted.
func (s *Attempts) DeleteOlderThan(cutoff time.Time) (int, error) {
	var keys []string
	err := s.db.ScanPrefix(prefixAttempts, func(key string, val []byte) error {
		var att models.LoginAttempt
		if err := json.Unmarshal(val, &att); err != nil {
			keys = append(keys, key)
			return nil
		}
		if att.Timestamp.Before(cutoff) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return s.db.DeleteKeys(keys)
}
