// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package store

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/specula/internal/models"
)

// Sessions persists admin sessions keyed by token. Expiry decisions belong
// to the auth layer; this store returns records as persisted.
type Sessions struct {
	db *DB
}

// NewSessions creates a session store on db.
func NewSessions(db *DB) *Sessions {
	return &Sessions{db: db}
}

// Put writes the session under its token.
func (s *Sessions) Put(sess *models.Session) error {
	return s.db.SetJSON(sessionKey(sess.ID), sess)
}

// Get returns the session for token, or ErrNotFound. Expired sessions are
// still returned; the caller decides their fate.
func (s *Sessions) Get(token string) (*models.Session, error) {
	var sess models.Session
	if err := s.db.GetJSON(sessionKey(token), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Delete removes the session for token. Missing tokens are a no-op.
func (s *Sessions) Delete(token string) error {
	return s.db.Delete(sessionKey(token))
}

// DeleteExpired removes sessions whose expiry is at or before now.
// Unreadable records are removed with the sweep. Returns the number deleted.
func (s *Sessions) DeleteExpired(now time.Time) (int, error) {
	var keys []string
	err := s.db.ScanPrefix(prefixSessions, func(key string, val []byte) error {
		var sess models.Session
		if err := json.Unmarshal(val, &sess); err != nil {
			keys = append(keys, key)
			return nil
		}
		if sess.Expired(now) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return s.db.DeleteKeys(keys)
}

// Count returns the number of persisted sessions, expired included.
func (s *Sessions) Count() (int, error) {
	return s.db.CountPrefix(prefixSessions)
}
