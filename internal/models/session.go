// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package models

import "time"

// Session is an authenticated admin session keyed by its opaque token.
// Expired sessions are never returned by lookups; they are deleted lazily
// on access and by the maintenance sweep.
type Session struct {
	// ID is the opaque token, also the cookie value.
	ID string `json:"id"`

	// Authenticated is always true on persisted sessions.
	Authenticated bool `json:"authenticated"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	// LastAccessAt is refreshed on every successful auth check.
	LastAccessAt time.Time `json:"last_access_at"`

	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
}

// Expired reports whether the session has expired at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// SessionInfo is the client-visible session projection. The token itself is
// never echoed back in a response body.
type SessionInfo struct {
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastAccessAt time.Time `json:"last_access_at"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
}

// Info projects the session for API responses.
func (s *Session) Info() SessionInfo {
	return SessionInfo{
		CreatedAt:    s.CreatedAt,
		ExpiresAt:    s.ExpiresAt,
		LastAccessAt: s.LastAccessAt,
		IPAddress:    s.IPAddress,
		UserAgent:    s.UserAgent,
	}
}

// LoginAttempt is one login outcome from one client IP, kept for the
// lockout window arithmetic and swept after 24 hours.
type LoginAttempt struct {
	ID        string    `json:"id"`
	IP        string    `json:"ip"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
}
