// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Key prefixes for the persisted keyspace. Every key is prefix + colon-joined
// components; scans rely on lexicographic order within one prefix.
const (
	prefixMonitors = "monitors:"
	prefixHistory  = "history:"
	prefixSessions = "sessions:"
	prefixAttempts = "login_attempts:"
)

// TimeKey renders t as a left-zero-padded 20-digit millisecond string so
// lexicographic order equals chronological order. Shared by history record
// IDs and the system log keyspace.
func TimeKey(t time.Time) string {
	return fmt.Sprintf("%020d", t.UnixMilli())
}

// NewRecordID builds a history record ID that sorts by ts. The uuid suffix
// keeps IDs unique within one millisecond.
func NewRecordID(ts time.Time) string {
	return TimeKey(ts) + "-" + uuid.NewString()
}

func monitorKey(id string) string {
	return prefixMonitors + id
}

func historyKey(monitorID, recordID string) string {
	return prefixHistory + monitorID + ":" + recordID
}

func historyPrefix(monitorID string) string {
	return prefixHistory + monitorID + ":"
}

func sessionKey(token string) string {
	return prefixSessions + token
}

func attemptKey(ip, id string) string {
	return prefixAttempts + ip + ":" + id
}

func attemptPrefix(ip string) string {
	return prefixAttempts + ip + ":"
}
