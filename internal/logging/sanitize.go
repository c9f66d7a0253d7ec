// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package logging

import "strings"

// SanitizeToken masks an opaque token, keeping the first and last 4
// characters. Session tokens must never appear whole in process logs.
//
//	"3f9c1a72-5d2e-4b8f-9e11-aa04c56d7712" -> "3f9c...7712"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeForLog strips control characters from a client-supplied value so
// it cannot forge additional log lines, and truncates it to maxLen.
func SanitizeForLog(s string, maxLen int) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if maxLen > 0 && len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
