// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package auth implements single-credential admin authentication: opaque
// session tokens persisted in the store, and a per-IP login lockout over a
// trailing failure window.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/specula/internal/config"
	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/metrics"
	"github.com/tomtom215/specula/internal/models"
	"github.com/tomtom215/specula/internal/store"
)

var (
	// ErrInvalidCredentials means the password did not match.
	ErrInvalidCredentials = errors.New("密码错误")

	// ErrAccountLocked means the client IP exceeded the failure threshold
	// within the lockout window.
	ErrAccountLocked = errors.New("登录尝试次数过多")

	// ErrSessionNotFound means the token has no persisted session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired means the session existed but had expired; it has
	// been deleted.
	ErrSessionExpired = errors.New("session expired")
)

// Manager owns login, session validation, and logout. The admin password is
// bcrypt-hashed once at construction and the plaintext discarded.
type Manager struct {
	sessions *store.Sessions
	attempts *store.Attempts

	passwordHash  []byte
	sessionTTL    time.Duration
	lockoutWindow time.Duration
	maxAttempts   int

	logger zerolog.Logger
}

// NewManager creates a manager from the auth configuration.
func NewManager(sessions *store.Sessions, attempts *store.Attempts, cfg config.AuthConfig) (*Manager, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}

	return &Manager{
		sessions:      sessions,
		attempts:      attempts,
		passwordHash:  hash,
		sessionTTL:    cfg.SessionTTL(),
		lockoutWindow: cfg.LockoutWindow(),
		maxAttempts:   cfg.MaxLoginAttempts,
		logger:        logging.With().Str("component", "auth").Logger(),
	}, nil
}

// Login verifies password and creates a session. A lockout rejection is
// itself recorded as a failed attempt, so hammering a locked IP extends the
// lockout. A successful login does not erase earlier failures; they age out
// of the window.
func (m *Manager) Login(password, ip, userAgent string) (*models.Session, error) {
	now := time.Now().UTC()

	failures, err := m.attempts.CountRecentFailures(ip, m.lockoutWindow, now)
	if err != nil {
		return nil, fmt.Errorf("count login failures: %w", err)
	}
	if failures >= m.maxAttempts {
		m.recordAttempt(ip, now, false)
		metrics.LoginAttempts.WithLabelValues("locked_out").Inc()
		m.logger.Warn().Str("ip", ip).Int("failures", failures).Msg("Login rejected, IP locked out")
		return nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password)); err != nil {
		m.recordAttempt(ip, now, false)
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		m.logger.Warn().Str("ip", ip).Msg("Login failed, bad password")
		return nil, ErrInvalidCredentials
	}

	m.recordAttempt(ip, now, true)

	sess := &models.Session{
		ID:            uuid.NewString(),
		Authenticated: true,
		CreatedAt:     now,
		ExpiresAt:     now.Add(m.sessionTTL),
		LastAccessAt:  now,
		IPAddress:     ip,
		UserAgent:     userAgent,
	}
	if err := m.sessions.Put(sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	m.syncSessionGauge()
	m.logger.Info().
		Str("ip", ip).
		Str("user_agent", logging.SanitizeForLog(userAgent, 120)).
		Msg("Login succeeded")
	return sess, nil
}

// Check validates token and refreshes its last-access time. An expired
// session is deleted on sight.
func (m *Manager) Check(token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	sess, err := m.sessions.Get(token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	now := time.Now().UTC()
	if sess.Expired(now) {
		if err := m.sessions.Delete(token); err != nil {
			m.logger.Error().Err(err).
				Str("token", logging.SanitizeToken(token)).
				Msg("Failed to delete expired session")
		}
		m.syncSessionGauge()
		return nil, ErrSessionExpired
	}

	sess.LastAccessAt = now
	if err := m.sessions.Put(sess); err != nil {
		m.logger.Error().Err(err).Msg("Failed to refresh session access time")
	}
	return sess, nil
}

// Logout deletes the session for token. Unknown tokens succeed.
func (m *Manager) Logout(token string) error {
	if token == "" {
		return nil
	}
	if err := m.sessions.Delete(token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	m.syncSessionGauge()
	m.logger.Debug().
		Str("token", logging.SanitizeToken(token)).
		Msg("Session logged out")
	return nil
}

// SessionTTL returns the configured session lifetime.
func (m *Manager) SessionTTL() time.Duration {
	return m.sessionTTL
}

func (m *Manager) recordAttempt(ip string, now time.Time, success bool) {
	err := m.attempts.Record(&models.LoginAttempt{
		IP:        ip,
		Timestamp: now,
		Success:   success,
	})
	if err != nil {
		m.logger.Error().Err(err).Str("ip", ip).Msg("Failed to record login attempt")
	}
}

func (m *Manager) syncSessionGauge() {
	if n, err := m.sessions.Count(); err == nil {
		metrics.ActiveSessions.Set(float64(n))
	}
}
