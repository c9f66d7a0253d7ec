// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package maintenance runs the periodic retention sweeps: expired sessions,
// aged probe history, aged system logs, and aged login attempts. Sweeps are
// independent; one failing does not stop the others.
package maintenance

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/specula/internal/eventlog"
	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/metrics"
	"github.com/tomtom215/specula/internal/store"
)

// attemptRetention is how long login attempts are kept. The lockout window
// is minutes, so a day of attempts is already generous.
const attemptRetention = 24 * time.Hour

// Config holds sweep parameters.
type Config struct {
	// Interval between sweep rounds. The first round runs at startup.
	Interval time.Duration

	// HistoryRetention is the probe history horizon.
	HistoryRetention time.Duration

	// LogRetention is the system log horizon.
	LogRetention time.Duration
}

// DefaultConfig returns the default sweep parameters.
func DefaultConfig() Config {
	return Config{
		Interval:         time.Hour,
		HistoryRetention: 30 * 24 * time.Hour,
		LogRetention:     7 * 24 * time.Hour,
	}
}

// Job owns the sweep loop. It satisfies the supervisor's service contract
// through Serve.
type Job struct {
	db       *store.DB
	sessions *store.Sessions
	history  *store.History
	attempts *store.Attempts
	eventLog eventlog.Store
	config   Config
	logger   zerolog.Logger
}

// New creates a maintenance job.
func New(db *store.DB, sessions *store.Sessions, history *store.History, attempts *store.Attempts, eventLog eventlog.Store, cfg Config) *Job {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}

	return &Job{
		db:       db,
		sessions: sessions,
		history:  history,
		attempts: attempts,
		eventLog: eventLog,
		config:   cfg,
		logger:   logging.With().Str("component", "maintenance").Logger(),
	}
}

// Serve runs a sweep immediately, then on every interval until ctx ends.
func (j *Job) Serve(ctx context.Context) error {
	j.Sweep()

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.Sweep()
		}
	}
}

func (j *Job) String() string { return "maintenance" }

// Sweep runs all four retention sweeps in parallel and a badger value-log GC
// afterwards, then logs a summary.
func (j *Job) Sweep() {
	started := time.Now()
	now := started.UTC()

	var (
		wg                                    sync.WaitGroup
		sessionsN, historyN, logsN, attemptsN int
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		sessionsN = j.runSweep("sessions", func() (int, error) {
			return j.sessions.DeleteExpired(now)
		})
	}()
	go func() {
		defer wg.Done()
		historyN = j.runSweep("history", func() (int, error) {
			return j.history.DeleteOlderThan(now.Add(-j.config.HistoryRetention))
		})
	}()
	go func() {
		defer wg.Done()
		logsN = j.runSweep("system_logs", func() (int, error) {
			return j.eventLog.DeleteOlderThan(now.Add(-j.config.LogRetention))
		})
	}()
	go func() {
		defer wg.Done()
		attemptsN = j.runSweep("login_attempts", func() (int, error) {
			return j.attempts.DeleteOlderThan(now.Add(-attemptRetention))
		})
	}()
	wg.Wait()

	if err := j.db.RunGC(); err != nil {
		j.logger.Debug().Err(err).Msg("Value log GC found nothing to collect")
	}

	j.logger.Info().
		Int("sessions", sessionsN).
		Int("history", historyN).
		Int("system_logs", logsN).
		Int("login_attempts", attemptsN).
		Dur("elapsed", time.Since(started)).
		Msg("Maintenance sweep complete")
}

// runSweep executes one sweep, records its metric, and returns the number of
// records deleted.
func (j *Job) runSweep(target string, fn func() (int, error)) int {
	deleted, err := fn()
	metrics.RecordMaintenanceSweep(target, deleted, err)
	if err != nil {
		j.logger.Error().Err(err).Str("target", target).Msg("Maintenance sweep failed")
		return 0
	}
	return deleted
}
