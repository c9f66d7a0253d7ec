// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package scheduler drives periodic probing of enabled monitors.
//
// Every tick it loads the monitor set, filters to configs that are due, and
// probes them in bounded-concurrency batches. Ticks never overlap: a tick
// that fires while the previous one is still running is skipped and counted.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/specula/internal/cache"
	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/metrics"
	"github.com/tomtom215/specula/internal/models"
	"github.com/tomtom215/specula/internal/probe"
	"github.com/tomtom215/specula/internal/store"
)

// Config holds scheduler parameters.
type Config struct {
	// TickInterval is the cadence of due checks.
	TickInterval time.Duration

	// MaxConcurrent bounds how many probes run at once within a tick.
	MaxConcurrent int

	// BatchPause is the delay between consecutive probe batches.
	BatchPause time.Duration
}

// DefaultConfig returns the default scheduler parameters.
func DefaultConfig() Config {
	return Config{
		TickInterval:  time.Minute,
		MaxConcurrent: 10,
		BatchPause:    time.Second,
	}
}

// Scheduler owns the probe loop. Construct with New, then Start/Stop.
type Scheduler struct {
	monitors *store.Monitors
	executor *probe.Executor
	cache    *cache.Cache
	config   Config
	logger   zerolog.Logger

	mu             sync.Mutex
	running        bool
	ticking        bool
	stopCh         chan struct{}
	doneCh         chan struct{}
	cancel         context.CancelFunc
	executionCount int64
	lastExecution  *time.Time
}

// New creates a scheduler. Call Start to begin probing.
func New(monitors *store.Monitors, executor *probe.Executor, c *cache.Cache, cfg Config) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Minute
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}

	return &Scheduler{
		monitors: monitors,
		executor: executor,
		cache:    c,
		config:   cfg,
		logger:   logging.With().Str("component", "scheduler").Logger(),
	}
}

// Start launches the probe loop. Starting a running scheduler is a no-op.
// The first tick runs immediately rather than one interval in.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Warn().Msg("Scheduler already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.running = true

	go s.run(ctx, s.stopCh, s.doneCh)

	s.logger.Info().
		Dur("tick_interval", s.config.TickInterval).
		Int("max_concurrent", s.config.MaxConcurrent).
		Msg("Scheduler started")
}

// Stop halts the loop and cancels in-flight probes, then waits for the loop
// to exit. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.cancel()
	doneCh := s.doneCh
	s.mu.Unlock()

	<-doneCh
	s.logger.Info().Msg("Scheduler stopped")
}

// IsRunning reports whether the loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status returns the loop state for the API.
func (s *Scheduler) Status() models.SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := models.SchedulerStatus{
		IsRunning:      s.running,
		ExecutionCount: s.executionCount,
	}
	if s.lastExecution != nil {
		t := *s.lastExecution
		status.LastExecutionTime = &t
	}
	return status
}

// run is the tick loop. The first tick fires immediately.
func (s *Scheduler) run(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	s.tick(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one due-check cycle. Overlapping ticks are skipped.
func (s *Scheduler) tick(ctx context.Context) {
	s.mu.Lock()
	if s.ticking {
		s.mu.Unlock()
		metrics.SchedulerTicksSkipped.Inc()
		s.logger.Warn().Msg("Previous tick still running, skipping")
		return
	}
	s.ticking = true
	now := time.Now()
	s.executionCount++
	s.lastExecution = &now
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.ticking = false
		s.mu.Unlock()
	}()

	started := time.Now()
	due := s.collectDue(started)
	defer func() {
		metrics.RecordTick(len(due), time.Since(started))
	}()

	if len(due) == 0 {
		s.logger.Debug().Msg("No monitors due")
		return
	}

	s.logger.Info().Int("due", len(due)).Msg("Probing due monitors")
	s.probeBatches(ctx, due)

	// Monitor status fields changed; cached config reads are stale.
	s.cache.ClearByPrefix(cache.PrefixMonitorConfigs)
}

// collectDue returns the enabled monitors whose interval has elapsed.
func (s *Scheduler) collectDue(now time.Time) []*models.MonitorConfig {
	configs, err := s.monitors.List()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list monitors")
		return nil
	}

	var due []*models.MonitorConfig
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		if !cfg.IsDue(now) {
			// Undue means LastCheckAt is set; log when the next run lands.
			s.logger.Debug().
				Str("monitor_id", cfg.ID).
				Time("next_execution", cfg.LastCheckAt.Add(time.Duration(cfg.IntervalMinutes)*time.Minute)).
				Msg("Monitor not due, skipped")
			continue
		}
		due = append(due, cfg)
	}
	return due
}

// probeBatches probes due monitors in groups of MaxConcurrent with a pause
// between groups. Cancellation stops both in-flight probes and later batches.
func (s *Scheduler) probeBatches(ctx context.Context, due []*models.MonitorConfig) {
	for start := 0; start < len(due); start += s.config.MaxConcurrent {
		if ctx.Err() != nil {
			return
		}

		end := start + s.config.MaxConcurrent
		if end > len(due) {
			end = len(due)
		}

		var wg sync.WaitGroup
		for _, monitor := range due[start:end] {
			wg.Add(1)
			go func(m *models.MonitorConfig) {
				defer wg.Done()
				s.probeOne(ctx, m)
			}(monitor)
		}
		wg.Wait()

		if end < len(due) && s.config.BatchPause > 0 {
			select {
			case <-time.After(s.config.BatchPause):
			case <-ctx.Done():
				return
			}
		}
	}
}

// probeOne runs a single probe and writes the outcome back onto the config.
// A cancelled probe's outcome is discarded.
func (s *Scheduler) probeOne(ctx context.Context, monitor *models.MonitorConfig) {
	checkedAt := time.Now().UTC()
	rec := s.executor.Execute(ctx, monitor)

	if ctx.Err() != nil {
		return
	}

	// Re-read before the write-back so concurrent API edits to the config
	// fields survive; only the status fields belong to the scheduler.
	current, err := s.monitors.Get(monitor.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error().Err(err).Str("monitor_id", monitor.ID).Msg("Failed to reload monitor for write-back")
		}
		return
	}

	current.LastCheckAt = &checkedAt
	current.Status = rec.Status
	current.LastError = rec.Error
	current.UpdatedAt = time.Now().UTC()

	if err := s.monitors.Put(current); err != nil {
		s.logger.Error().Err(err).Str("monitor_id", monitor.ID).Msg("Failed to write back probe outcome")
	}
}
