// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/specula/internal/cache"
	"github.com/tomtom215/specula/internal/scheduler"
)

// HTTPServer matches *http.Server's lifecycle surface, kept as an interface
// so tests can substitute a mock.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService adapts the blocking ListenAndServe pattern to suture's
// context-aware Serve.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPServerService wraps server as a supervised service.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve runs the server until ctx ends, then shuts it down gracefully.
// http.ErrServerClosed is the expected shutdown outcome, not a failure.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		// The serve context is already cancelled; shutdown needs its own.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (h *HTTPServerService) String() string { return "http-server" }

// SchedulerService adapts the scheduler's Start/Stop lifecycle to a
// supervised Serve.
type SchedulerService struct {
	scheduler *scheduler.Scheduler
}

// NewSchedulerService wraps sched as a supervised service.
func NewSchedulerService(sched *scheduler.Scheduler) *SchedulerService {
	return &SchedulerService{scheduler: sched}
}

// Serve starts the probe loop and blocks until ctx ends, then stops it and
// waits for in-flight probes to be cancelled.
func (s *SchedulerService) Serve(ctx context.Context) error {
	s.scheduler.Start()
	<-ctx.Done()
	s.scheduler.Stop()
	return ctx.Err()
}

func (s *SchedulerService) String() string { return "scheduler" }

// CacheSweeperService runs the cache's expiry sweeper as a supervised
// service.
type CacheSweeperService struct {
	cache *cache.Cache
}

// NewCacheSweeperService wraps c's sweeper as a supervised service.
func NewCacheSweeperService(c *cache.Cache) *CacheSweeperService {
	return &CacheSweeperService{cache: c}
}

// Serve runs the sweeper until ctx ends.
func (s *CacheSweeperService) Serve(ctx context.Context) error {
	s.cache.StartSweeper(ctx)
	return ctx.Err()
}

func (s *CacheSweeperService) String() string { return "cache-sweeper" }
