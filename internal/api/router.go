// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package api implements the JSON HTTP surface: session auth, monitor CRUD,
// history and stats reads, and the system endpoints. Every /api response is
// wrapped in the models.APIResponse envelope.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/specula/internal/auth"
	"github.com/tomtom215/specula/internal/cache"
	"github.com/tomtom215/specula/internal/config"
	"github.com/tomtom215/specula/internal/eventlog"
	"github.com/tomtom215/specula/internal/scheduler"
	"github.com/tomtom215/specula/internal/stats"
	"github.com/tomtom215/specula/internal/store"
)

// Server bundles the handler dependencies behind one router.
type Server struct {
	config    *config.Config
	auth      *auth.Manager
	monitors  *store.Monitors
	history   *store.History
	stats     *stats.Engine
	cache     *cache.Cache
	scheduler *scheduler.Scheduler
	eventLog  *eventlog.Logger

	version   string
	startedAt time.Time
}

// NewServer creates the API server.
func NewServer(
	cfg *config.Config,
	authManager *auth.Manager,
	monitors *store.Monitors,
	history *store.History,
	statsEngine *stats.Engine,
	c *cache.Cache,
	sched *scheduler.Scheduler,
	eventLog *eventlog.Logger,
	version string,
) *Server {
	return &Server{
		config:    cfg,
		auth:      authManager,
		monitors:  monitors,
		history:   history,
		stats:     statsEngine,
		cache:     c,
		scheduler: sched,
		eventLog:  eventLog,
		version:   version,
		startedAt: time.Now(),
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(recoverer)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  func(r *http.Request, origin string) bool { return true },
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Origin"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(metricsMiddleware)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Login carries its own tighter limit. It has no session yet but
		// still passes the same-origin guard.
		r.Group(func(r chi.Router) {
			r.Use(loginRateLimiter())
			r.Use(sameOriginCheck)
			r.Post("/login", s.handleLogin)
		})

		// Health and auth probes are polled by dashboards.
		r.Group(func(r chi.Router) {
			r.Use(healthRateLimiter())
			r.Get("/system/health", s.handleSystemHealth)
			r.Get("/auth/check", s.handleAuthCheck)
		})

		// Everything else requires a session.
		r.Group(func(r chi.Router) {
			r.Use(apiRateLimiter())
			r.Use(s.requireAuth)
			r.Use(sameOriginCheck)

			r.Post("/logout", s.handleLogout)

			r.Route("/monitors", func(r chi.Router) {
				r.Get("/", s.handleMonitorList)
				r.Post("/", s.handleMonitorCreate)
				r.Get("/status", s.handleMonitorStatuses)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleMonitorGet)
					r.Put("/", s.handleMonitorUpdate)
					r.Delete("/", s.handleMonitorDelete)
					r.Get("/history", s.handleMonitorHistory)
					r.Get("/stats", s.handleMonitorStats)
				})
			})

			r.Get("/stats", s.handleStatsAll)
			r.Get("/stats/overview", s.handleStatsOverview)

			r.Route("/system", func(r chi.Router) {
				r.Get("/info", s.handleSystemInfo)
				r.Get("/cache", s.handleCacheInfo)
				r.Post("/cache/clear", s.handleCacheClear)
				r.Get("/scheduler", s.handleSchedulerStatus)
				r.Get("/logs", s.handleSystemLogs)
			})
		})
	})

	return r
}
