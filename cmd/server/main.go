// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Command server runs the Specula monitoring daemon: the probe scheduler,
// maintenance sweeps, and the JSON API, supervised under one tree.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/specula/internal/api"
	"github.com/tomtom215/specula/internal/auth"
	"github.com/tomtom215/specula/internal/cache"
	"github.com/tomtom215/specula/internal/config"
	"github.com/tomtom215/specula/internal/eventlog"
	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/maintenance"
	"github.com/tomtom215/specula/internal/probe"
	"github.com/tomtom215/specula/internal/scheduler"
	"github.com/tomtom215/specula/internal/stats"
	"github.com/tomtom215/specula/internal/store"
	"github.com/tomtom215/specula/internal/supervisor"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("Configuration invalid")
		return 1
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("addr", cfg.Server.Addr()).
		Msg("Specula starting")

	if cfg.UsingDefaultPassword() {
		logging.Warn().Msg("ADMIN_PASSWORD is the shipped default; set it before exposing this instance")
	}

	db, err := store.Open(store.Options{
		Path:       cfg.Database.Path,
		SyncWrites: cfg.Database.SyncWrites,
		InMemory:   cfg.Database.InMemory,
	})
	if err != nil {
		logging.Error().Err(err).Str("path", cfg.Database.Path).Msg("Failed to open database")
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close database")
		}
	}()

	// Stores over the shared KV.
	monitors := store.NewMonitors(db)
	history := store.NewHistory(db)
	sessions := store.NewSessions(db)
	attempts := store.NewAttempts(db)

	c := cache.New(cfg.Cache.CleanupInterval)

	logStore := eventlog.NewBadgerStore(db)
	eventLog := eventlog.NewLogger(logStore, eventlog.DefaultConfig())
	defer eventLog.Close()

	authManager, err := auth.NewManager(sessions, attempts, cfg.Auth)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize auth")
		return 1
	}

	executor := probe.NewExecutor(history, eventLog, probe.Config{
		Timeout:      cfg.Probe.Timeout(),
		MaxRetries:   cfg.Probe.MaxRetries,
		RetryBackoff: cfg.Probe.RetryBackoff(),
	})

	sched := scheduler.New(monitors, executor, c, scheduler.Config{
		TickInterval:  cfg.Scheduler.Tick(),
		MaxConcurrent: cfg.Scheduler.MaxConcurrent,
		BatchPause:    cfg.Scheduler.BatchPause(),
	})

	maintJob := maintenance.New(db, sessions, history, attempts, logStore, maintenance.Config{
		Interval:         cfg.Maintenance.Interval,
		HistoryRetention: cfg.Monitor.HistoryRetention(),
		LogRetention:     maintenance.DefaultConfig().LogRetention,
	})

	engine := stats.NewEngine(monitors, history, c)
	server := api.NewServer(cfg, authManager, monitors, history, engine, c, sched, eventLog, version)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	tree := supervisor.NewTree(supervisor.DefaultTreeConfig())
	tree.AddJob(supervisor.NewSchedulerService(sched))
	tree.AddJob(maintJob)
	tree.AddJob(supervisor.NewCacheSweeperService(c))
	tree.AddAPIService(supervisor.NewHTTPServerService(httpServer, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eventLog.Info("服务启动", "", "")

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree failed")
		return 1
	}

	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	eventLog.Info("服务停止", "", "")
	logging.Info().Msg("Specula stopped")
	return 0
}
