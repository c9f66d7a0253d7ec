// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package store

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/models"
)

// Monitors persists MonitorConfig entities.
type Monitors struct {
	db *DB
}

// NewMonitors creates a monitor store on db.
func NewMonitors(db *DB) *Monitors {
	return &Monitors{db: db}
}

// Put writes cfg under its ID, inserting or overwriting.
func (s *Monitors) Put(cfg *models.MonitorConfig) error {
	return s.db.SetJSON(monitorKey(cfg.ID), cfg)
}

// Get returns the config with the given ID, or ErrNotFound.
func (s *Monitors) Get(id string) (*models.MonitorConfig, error) {
	var cfg models.MonitorConfig
	if err := s.db.GetJSON(monitorKey(id), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Exists reports whether a config with the given ID is persisted.
func (s *Monitors) Exists(id string) (bool, error) {
	return s.db.Has(monitorKey(id))
}

// List returns every config in ascending ID order.
func (s *Monitors) List() ([]*models.MonitorConfig, error) {
	var configs []*models.MonitorConfig
	err := s.db.ScanPrefix(prefixMonitors, func(key string, val []byte) error {
		var cfg models.MonitorConfig
		if err := json.Unmarshal(val, &cfg); err != nil {
			return fmt.Errorf("unmarshal %s: %w", key, err)
		}
		configs = append(configs, &cfg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return configs, nil
}

// Delete removes the config and cascades over its history range. Deleting a
// missing config succeeds; the cascade is best-effort since readers tolerate
// orphan history records.
func (s *Monitors) Delete(id string) error {
	if err := s.db.Delete(monitorKey(id)); err != nil {
		return err
	}

	removed, err := s.db.DeletePrefix(historyPrefix(id))
	if err != nil {
		logging.Warn().Err(err).Str("monitor_id", id).Msg("History cascade delete incomplete")
		return nil
	}
	if removed > 0 {
		logging.Debug().Str("monitor_id", id).Int("records", removed).Msg("History cascade deleted")
	}
	return nil
}

// Count returns the number of persisted configs.
func (s *Monitors) Count() (int, error) {
	return s.db.CountPrefix(prefixMonitors)
}
