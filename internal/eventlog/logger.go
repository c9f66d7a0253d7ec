// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package eventlog

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/metrics"
)

// Config holds logger configuration.
type Config struct {
	// BufferSize is the async write buffer capacity. Entries beyond it are
	// dropped rather than blocking the caller.
	BufferSize int

	// RetentionDays is how long entries are kept; enforced by the
	// maintenance job through DeleteOlderThan.
	RetentionDays int
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		BufferSize:    1000,
		RetentionDays: 7,
	}
}

// Logger is the async system log writer. Entries are buffered and persisted
// by a background goroutine; Log never blocks and never fails the caller.
type Logger struct {
	store     Store
	entryChan chan *Entry
	stopChan  chan struct{}
	wg        sync.WaitGroup

	dropped int64

	// dropLimiter throttles the buffer-full warning so a flood of drops
	// does not itself flood the process log.
	dropLimiter *rate.Limiter
}

// NewLogger creates a logger and starts its async writer.
func NewLogger(store Store, cfg Config) *Logger {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}

	l := &Logger{
		store:       store,
		entryChan:   make(chan *Entry, cfg.BufferSize),
		stopChan:    make(chan struct{}),
		dropLimiter: rate.NewLimiter(rate.Every(10*time.Second), 1),
	}

	l.wg.Add(1)
	go l.asyncWriter()

	return l
}

// asyncWriter persists buffered entries until Close, then drains the buffer.
func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			for {
				select {
				case entry := <-l.entryChan:
					l.writeEntry(entry)
				default:
					return
				}
			}
		case entry := <-l.entryChan:
			l.writeEntry(entry)
		}
	}
}

func (l *Logger) writeEntry(entry *Entry) {
	if err := l.store.Save(entry); err != nil {
		logging.Error().Err(err).Str("entry_id", entry.ID).Msg("Failed to save system log entry")
		return
	}
	metrics.SystemLogWrites.Inc()
}

// Log records an entry. Missing ID and timestamp are filled in. When the
// buffer is full the entry is dropped and counted.
func (l *Logger) Log(entry *Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if !ValidLevel(entry.Level) {
		entry.Level = LevelInfo
	}

	select {
	case l.entryChan <- entry:
	default:
		atomic.AddInt64(&l.dropped, 1)
		metrics.SystemLogDrops.Inc()
		if l.dropLimiter.Allow() {
			logging.Warn().
				Int64("dropped_total", atomic.LoadInt64(&l.dropped)).
				Msg("System log buffer full, dropping entries")
		}
	}
}

// Info records an info-level entry for a monitor. monitorID and monitorName
// may be empty for system-wide events.
func (l *Logger) Info(message, monitorID, monitorName string) {
	l.Log(&Entry{Level: LevelInfo, Message: message, MonitorID: monitorID, MonitorName: monitorName})
}

// Warn records a warn-level entry.
func (l *Logger) Warn(message, monitorID, monitorName string) {
	l.Log(&Entry{Level: LevelWarn, Message: message, MonitorID: monitorID, MonitorName: monitorName})
}

// Error records an error-level entry.
func (l *Logger) Error(message, monitorID, monitorName string) {
	l.Log(&Entry{Level: LevelError, Message: message, MonitorID: monitorID, MonitorName: monitorName})
}

// InfoMeta records an info-level entry with structured metadata.
func (l *Logger) InfoMeta(message, monitorID, monitorName string, meta map[string]interface{}) {
	l.Log(&Entry{
		Level:       LevelInfo,
		Message:     message,
		MonitorID:   monitorID,
		MonitorName: monitorName,
		Metadata:    mustJSON(meta),
	})
}

// ErrorMeta records an error-level entry with structured metadata.
func (l *Logger) ErrorMeta(message, monitorID, monitorName string, meta map[string]interface{}) {
	l.Log(&Entry{
		Level:       LevelError,
		Message:     message,
		MonitorID:   monitorID,
		MonitorName: monitorName,
		Metadata:    mustJSON(meta),
	})
}

// Query delegates to the store.
func (l *Logger) Query(filter Filter) ([]*Entry, int, error) {
	return l.store.Query(filter)
}

// Dropped returns the number of entries dropped since start.
func (l *Logger) Dropped() int64 {
	return atomic.LoadInt64(&l.dropped)
}

// Close drains the buffer and stops the writer.
func (l *Logger) Close() error {
	close(l.stopChan)
	l.wg.Wait()
	return nil
}
