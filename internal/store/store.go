// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package store persists all Specula state in an embedded BadgerDB keyspace.
//
// Keys are flat strings built from the tuples in keys.go; lexicographic key
// order is the only ordering the store relies on. Values are JSON. Typed
// entity stores (Monitors, History, Sessions, Attempts) wrap the generic
// DB operations; the eventlog package builds its own store on the same DB.
package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/specula/internal/logging"
)

// ErrNotFound is returned by point lookups for missing keys.
var ErrNotFound = errors.New("store: key not found")

// deleteChunkSize bounds the number of deletes per transaction so large
// sweeps stay under badger's transaction size limit.
const deleteChunkSize = 1000

// Options configures the embedded database.
type Options struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path string

	// SyncWrites fsyncs every write. Slower, survives power loss.
	SyncWrites bool

	// InMemory runs without disk persistence. Tests only.
	InMemory bool
}

// DB wraps the badger handle with JSON helpers and prefix scans.
// All methods are safe for concurrent use.
type DB struct {
	db *badger.DB
}

// Open opens (or creates) the database.
func Open(opts Options) (*DB, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts.SyncWrites = opts.SyncWrites

	// Badger's own logger is noisy; process logs go through internal/logging.
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	logging.Info().
		Str("path", opts.Path).
		Bool("sync_writes", opts.SyncWrites).
		Bool("in_memory", opts.InMemory).
		Msg("Store opened")

	return &DB{db: db}, nil
}

// Close flushes and closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// GetJSON reads the value at key into out. Returns ErrNotFound for missing
// keys.
func (d *DB) GetJSON(key string, out interface{}) error {
	return d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
}

// SetJSON marshals v and writes it at key, inserting or overwriting.
func (d *DB) SetJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// Delete removes key. Deleting a missing key succeeds.
func (d *DB) Delete(key string) error {
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Has reports whether key exists.
func (d *DB) Has(key string) (bool, error) {
	err := d.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has %s: %w", key, err)
	}
	return true, nil
}

// ScanPrefix iterates all keys under prefix in ascending key order.
// An error from fn stops the scan and is returned.
func (d *DB) ScanPrefix(prefix string, fn func(key string, val []byte) error) error {
	return d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(val []byte) error {
				return fn(key, val)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ScanPrefixReverse iterates keys under prefix in descending key order.
// fn returns false to stop the scan early; an error stops it and is returned.
func (d *DB) ScanPrefixReverse(prefix string, fn func(key string, val []byte) (bool, error)) error {
	return d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)

		// Keys are ASCII, so prefix+0xFF sorts after every key under prefix.
		seek := append(append([]byte{}, p...), 0xFF)

		for it.Seek(seek); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			key := string(item.Key())

			var keep bool
			err := item.Value(func(val []byte) error {
				k, err := fn(key, val)
				keep = k
				return err
			})
			if err != nil {
				return err
			}
			if !keep {
				return nil
			}
		}
		return nil
	})
}

// CountPrefix returns the number of keys under prefix.
func (d *DB) CountPrefix(prefix string) (int, error) {
	count := 0
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// DeleteKeys removes the given keys in chunked transactions and returns the
// number deleted.
func (d *DB) DeleteKeys(keys []string) (int, error) {
	deleted := 0
	for start := 0; start < len(keys); start += deleteChunkSize {
		end := start + deleteChunkSize
		if end > len(keys) {
			end = len(keys)
		}

		err := d.db.Update(func(txn *badger.Txn) error {
			for _, k := range keys[start:end] {
				if err := txn.Delete([]byte(k)); err != nil {
					return fmt.Errorf("delete %s: %w", k, err)
				}
			}
			return nil
		})
		if err != nil {
			return deleted, err
		}
		deleted += end - start
	}
	return deleted, nil
}

// DeletePrefix removes every key under prefix and returns the count removed.
// The scan and the deletes are separate transactions; readers tolerate
// partially deleted ranges.
func (d *DB) DeletePrefix(prefix string) (int, error) {
	var keys []string
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", prefix, err)
	}

	return d.DeleteKeys(keys)
}

// RunGC triggers badger value-log garbage collection until no further
// rewrite is possible. Called periodically by maintenance.
func (d *DB) RunGC() error {
	for {
		err := d.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Size returns LSM and value-log sizes in bytes.
func (d *DB) Size() (lsm, vlog int64) {
	return d.db.Size()
}
