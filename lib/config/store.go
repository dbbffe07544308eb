// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store owns the process-wide Config and the file path it was loaded
// from. Admin commands run one at a time on the event loop, each
// completing its full read-modify-save sequence before the next
// begins, so event-loop code needs no locking among itself. The
// status socket reads the configuration from its own goroutines,
// though: those readers hold RLock, and every mutating command path
// holds Lock for its whole read-modify-save sequence.
type Store struct {
	path string

	// mu guards config against readers outside the event loop.
	mu     sync.RWMutex
	config *Config
}

// NewStore wraps an existing Config with a persistence path. Used by
// tests; production code obtains Stores from Load or LoadFile.
func NewStore(path string, cfg *Config) *Store {
	return &Store{path: path, config: cfg}
}

// Config returns the owned configuration. Callers mutate it in memory
// then call Save.
func (s *Store) Config() *Config {
	return s.config
}

// Path returns the configuration file path.
func (s *Store) Path() string {
	return s.path
}

// Lock takes the write lock. Mutating command paths hold it from
// first config read through Save so concurrent RLock readers never
// observe a half-applied change.
func (s *Store) Lock() { s.mu.Lock() }

// Unlock releases the write lock.
func (s *Store) Unlock() { s.mu.Unlock() }

// RLock takes the read lock. For config readers running outside the
// event loop, such as the status socket. Copy anything that must
// outlive the critical section; the slices themselves are mutated in
// place under Lock.
func (s *Store) RLock() { s.mu.RLock() }

// RUnlock releases the read lock.
func (s *Store) RUnlock() { s.mu.RUnlock() }

// Save durably persists the current in-memory configuration. The
// write is atomic: a temp file in the same directory is renamed over
// the target, so a crash mid-save never leaves a truncated config.
// Failures produce a *SaveError; the in-memory mutation is kept.
func (s *Store) Save() error {
	data, err := yaml.Marshal(s.config)
	if err != nil {
		return &SaveError{Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".codebot-config-*")
	if err != nil {
		return &SaveError{Path: s.path, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &SaveError{Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &SaveError{Path: s.path, Err: err}
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return &SaveError{Path: s.path, Err: fmt.Errorf("renaming %s: %w", tmpPath, err)}
	}
	return nil
}
