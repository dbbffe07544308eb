// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

package project

import "sync"

// Locks serializes submissions per project. Two submissions routed to
// the same project share an upload directory; interleaving their
// clear/download/check steps corrupts each other's staged input. The
// pipeline holds the project's lock from staging through the syntax
// check. Submissions for different projects proceed independently.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocks returns an empty lock table.
func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*sync.Mutex)}
}

// For returns the mutex for the named project, creating it on first
// use. The returned mutex is shared by all callers with the same name.
func (l *Locks) For(projectName string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[projectName]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[projectName] = lock
	}
	return lock
}
