// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package syncutil provides the mutex types the LCD uses for its two
// serialization points, cache_lock and pending_lookups_lock. Plain
// sync.Mutex/sync.RWMutex satisfy the Mutex/RWMutex interfaces directly; the
// logged variants additionally record how long a lock was held, for
// diagnosing contention between the RPC-facing add/remove/lookup entrypoints
// and the background timers.
package syncutil

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// LogThreshold is the hold duration above which a lock acquisition is
// logged. Zero disables logging.
var LogThreshold = 100 * time.Millisecond

type Mutex interface {
	Lock()
	Unlock()
}

type RWMutex interface {
	Mutex
	RLock()
	RUnlock()
}

// NewMutex returns a Mutex that logs acquisitions held longer than
// LogThreshold.
func NewMutex() Mutex {
	return &loggedMutex{}
}

// NewRWMutex returns an RWMutex that logs acquisitions held longer than
// LogThreshold.
func NewRWMutex() RWMutex {
	return &loggedRWMutex{}
}

type loggedMutex struct {
	sync.Mutex
	start    time.Time
	lockedAt string
}

func (m *loggedMutex) Lock() {
	m.Mutex.Lock()
	m.start = time.Now()
	m.lockedAt = caller()
}

func (m *loggedMutex) Unlock() {
	if d := time.Since(m.start); LogThreshold > 0 && d >= LogThreshold {
		slog.Debug("mutex held", "duration", d, "locked_at", m.lockedAt, "unlocked_at", caller())
	}
	m.Mutex.Unlock()
}

type loggedRWMutex struct {
	sync.RWMutex
	start    time.Time
	lockedAt string
}

func (m *loggedRWMutex) Lock() {
	t0 := time.Now()
	m.RWMutex.Lock()
	m.start = time.Now()
	m.lockedAt = caller()
	if d := m.start.Sub(t0); LogThreshold > 0 && d >= LogThreshold {
		slog.Debug("rwmutex wait", "wait", d, "locked_at", m.lockedAt)
	}
}

func (m *loggedRWMutex) Unlock() {
	if d := time.Since(m.start); LogThreshold > 0 && d >= LogThreshold {
		slog.Debug("rwmutex held", "duration", d, "locked_at", m.lockedAt, "unlocked_at", caller())
	}
	m.RWMutex.Unlock()
}

func caller() string {
	_, file, line, _ := runtime.Caller(2)
	file = filepath.Join(filepath.Base(filepath.Dir(file)), filepath.Base(file))
	return fmt.Sprintf("%s:%d", file, line)
}
