// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package pending implements the pending-lookups table: a per-(domain,
// interface) queue of callbacks parked by a LOCAL_THEN_GLOBAL lookup that
// found no local match yet. It is always locked strictly before cache_lock.
package pending

import (
	"sync"
	"sync/atomic"

	"github.com/bmwcarit/joynr-sub005/internal/model"
)

// Callback is woken exactly once, either by a matching local add or by the
// in-flight GCD reply, whichever comes first.
type Callback func(entries []model.DiscoveryEntryWithMetaInfo)

// handle is the owned entry stored in the table; calledOnce enforces the
// at-most-once firing guarantee race-free across the two wake paths.
type handle struct {
	key        model.Key
	fn         Callback
	calledOnce atomic.Bool
}

// Table is the pending_lookups_lock-protected map.
type Table struct {
	mu    sync.Mutex
	byKey map[model.Key][]*handle
}

// New returns an empty pending-lookups table.
func New() *Table {
	return &Table{byKey: make(map[model.Key][]*handle)}
}

// Ticket lets the registering call site later evict its own callback after
// an independent path (the GCD reply) has raced it.
type Ticket struct {
	t *Table
	h *handle
}

// Register parks fn under key and returns a ticket that can fire or cancel
// it exactly once.
func (t *Table) Register(key model.Key, fn Callback) *Ticket {
	h := &handle{key: key, fn: fn}
	t.mu.Lock()
	t.byKey[key] = append(t.byKey[key], h)
	t.mu.Unlock()
	return &Ticket{t: t, h: h}
}

// FireIfFirst calls the ticket's callback with entries and removes it from
// the table, unless some other path has already claimed it (by FireIfFirst
// or Cancel on the same ticket, or by Drain on its key). Returns whether
// this call was the one that fired it.
func (tk *Ticket) FireIfFirst(entries []model.DiscoveryEntryWithMetaInfo) bool {
	if !tk.h.calledOnce.CompareAndSwap(false, true) {
		return false
	}
	tk.t.remove(tk.h)
	tk.h.fn(entries)
	return true
}

// Cancel removes the ticket without firing it, if it has not already fired.
func (tk *Ticket) Cancel() {
	if tk.h.calledOnce.CompareAndSwap(false, true) {
		tk.t.remove(tk.h)
	}
}

func (t *Table) remove(h *handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	list := t.byKey[h.key]
	for i, v := range list {
		if v == h {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(t.byKey, h.key)
	} else {
		t.byKey[h.key] = list
	}
}

// Drain removes and returns every live handle registered under key, in
// insertion order, claiming each one so a racing GCD reply cannot also fire
// it. Call CallPendingLookups to both drain and invoke them.
func (t *Table) Drain(key model.Key) []*handle {
	t.mu.Lock()
	list := t.byKey[key]
	delete(t.byKey, key)
	t.mu.Unlock()

	out := make([]*handle, 0, len(list))
	for _, h := range list {
		if h.calledOnce.CompareAndSwap(false, true) {
			out = append(out, h)
		}
	}
	return out
}

// CallPendingLookups drains every callback registered under key and invokes
// each with entries, in insertion order. Invoked by a successful local add
// that matches a parked lookup.
func (t *Table) CallPendingLookups(key model.Key, entries []model.DiscoveryEntryWithMetaInfo) {
	for _, h := range t.Drain(key) {
		h.fn(entries)
	}
}
