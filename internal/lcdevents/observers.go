// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package lcdevents carries provider-registration notifications out of the
// LCD's cache lock. Callers must never invoke observers while holding
// cache_lock or pending_lookups_lock; this package's Registry exists to be
// drained strictly after both locks are released.
package lcdevents

import (
	"sync"

	"github.com/bmwcarit/joynr-sub005/internal/model"
)

// Observer receives provider registration lifecycle notifications.
type Observer interface {
	OnProviderAdd(entry model.DiscoveryEntry)
	OnProviderRemove(entry model.DiscoveryEntry)
}

// ObserverFuncs adapts two plain functions to the Observer interface.
type ObserverFuncs struct {
	Add    func(model.DiscoveryEntry)
	Remove func(model.DiscoveryEntry)
}

func (f ObserverFuncs) OnProviderAdd(e model.DiscoveryEntry) {
	if f.Add != nil {
		f.Add(e)
	}
}

func (f ObserverFuncs) OnProviderRemove(e model.DiscoveryEntry) {
	if f.Remove != nil {
		f.Remove(e)
	}
}

// Registry holds the set of registered observers, adapted from
// internal/events's subscription-by-id bookkeeping (Logger.Subscribe /
// Unsubscribe).
type Registry struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]Observer
}

func NewRegistry() *Registry {
	return &Registry{subs: make(map[int]Observer)}
}

// Add registers o and returns a function that removes it.
func (r *Registry) Add(o Observer) (unregister func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = o
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

func (r *Registry) snapshot() []Observer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Observer, 0, len(r.subs))
	for _, o := range r.subs {
		out = append(out, o)
	}
	return out
}

// NotifyAdd fans OnProviderAdd out to every registered observer. Must be
// called with no LCD lock held.
func (r *Registry) NotifyAdd(entry model.DiscoveryEntry) {
	for _, o := range r.snapshot() {
		o.OnProviderAdd(entry)
	}
}

// NotifyRemove fans OnProviderRemove out to every registered observer. Must
// be called with no LCD lock held.
func (r *Registry) NotifyRemove(entry model.DiscoveryEntry) {
	for _, o := range r.snapshot() {
		o.OnProviderRemove(entry)
	}
}
