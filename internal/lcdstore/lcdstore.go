// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package lcdstore implements LcdStore: the local and global caches plus the
// per-participant GBID and awaitGlobalRegistration bookkeeping. The two
// caches are guarded by a single, non-re-entrant cache_lock; the bookkeeping
// lives in concurrent maps outside it.
package lcdstore

import (
	"slices"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/bmwcarit/joynr-sub005/internal/model"
	"github.com/bmwcarit/joynr-sub005/internal/store"
	"github.com/bmwcarit/joynr-sub005/internal/syncutil"
)

// LcdStore holds the local store, the global cache, and the per-participant
// bookkeeping the LCD core needs to reverse a registration. Every public
// LcdStore operation that touches the caches acquires cacheLock for that
// part of its work; the bookkeeping getters and setters do not. Callers must
// never call the GCD client or observer notifications while inside one of
// these methods.
type LcdStore struct {
	localAddress string

	cacheLock syncutil.RWMutex

	local  *store.Store[model.DiscoveryEntry]
	global *store.CachingStore

	// gbids and awaitGlobal are read far more often (by the freshness timer,
	// by remove) than written, and never need to be mutated atomically
	// alongside the two caches above, so they get their own lock-free maps
	// rather than sharing cacheLock.
	gbids       *xsync.MapOf[string, []string]
	awaitGlobal *xsync.MapOf[string, bool]
}

// New returns an empty LcdStore. localAddress is the routing address used to
// self-echo locally registered global entries into the global cache.
func New(localAddress string) *LcdStore {
	return &LcdStore{
		localAddress: localAddress,
		cacheLock:    syncutil.NewRWMutex(),
		local:        store.New[model.DiscoveryEntry](),
		global:       store.NewCachingStore(),
		gbids:        xsync.NewMapOf[string, []string](),
		awaitGlobal:  xsync.NewMapOf[string, bool](),
	}
}

// InsertLocal places entry in the local store; if its scope is GLOBAL it is
// also self-echoed into the global cache with address = localAddress. gbids
// is recorded for later removal.
func (s *LcdStore) InsertLocal(entry model.DiscoveryEntry, gbids []string, awaitGlobalRegistration bool) {
	s.cacheLock.Lock()
	s.local.Insert(entry)
	if entry.Qos.Scope == model.ScopeGlobal {
		s.global.Insert(model.GlobalDiscoveryEntry{DiscoveryEntry: entry, Address: s.localAddress})
	}
	s.cacheLock.Unlock()

	s.gbids.Store(entry.ParticipantID, slices.Clone(gbids))
	s.awaitGlobal.Store(entry.ParticipantID, awaitGlobalRegistration)
	s.reportSizes()
}

// InsertGlobal places entry in the global cache only, used for entries
// learned from the GCD rather than registered locally.
func (s *LcdStore) InsertGlobal(entry model.GlobalDiscoveryEntry) {
	s.cacheLock.Lock()
	s.global.Insert(entry)
	s.cacheLock.Unlock()
	s.reportSizes()
}

// Remove drops participantId from every cache and bookkeeping map, returning
// the removed local entry, if one existed.
func (s *LcdStore) Remove(participantID string) (model.DiscoveryEntry, bool) {
	s.cacheLock.Lock()
	local, ok := s.local.RemoveByParticipantID(participantID)
	s.global.RemoveByParticipantID(participantID)
	s.cacheLock.Unlock()

	s.gbids.Delete(participantID)
	s.awaitGlobal.Delete(participantID)
	s.reportSizes()
	return local, ok
}

// GbidsFor returns the GBID set recorded at registration time for
// participantID, in the order first used.
func (s *LcdStore) GbidsFor(participantID string) []string {
	gbids, _ := s.gbids.Load(participantID)
	return gbids
}

// SetGbidsFor overwrites the recorded GBID set for participantID. The add
// path does not use it: a re-add that widens the set (registering with {G1}
// then {G2} gives {G1,G2}) records the union through InsertLocal.
func (s *LcdStore) SetGbidsFor(participantID string, gbids []string) {
	s.gbids.Store(participantID, slices.Clone(gbids))
}

// AwaitGlobalFor returns whether participantID was registered with
// awaitGlobalRegistration=true.
func (s *LcdStore) AwaitGlobalFor(participantID string) bool {
	v, _ := s.awaitGlobal.Load(participantID)
	return v
}

// LookupLocalByParticipantID returns the local entry for participantID, if
// any, ignoring expiry.
func (s *LcdStore) LookupLocalByParticipantID(participantID string) (model.DiscoveryEntry, bool) {
	s.cacheLock.RLock()
	defer s.cacheLock.RUnlock()
	return s.local.LookupByParticipantID(participantID)
}

// LookupLocalByKey returns every local entry under key, in insertion order.
func (s *LcdStore) LookupLocalByKey(key model.Key) []model.DiscoveryEntry {
	s.cacheLock.RLock()
	defer s.cacheLock.RUnlock()
	return s.local.LookupByKey(key)
}

// LookupGlobalByParticipantID returns the cached global entry for
// participantID if it exists and is within maxAgeMs of nowMs.
func (s *LcdStore) LookupGlobalByParticipantID(participantID string, nowMs, maxAgeMs int64) (model.GlobalDiscoveryEntry, bool) {
	s.cacheLock.RLock()
	defer s.cacheLock.RUnlock()
	return s.global.LookupByParticipantID(participantID, nowMs, maxAgeMs)
}

// LookupGlobalByKey returns every cached global entry under key that is
// within maxAgeMs of nowMs, in insertion order.
func (s *LcdStore) LookupGlobalByKey(key model.Key, nowMs, maxAgeMs int64) []model.GlobalDiscoveryEntry {
	s.cacheLock.RLock()
	defer s.cacheLock.RUnlock()
	return s.global.LookupByKey(key, nowMs, maxAgeMs)
}

// LocalEntries returns every local entry, in insertion order.
func (s *LcdStore) LocalEntries() []model.DiscoveryEntry {
	s.cacheLock.RLock()
	defer s.cacheLock.RUnlock()
	return s.local.Iter()
}

// GlobalEntries returns every cached global entry, in insertion order,
// ignoring age.
func (s *LcdStore) GlobalEntries() []model.GlobalDiscoveryEntry {
	s.cacheLock.RLock()
	defer s.cacheLock.RUnlock()
	return s.global.Iter()
}

// RemoveExpired sweeps both caches for entries whose expiry has passed as of
// nowMs and returns what was removed from each.
func (s *LcdStore) RemoveExpired(nowMs int64) (local []model.DiscoveryEntry, global []model.GlobalDiscoveryEntry) {
	s.cacheLock.Lock()
	local = s.local.RemoveExpired(nowMs)
	global = s.global.RemoveExpired(nowMs)
	s.cacheLock.Unlock()

	for _, e := range local {
		s.gbids.Delete(e.ParticipantID)
		s.awaitGlobal.Delete(e.ParticipantID)
	}
	if len(local) > 0 || len(global) > 0 {
		s.reportSizes()
	}
	return local, global
}

// Clear empties both caches and all bookkeeping.
func (s *LcdStore) Clear() {
	s.cacheLock.Lock()
	s.local.Clear()
	s.global.Clear()
	s.cacheLock.Unlock()

	s.gbids.Range(func(k string, _ []string) bool {
		s.gbids.Delete(k)
		return true
	})
	s.awaitGlobal.Range(func(k string, _ bool) bool {
		s.awaitGlobal.Delete(k)
		return true
	})
}

// LoadPersisted reloads the local store (and, for globally scoped entries,
// seeds the global cache mirroring the runtime self-echo behavior) from a
// previously persisted snapshot. Used at startup.
func (s *LcdStore) LoadPersisted(entries []model.DiscoveryEntry, gbidsByParticipant map[string][]string) {
	s.cacheLock.Lock()
	s.local.LoadAll(entries)
	for _, e := range entries {
		if e.Qos.Scope == model.ScopeGlobal {
			s.global.Insert(model.GlobalDiscoveryEntry{DiscoveryEntry: e, Address: s.localAddress})
		}
	}
	s.cacheLock.Unlock()

	for _, e := range entries {
		gbids := gbidsByParticipant[e.ParticipantID]
		s.gbids.Store(e.ParticipantID, slices.Clone(gbids))
		s.awaitGlobal.Store(e.ParticipantID, true)
	}
}
