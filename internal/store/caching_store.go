// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import "github.com/bmwcarit/joynr-sub005/internal/model"

// CachingStore is the global-discovery cache: a Store of
// model.GlobalDiscoveryEntry with an additional max-age filter on reads.
type CachingStore struct {
	s *Store[model.GlobalDiscoveryEntry]
}

// NewCachingStore returns an empty CachingStore.
func NewCachingStore() *CachingStore {
	return &CachingStore{s: New[model.GlobalDiscoveryEntry]()}
}

func (c *CachingStore) Insert(e model.GlobalDiscoveryEntry) { c.s.Insert(e) }

func (c *CachingStore) RemoveByParticipantID(id string) (model.GlobalDiscoveryEntry, bool) {
	return c.s.RemoveByParticipantID(id)
}

// LookupByParticipantID returns the cached entry for id if it exists and is
// within maxAgeMs of nowMs. model.NoAgeFilter (-1) disables the age check.
func (c *CachingStore) LookupByParticipantID(id string, nowMs, maxAgeMs int64) (model.GlobalDiscoveryEntry, bool) {
	e, ok := c.s.LookupByParticipantID(id)
	if !ok || !withinAge(e, nowMs, maxAgeMs) {
		return model.GlobalDiscoveryEntry{}, false
	}
	return e, true
}

// LookupByKey returns every cached entry under key that is within maxAgeMs
// of nowMs, in insertion order.
func (c *CachingStore) LookupByKey(key model.Key, nowMs, maxAgeMs int64) []model.GlobalDiscoveryEntry {
	all := c.s.LookupByKey(key)
	out := make([]model.GlobalDiscoveryEntry, 0, len(all))
	for _, e := range all {
		if withinAge(e, nowMs, maxAgeMs) {
			out = append(out, e)
		}
	}
	return out
}

func (c *CachingStore) RemoveExpired(nowMs int64) []model.GlobalDiscoveryEntry {
	return c.s.RemoveExpired(nowMs)
}

func (c *CachingStore) Iter() []model.GlobalDiscoveryEntry { return c.s.Iter() }

func (c *CachingStore) Len() int { return c.s.Len() }

func (c *CachingStore) Clear() { c.s.Clear() }

func withinAge(e model.GlobalDiscoveryEntry, nowMs, maxAgeMs int64) bool {
	if maxAgeMs == model.NoAgeFilter {
		return true
	}
	return nowMs-e.LastSeen() <= maxAgeMs
}
