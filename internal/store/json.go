// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import "github.com/bmwcarit/joynr-sub005/internal/model"

// Snapshot returns every entry in insertion order, suitable for JSON
// persistence. The round trip law: LoadAll(s.Snapshot()) reconstructs an
// equal store.
func (s *Store[T]) Snapshot() []T { return s.Iter() }

// LoadAll replaces the store's contents with entries, in the order given.
func (s *Store[T]) LoadAll(entries []T) {
	s.Clear()
	for _, e := range entries {
		s.Insert(e)
	}
}

// Snapshot returns every global entry in insertion order.
func (c *CachingStore) Snapshot() []model.GlobalDiscoveryEntry { return c.s.Snapshot() }

// LoadAll replaces the cache's contents with entries, in the order given.
func (c *CachingStore) LoadAll(entries []model.GlobalDiscoveryEntry) { c.s.LoadAll(entries) }
