// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmwcarit/joynr-sub005/internal/model"
)

func entry(pid, domain, iface string, expiry int64) model.DiscoveryEntry {
	return model.DiscoveryEntry{
		ParticipantID:  pid,
		Domain:         domain,
		InterfaceName:  iface,
		LastSeenDateMs: 0,
		ExpiryDateMs:   expiry,
	}
}

func TestInsertAndLookupByParticipantID(t *testing.T) {
	s := New[model.DiscoveryEntry]()
	s.Insert(entry("p1", "d", "I", 1000))

	e, ok := s.LookupByParticipantID("p1")
	require.True(t, ok)
	assert.Equal(t, "d", e.Domain)

	_, ok = s.LookupByParticipantID("missing")
	assert.False(t, ok)
}

func TestInsertReplacesDuplicateParticipant(t *testing.T) {
	s := New[model.DiscoveryEntry]()
	s.Insert(entry("p1", "d", "I", 1000))
	s.Insert(entry("p1", "d", "I", 2000))

	require.Equal(t, 1, s.Len())
	e, _ := s.LookupByParticipantID("p1")
	assert.Equal(t, int64(2000), e.ExpiryDateMs)
}

func TestLookupByKeyPreservesInsertionOrder(t *testing.T) {
	s := New[model.DiscoveryEntry]()
	s.Insert(entry("p1", "d", "I", 1000))
	s.Insert(entry("p2", "d", "I", 1000))
	s.Insert(entry("p3", "d", "I", 1000))

	got := s.LookupByKey(model.Key{Domain: "d", InterfaceName: "I"})
	require.Len(t, got, 3)
	assert.Equal(t, []string{"p1", "p2", "p3"}, pids(got))
}

func TestRemoveByParticipantIDDropsFromAllIndexes(t *testing.T) {
	s := New[model.DiscoveryEntry]()
	s.Insert(entry("p1", "d", "I", 1000))

	removed, ok := s.RemoveByParticipantID("p1")
	require.True(t, ok)
	assert.Equal(t, "p1", removed.ParticipantID)

	_, ok = s.LookupByParticipantID("p1")
	assert.False(t, ok)
	assert.Empty(t, s.LookupByKey(model.Key{Domain: "d", InterfaceName: "I"}))
	assert.Equal(t, 0, s.Len())
}

func TestRemoveExpiredStrictlyFiltersByExpiry(t *testing.T) {
	s := New[model.DiscoveryEntry]()
	s.Insert(entry("stale", "d", "I", 100))
	s.Insert(entry("fresh", "d", "I", 10000))

	removed := s.RemoveExpired(1000)
	require.Len(t, removed, 1)
	assert.Equal(t, "stale", removed[0].ParticipantID)

	_, ok := s.LookupByParticipantID("fresh")
	assert.True(t, ok)
	_, ok = s.LookupByParticipantID("stale")
	assert.False(t, ok)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New[model.DiscoveryEntry]()
	s.Insert(entry("p1", "d", "I", 1000))
	s.Insert(entry("p2", "d2", "I2", 2000))

	snap := s.Snapshot()

	reloaded := New[model.DiscoveryEntry]()
	reloaded.LoadAll(snap)

	assert.Equal(t, s.Iter(), reloaded.Iter())
}

func TestClearThenReloadReconstructsPersistedSet(t *testing.T) {
	s := New[model.DiscoveryEntry]()
	s.Insert(entry("p1", "d", "I", 1000))
	snap := s.Snapshot()

	s.Clear()
	assert.Equal(t, 0, s.Len())

	s.LoadAll(snap)
	assert.Equal(t, snap, s.Iter())
}

func pids(entries []model.DiscoveryEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ParticipantID
	}
	return out
}
