// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package lcdstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmwcarit/joynr-sub005/internal/model"
)

func globalEntry(pid, domain, iface string) model.DiscoveryEntry {
	return model.DiscoveryEntry{
		ParticipantID: pid,
		Domain:        domain,
		InterfaceName: iface,
		Qos:           model.ProviderQos{Scope: model.ScopeGlobal},
		ExpiryDateMs:  1000,
	}
}

func TestInsertLocalSelfEchoesGlobalScope(t *testing.T) {
	s := New("mqtt://local")
	s.InsertLocal(globalEntry("p1", "d", "I"), []string{"gbid1"}, false)

	_, ok := s.LookupLocalByParticipantID("p1")
	require.True(t, ok)

	g, ok := s.LookupGlobalByParticipantID("p1", 0, model.NoAgeFilter)
	require.True(t, ok)
	assert.Equal(t, "mqtt://local", g.Address)

	assert.Equal(t, []string{"gbid1"}, s.GbidsFor("p1"))
	assert.False(t, s.AwaitGlobalFor("p1"))
}

func TestInsertLocalLocalScopeNeverReachesGlobalCache(t *testing.T) {
	s := New("mqtt://local")
	local := model.DiscoveryEntry{ParticipantID: "p1", Domain: "d", InterfaceName: "I", Qos: model.ProviderQos{Scope: model.ScopeLocal}}
	s.InsertLocal(local, nil, false)

	_, ok := s.LookupGlobalByParticipantID("p1", 0, model.NoAgeFilter)
	assert.False(t, ok)
}

func TestRemoveDropsBothCachesAndBookkeeping(t *testing.T) {
	s := New("mqtt://local")
	s.InsertLocal(globalEntry("p1", "d", "I"), []string{"gbid1"}, true)

	removed, ok := s.Remove("p1")
	require.True(t, ok)
	assert.Equal(t, "p1", removed.ParticipantID)

	_, ok = s.LookupLocalByParticipantID("p1")
	assert.False(t, ok)
	_, ok = s.LookupGlobalByParticipantID("p1", 0, model.NoAgeFilter)
	assert.False(t, ok)
	assert.Nil(t, s.GbidsFor("p1"))
	assert.False(t, s.AwaitGlobalFor("p1"))
}

func TestRemoveExpiredSweepsPastExpiryAndClearsBookkeeping(t *testing.T) {
	s := New("mqtt://local")
	e := globalEntry("p1", "d", "I")
	e.ExpiryDateMs = 100
	s.InsertLocal(e, []string{"gbid1"}, false)

	local, global := s.RemoveExpired(200)
	assert.Len(t, local, 1)
	assert.Len(t, global, 1)
	assert.Nil(t, s.GbidsFor("p1"))
}

func TestClearEmptiesEverything(t *testing.T) {
	s := New("mqtt://local")
	s.InsertLocal(globalEntry("p1", "d", "I"), []string{"gbid1"}, false)
	s.Clear()

	assert.Empty(t, s.LocalEntries())
	assert.Empty(t, s.GlobalEntries())
	assert.Nil(t, s.GbidsFor("p1"))
}

func TestLoadPersistedSeedsGlobalCacheForGlobalScope(t *testing.T) {
	s := New("mqtt://local")
	entries := []model.DiscoveryEntry{globalEntry("p1", "d", "I")}
	gbids := map[string][]string{"p1": {"gbid1", "gbid2"}}

	s.LoadPersisted(entries, gbids)

	_, ok := s.LookupGlobalByParticipantID("p1", 0, model.NoAgeFilter)
	assert.True(t, ok)
	assert.Equal(t, []string{"gbid1", "gbid2"}, s.GbidsFor("p1"))
}
