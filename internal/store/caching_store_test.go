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

func globalEntry(pid, domain, iface string, lastSeen, expiry int64) model.GlobalDiscoveryEntry {
	return model.GlobalDiscoveryEntry{
		DiscoveryEntry: model.DiscoveryEntry{
			ParticipantID:  pid,
			Domain:         domain,
			InterfaceName:  iface,
			LastSeenDateMs: lastSeen,
			ExpiryDateMs:   expiry,
		},
		Address: "addr://" + pid,
	}
}

func TestCachingStoreMaxAgeFiltersOldEntries(t *testing.T) {
	c := NewCachingStore()
	c.Insert(globalEntry("p1", "d", "I", 1000, 100000))

	_, ok := c.LookupByParticipantID("p1", 1500, 1000)
	assert.True(t, ok, "within max age")

	_, ok = c.LookupByParticipantID("p1", 5000, 1000)
	assert.False(t, ok, "older than max age")
}

func TestCachingStoreNoAgeFilterSentinel(t *testing.T) {
	c := NewCachingStore()
	c.Insert(globalEntry("p1", "d", "I", 0, 100000))

	_, ok := c.LookupByParticipantID("p1", 1_000_000_000, model.NoAgeFilter)
	assert.True(t, ok)
}

func TestCachingStoreLookupByKeyFiltersAge(t *testing.T) {
	c := NewCachingStore()
	c.Insert(globalEntry("p1", "d", "I", 0, 100000))
	c.Insert(globalEntry("p2", "d", "I", 900, 100000))

	got := c.LookupByKey(model.Key{Domain: "d", InterfaceName: "I"}, 1000, 100)
	require.Len(t, got, 1)
	assert.Equal(t, "p2", got[0].ParticipantID)
}
