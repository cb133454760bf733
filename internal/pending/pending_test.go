// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package pending

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmwcarit/joynr-sub005/internal/model"
)

func TestCallPendingLookupsFiresEachHandleOnce(t *testing.T) {
	tbl := New()
	key := model.Key{Domain: "d", InterfaceName: "I"}

	var got [][]model.DiscoveryEntryWithMetaInfo
	tbl.Register(key, func(entries []model.DiscoveryEntryWithMetaInfo) { got = append(got, entries) })
	tbl.Register(key, func(entries []model.DiscoveryEntryWithMetaInfo) { got = append(got, entries) })

	entries := []model.DiscoveryEntryWithMetaInfo{{DiscoveryEntry: model.DiscoveryEntry{ParticipantID: "p1"}}}
	tbl.CallPendingLookups(key, entries)

	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0][0].ParticipantID)

	// The table is drained; a second call under the same key fires nothing.
	tbl.CallPendingLookups(key, entries)
	assert.Len(t, got, 2)
}

func TestTicketCancelPreventsLaterFire(t *testing.T) {
	tbl := New()
	key := model.Key{Domain: "d", InterfaceName: "I"}

	called := false
	ticket := tbl.Register(key, func([]model.DiscoveryEntryWithMetaInfo) { called = true })
	ticket.Cancel()

	tbl.CallPendingLookups(key, nil)
	assert.False(t, called)
}

func TestFireIfFirstRacesCancel(t *testing.T) {
	tbl := New()
	key := model.Key{Domain: "d", InterfaceName: "I"}

	fired := false
	ticket := tbl.Register(key, func([]model.DiscoveryEntryWithMetaInfo) { fired = true })

	require.True(t, ticket.FireIfFirst(nil))
	assert.True(t, fired)

	// A second attempt to claim the same ticket, by either path, is a no-op.
	assert.False(t, ticket.FireIfFirst(nil))
	ticket.Cancel()
}

func TestDrainRemovesOnlyTheRequestedKey(t *testing.T) {
	tbl := New()
	keyA := model.Key{Domain: "a", InterfaceName: "I"}
	keyB := model.Key{Domain: "b", InterfaceName: "I"}

	tbl.Register(keyA, func([]model.DiscoveryEntryWithMetaInfo) {})
	bCalled := false
	tbl.Register(keyB, func([]model.DiscoveryEntryWithMetaInfo) { bCalled = true })

	handles := tbl.Drain(keyA)
	assert.Len(t, handles, 1)

	tbl.CallPendingLookups(keyB, nil)
	assert.True(t, bCalled)
}
