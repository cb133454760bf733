// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmwcarit/joynr-sub005/internal/model"
)

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing.json"))
	entries, gbids, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, gbids)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "entries.json"))

	entries := []model.DiscoveryEntry{
		{ParticipantID: "p1", Domain: "d", InterfaceName: "I", ExpiryDateMs: 1000},
		{ParticipantID: "p2", Domain: "d2", InterfaceName: "I2", ExpiryDateMs: 2000},
	}
	gbids := map[string][]string{"p1": {"G1", "G2"}}

	require.NoError(t, s.Save(entries, gbids))

	loaded, loadedGbids, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, entries, loaded)
	assert.Equal(t, []string{"G1", "G2"}, loadedGbids["p1"])
	assert.Empty(t, loadedGbids["p2"])
}

func TestSaveOverwritesPreviousContent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "entries.json"))

	require.NoError(t, s.Save([]model.DiscoveryEntry{{ParticipantID: "p1"}}, nil))
	require.NoError(t, s.Save([]model.DiscoveryEntry{{ParticipantID: "p2"}}, nil))

	loaded, _, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "p2", loaded[0].ParticipantID)
}
