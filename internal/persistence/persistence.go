// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package persistence stores the local DiscoveryEntry set as a JSON file,
// rewritten atomically on every mutation and reloaded once at startup.
package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmwcarit/joynr-sub005/internal/model"
)

// record is the on-disk shape: the entry plus the GBID set it was
// registered with, so a restart can reconstruct LcdStore's bookkeeping.
type record struct {
	Entry model.DiscoveryEntry `json:"entry"`
	Gbids []string             `json:"gbids"`
}

// Store persists local DiscoveryEntries to a single JSON file at Path.
type Store struct {
	Path string
}

// New returns a Store writing to path.
func New(path string) *Store {
	return &Store{Path: path}
}

// Load reads the persisted entries, returning no entries, an empty GBID map
// and a nil error if the file does not yet exist.
func (s *Store) Load() ([]model.DiscoveryEntry, map[string][]string, error) {
	bs, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return nil, map[string][]string{}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("persistence: reading %s: %w", s.Path, err)
	}

	var records []record
	if err := json.Unmarshal(bs, &records); err != nil {
		return nil, nil, fmt.Errorf("persistence: decoding %s: %w", s.Path, err)
	}

	entries := make([]model.DiscoveryEntry, 0, len(records))
	gbids := make(map[string][]string, len(records))
	for _, r := range records {
		entries = append(entries, r.Entry)
		gbids[r.Entry.ParticipantID] = r.Gbids
	}
	return entries, gbids, nil
}

// Save rewrites the persisted set atomically: write to a temp file in the
// same directory, then rename over the target.
func (s *Store) Save(entries []model.DiscoveryEntry, gbidsByParticipant map[string][]string) error {
	records := make([]record, len(entries))
	for i, e := range entries {
		records[i] = record{Entry: e, Gbids: gbidsByParticipant[e.ParticipantID]}
	}

	bs, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("persistence: encoding: %w", err)
	}

	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("persistence: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(bs); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("persistence: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("persistence: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("persistence: renaming temp file: %w", err)
	}
	return nil
}
