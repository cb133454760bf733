// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package lcd orchestrates provider registration and discovery: it wires the
// local/global caches, the pending-lookups table, the Global Capabilities
// Directory client, the access controller, and the message router into the
// add/remove/lookup algorithms a cluster controller needs.
package lcd

import (
	"log/slog"
	"time"

	"github.com/bmwcarit/joynr-sub005/internal/accesscontrol"
	"github.com/bmwcarit/joynr-sub005/internal/config"
	"github.com/bmwcarit/joynr-sub005/internal/gcdclient"
	"github.com/bmwcarit/joynr-sub005/internal/lcdevents"
	"github.com/bmwcarit/joynr-sub005/internal/lcdstore"
	"github.com/bmwcarit/joynr-sub005/internal/model"
	"github.com/bmwcarit/joynr-sub005/internal/pending"
	"github.com/bmwcarit/joynr-sub005/internal/persistence"
	"github.com/bmwcarit/joynr-sub005/internal/router"
)

// CallContext carries the caller identity through the add path explicitly,
// rather than through process-wide state.
type CallContext struct {
	UserID string
}

// LCD is the Local Capabilities Directory core.
type LCD struct {
	store     *lcdstore.LcdStore
	pending   *pending.Table
	gcd       gcdclient.Client
	access    accesscontrol.Controller
	router    router.MessageRouter
	persist   *persistence.Store // nil when persistence is disabled
	observers *lcdevents.Registry
	logger    *slog.Logger

	enableAccessController bool
	knownGbids              []string
	defaultExpiryIntervalMs int64
	clusterControllerID     string
	localAddress            string

	// now is overridable by tests; defaults to the wall clock.
	now func() int64
}

// New constructs an LCD from cfg, loading any persisted local entries.
func New(cfg config.Options, gcd gcdclient.Client, access accesscontrol.Controller, mr router.MessageRouter) (*LCD, error) {
	l := &LCD{
		store:                   lcdstore.New(cfg.LocalAddress),
		pending:                 pending.New(),
		gcd:                     gcd,
		access:                  access,
		router:                  mr,
		observers:               lcdevents.NewRegistry(),
		logger:                  slog.Default().With("component", "lcd"),
		enableAccessController: cfg.EnableAccessController,
		knownGbids:              cfg.KnownGBIDs,
		defaultExpiryIntervalMs: cfg.DefaultExpiryIntervalMs,
		clusterControllerID:     cfg.ClusterControllerID,
		localAddress:            cfg.LocalAddress,
		now:                     func() int64 { return time.Now().UnixMilli() },
	}

	if cfg.PersistencyEnabled {
		l.persist = persistence.New(cfg.PersistenceFilename)
		entries, gbids, err := l.persist.Load()
		if err != nil {
			return nil, err
		}
		l.store.LoadPersisted(entries, gbids)
	}

	return l, nil
}

// AddObserver registers o for provider registration lifecycle notifications
// and returns a function that unregisters it.
func (l *LCD) AddObserver(o lcdevents.Observer) (unregister func()) {
	return l.observers.Add(o)
}

func (l *LCD) persistNow() {
	if l.persist == nil {
		return
	}
	entries := l.store.LocalEntries()
	gbids := make(map[string][]string, len(entries))
	for _, e := range entries {
		gbids[e.ParticipantID] = l.store.GbidsFor(e.ParticipantID)
	}
	if err := l.persist.Save(entries, gbids); err != nil {
		l.logger.Error("failed to persist local entries", "error", err)
	}
}

// unionGbids returns the elements of old followed by the elements of added
// not already present in old, preserving the order GBIDs first appeared.
func unionGbids(old, added []string) []string {
	seen := make(map[string]bool, len(old)+len(added))
	out := make([]string, 0, len(old)+len(added))
	for _, g := range old {
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	for _, g := range added {
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}

func sameGbidSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, g := range a {
		set[g] = true
	}
	for _, g := range b {
		if !set[g] {
			return false
		}
	}
	return true
}
