// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package lcd

import (
	"context"

	"github.com/bmwcarit/joynr-sub005/internal/model"
)

// RunFreshnessCycle touches every distinct GBID appearing in the current
// global registration set, refreshing lastSeenDateMs locally for every
// entry (global and local-scoped) regardless of whether it is touched
// remotely. expiryDateMs is never shortened.
func (l *LCD) RunFreshnessCycle(ctx context.Context) {
	now := l.now()
	entries := l.store.LocalEntries()
	if len(entries) == 0 {
		return
	}

	byGbid := make(map[string][]string)
	for _, e := range entries {
		e.LastSeenDateMs = now
		l.store.InsertLocal(e, l.store.GbidsFor(e.ParticipantID), l.store.AwaitGlobalFor(e.ParticipantID))

		if e.Qos.Scope != model.ScopeGlobal {
			continue
		}
		for _, gbid := range l.store.GbidsFor(e.ParticipantID) {
			byGbid[gbid] = append(byGbid[gbid], e.ParticipantID)
		}
	}

	for gbid, pids := range byGbid {
		l.gcd.Touch(ctx, l.clusterControllerID, pids, gbid,
			func() {},
			func(err error) {
				l.logger.Warn("touch failed", "gbid", gbid, "error", err)
			},
		)
	}

	l.persistNow()
}

// RunExpirySweep removes every entry past its expiry from both caches and
// persists if anything local was removed.
func (l *LCD) RunExpirySweep(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	default:
	}

	local, _ := l.store.RemoveExpired(l.now())
	if len(local) > 0 {
		l.persistNow()
	}
}

// RunReAdd re-issues gcd.add for every globally-scoped local entry in its
// recorded GBID set, extending expiryDateMs but never shrinking it.
func (l *LCD) RunReAdd(ctx context.Context) {
	now := l.now()
	for _, e := range l.store.LocalEntries() {
		if e.Qos.Scope != model.ScopeGlobal {
			continue
		}
		l.reAddOne(ctx, e, now)
	}
}

func (l *LCD) reAddOne(ctx context.Context, entry model.DiscoveryEntry, now int64) {
	gbids := l.store.GbidsFor(entry.ParticipantID)
	entry.LastSeenDateMs = now
	entry.ExpiryDateMs = max(entry.ExpiryDateMs, now+l.defaultExpiryIntervalMs)

	global := model.GlobalDiscoveryEntry{DiscoveryEntry: entry, Address: l.localAddress}
	l.gcd.Add(ctx, global, false, gbids,
		func() {
			l.store.InsertLocal(entry, gbids, l.store.AwaitGlobalFor(entry.ParticipantID))
			l.persistNow()
		},
		func(code model.DiscoveryErrorCode) {
			l.logger.Warn("re-add rejected", "participantId", entry.ParticipantID, "code", code)
		},
		func(err error) {
			l.logger.Warn("re-add failed", "participantId", entry.ParticipantID, "error", err)
		},
	)
}

// TriggerGlobalProviderReregistration re-advertises every globally-scoped
// local entry on demand, refreshing lastSeenDateMs and extending (never
// shrinking) expiryDateMs.
func (l *LCD) TriggerGlobalProviderReregistration(ctx context.Context, onSuccess func(), onError func(error)) {
	now := l.now()
	for _, e := range l.store.LocalEntries() {
		if e.Qos.Scope != model.ScopeGlobal {
			continue
		}
		l.reAddOne(ctx, e, now)
	}
	onSuccess()
}

// RemoveStaleProvidersOfClusterController asks the Global Capabilities
// Directory to drop every provider belonging to this cluster controller
// last seen before maxLastSeenMs, once per known GBID.
func (l *LCD) RemoveStaleProvidersOfClusterController(ctx context.Context, maxLastSeenMs int64, onSuccess func(), onError func(error)) {
	if len(l.knownGbids) == 0 {
		onSuccess()
		return
	}

	remaining := len(l.knownGbids)
	done := make(chan error, remaining)
	for _, gbid := range l.knownGbids {
		l.gcd.RemoveStale(ctx, l.clusterControllerID, maxLastSeenMs, gbid,
			func() { done <- nil },
			func(err error) { done <- err },
		)
	}

	var firstErr error
	for i := 0; i < remaining; i++ {
		if err := <-done; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		onError(model.NewDiscoveryError(model.InternalError))
		return
	}
	onSuccess()
}
