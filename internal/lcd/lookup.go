// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package lcd

import (
	"context"
	"sync/atomic"

	"github.com/bmwcarit/joynr-sub005/internal/gcdclient"
	"github.com/bmwcarit/joynr-sub005/internal/model"
	"github.com/bmwcarit/joynr-sub005/internal/pending"
)

// LookupByParticipantID resolves a single participant across the scope
// given in qos. At most one result is ever delivered to onSuccess.
func (l *LCD) LookupByParticipantID(ctx context.Context, participantID string, qos model.DiscoveryQos, gbids []string, onSuccess func(model.DiscoveryEntryWithMetaInfo, bool), onError func(error)) {
	expanded := gcdclient.ExpandGbids(gbids, l.knownGbids)
	if code, ok := gcdclient.ValidateGbids(expanded, l.knownGbids); !ok {
		onError(model.NewDiscoveryError(code))
		return
	}

	local, hasLocal := l.store.LookupLocalByParticipantID(participantID)

	switch qos.DiscoveryScope {
	case model.LocalOnly:
		if !hasLocal {
			onSuccess(model.DiscoveryEntryWithMetaInfo{}, false)
			return
		}
		onSuccess(local.WithMetaInfo(true), true)

	case model.LocalThenGlobal, model.LocalAndGlobal:
		if hasLocal {
			onSuccess(local.WithMetaInfo(true), true)
			return
		}
		l.gcd.LookupByParticipantID(ctx, participantID, expanded, qos.DiscoveryTimeoutMs,
			func(entry model.GlobalDiscoveryEntry, found bool) {
				if !found {
					onSuccess(model.DiscoveryEntryWithMetaInfo{}, false)
					return
				}
				l.store.InsertGlobal(entry)
				onSuccess(entry.WithMetaInfo(false), true)
			},
			func(code model.DiscoveryErrorCode) { onError(model.NewDiscoveryError(code)) },
			func(err error) { onError(model.NewDiscoveryError(model.InternalError)) },
		)

	case model.GlobalOnly:
		if hasLocal {
			onSuccess(local.WithMetaInfo(true), true)
			return
		}
		now := l.now()
		if cached, ok := l.store.LookupGlobalByParticipantID(participantID, now, qos.CacheMaxAgeMs); ok {
			onSuccess(cached.WithMetaInfo(false), true)
			return
		}
		l.gcd.LookupByParticipantID(ctx, participantID, expanded, qos.DiscoveryTimeoutMs,
			func(entry model.GlobalDiscoveryEntry, found bool) {
				if !found {
					onSuccess(model.DiscoveryEntryWithMetaInfo{}, false)
					return
				}
				l.store.InsertGlobal(entry)
				onSuccess(entry.WithMetaInfo(false), true)
			},
			func(code model.DiscoveryErrorCode) { onError(model.NewDiscoveryError(code)) },
			func(err error) { onError(model.NewDiscoveryError(model.InternalError)) },
		)
	}
}

// LookupByDomainInterface resolves every provider registered under any of
// domains for interfaceName, per the scope given in qos.
func (l *LCD) LookupByDomainInterface(ctx context.Context, domains []string, interfaceName string, qos model.DiscoveryQos, gbids []string, onSuccess func([]model.DiscoveryEntryWithMetaInfo), onError func(error)) {
	if len(domains) == 0 {
		onError(model.NewProviderRuntimeException("lookup requires at least one domain"))
		return
	}

	expanded := gcdclient.ExpandGbids(gbids, l.knownGbids)
	if code, ok := gcdclient.ValidateGbids(expanded, l.knownGbids); !ok {
		onError(model.NewDiscoveryError(code))
		return
	}

	switch qos.DiscoveryScope {
	case model.LocalOnly:
		onSuccess(withMeta(l.localMatches(domains, interfaceName), true))

	case model.LocalThenGlobal:
		l.lookupLocalThenGlobal(ctx, domains, interfaceName, qos, expanded, onSuccess, onError)

	case model.LocalAndGlobal:
		l.lookupLocalAndGlobal(ctx, domains, interfaceName, qos, expanded, onSuccess, onError)

	case model.GlobalOnly:
		l.lookupGlobalOnly(ctx, domains, interfaceName, qos, expanded, onSuccess, onError)
	}
}

func (l *LCD) localMatches(domains []string, interfaceName string) []model.DiscoveryEntry {
	var out []model.DiscoveryEntry
	for _, d := range domains {
		out = append(out, l.store.LookupLocalByKey(model.Key{Domain: d, InterfaceName: interfaceName})...)
	}
	return out
}

func withMeta(entries []model.DiscoveryEntry, isLocal bool) []model.DiscoveryEntryWithMetaInfo {
	out := make([]model.DiscoveryEntryWithMetaInfo, len(entries))
	for i, e := range entries {
		out[i] = e.WithMetaInfo(isLocal)
	}
	return out
}

// waiter arbitrates the race between a local add satisfying a parked
// LOCAL_THEN_GLOBAL lookup and the in-flight GCD reply for the same lookup:
// whichever fires first wins, and claims every pending ticket so the other
// path becomes a silent no-op.
type waiter struct {
	delivered atomic.Bool
	tickets   []*pending.Ticket
}

func (w *waiter) tryDeliver(fn func()) {
	if !w.delivered.CompareAndSwap(false, true) {
		return
	}
	for _, t := range w.tickets {
		t.Cancel()
	}
	fn()
}

func (l *LCD) lookupLocalThenGlobal(ctx context.Context, domains []string, interfaceName string, qos model.DiscoveryQos, gbids []string, onSuccess func([]model.DiscoveryEntryWithMetaInfo), onError func(error)) {
	if local := l.localMatches(domains, interfaceName); len(local) > 0 {
		onSuccess(withMeta(local, true))
		return
	}

	w := &waiter{}
	for _, d := range domains {
		key := model.Key{Domain: d, InterfaceName: interfaceName}
		w.tickets = append(w.tickets, l.pending.Register(key, func(entries []model.DiscoveryEntryWithMetaInfo) {
			w.tryDeliver(func() { onSuccess(entries) })
		}))
	}

	if w.delivered.Load() {
		// A local add for one of the other domains already fired and beat us
		// to registering every ticket; cancel the stragglers and skip the GCD
		// round-trip entirely.
		for _, t := range w.tickets {
			t.Cancel()
		}
		return
	}

	l.gcd.LookupByDomainInterface(ctx, domains, interfaceName, gbids, qos.DiscoveryTimeoutMs,
		func(remote []model.GlobalDiscoveryEntry) {
			w.tryDeliver(func() {
				survivors := l.installRoutes(remote)
				for _, e := range survivors {
					l.store.InsertGlobal(e)
				}
				onSuccess(withMeta(globalToDiscovery(survivors), false))
			})
		},
		func(code model.DiscoveryErrorCode) {
			w.tryDeliver(func() { onError(model.NewDiscoveryError(code)) })
		},
		func(err error) {
			w.tryDeliver(func() { onError(model.NewDiscoveryError(model.InternalError)) })
		},
	)
}

func (l *LCD) lookupLocalAndGlobal(ctx context.Context, domains []string, interfaceName string, qos model.DiscoveryQos, gbids []string, onSuccess func([]model.DiscoveryEntryWithMetaInfo), onError func(error)) {
	local := l.localMatches(domains, interfaceName)
	localByPid := make(map[string]model.DiscoveryEntry, len(local))
	for _, e := range local {
		localByPid[e.ParticipantID] = e
	}

	l.gcd.LookupByDomainInterface(ctx, domains, interfaceName, gbids, qos.DiscoveryTimeoutMs,
		func(remote []model.GlobalDiscoveryEntry) {
			survivors := l.installRoutes(remote)
			for _, e := range survivors {
				l.store.InsertGlobal(e)
			}
			merged := withMeta(local, true)
			for _, e := range survivors {
				if _, shadowed := localByPid[e.ParticipantID]; shadowed {
					continue
				}
				merged = append(merged, e.WithMetaInfo(false))
			}
			onSuccess(merged)
		},
		func(code model.DiscoveryErrorCode) { onError(model.NewDiscoveryError(code)) },
		func(err error) { onError(model.NewDiscoveryError(model.InternalError)) },
	)
}

func (l *LCD) lookupGlobalOnly(ctx context.Context, domains []string, interfaceName string, qos model.DiscoveryQos, gbids []string, onSuccess func([]model.DiscoveryEntryWithMetaInfo), onError func(error)) {
	local := l.localMatches(domains, interfaceName)
	localByPid := make(map[string]model.DiscoveryEntry, len(local))
	for _, e := range local {
		localByPid[e.ParticipantID] = e
	}

	now := l.now()
	var cached []model.GlobalDiscoveryEntry
	for _, d := range domains {
		cached = append(cached, l.store.LookupGlobalByKey(model.Key{Domain: d, InterfaceName: interfaceName}, now, qos.CacheMaxAgeMs)...)
	}

	if len(cached) > 0 {
		onSuccess(l.mergeShadowed(cached, localByPid))
		return
	}

	l.gcd.LookupByDomainInterface(ctx, domains, interfaceName, gbids, qos.DiscoveryTimeoutMs,
		func(remote []model.GlobalDiscoveryEntry) {
			survivors := l.installRoutes(remote)
			for _, e := range survivors {
				l.store.InsertGlobal(e)
			}
			onSuccess(l.mergeShadowed(survivors, localByPid))
		},
		func(code model.DiscoveryErrorCode) { onError(model.NewDiscoveryError(code)) },
		func(err error) { onError(model.NewDiscoveryError(model.InternalError)) },
	)
}

// mergeShadowed returns remote in order, replacing every entry whose
// participantId is also present locally with the local entry (isLocal=true),
// then appends the local entries that have no counterpart in remote
// (isLocal=true), in map iteration order.
func (l *LCD) mergeShadowed(remote []model.GlobalDiscoveryEntry, localByPid map[string]model.DiscoveryEntry) []model.DiscoveryEntryWithMetaInfo {
	out := make([]model.DiscoveryEntryWithMetaInfo, 0, len(remote))
	seen := make(map[string]bool, len(remote))
	for _, e := range remote {
		seen[e.ParticipantID] = true
		if local, ok := localByPid[e.ParticipantID]; ok {
			out = append(out, local.WithMetaInfo(true))
			continue
		}
		out = append(out, e.WithMetaInfo(false))
	}
	for pid, local := range localByPid {
		if !seen[pid] {
			out = append(out, local.WithMetaInfo(true))
		}
	}
	return out
}

// installRoutes calls messageRouter.AddNextHop for every entry, dropping
// exactly the entries whose route installation fails rather than the batch.
func (l *LCD) installRoutes(entries []model.GlobalDiscoveryEntry) []model.GlobalDiscoveryEntry {
	survivors := make([]model.GlobalDiscoveryEntry, 0, len(entries))
	for _, e := range entries {
		addr, err := model.ParseAddress(e.Address)
		if err != nil {
			l.logger.Error("failed to parse routing address, dropping entry", "participantId", e.ParticipantID, "error", err)
			continue
		}
		if err := l.router.AddNextHop(e.ParticipantID, addr, true, e.ExpiryDateMs, false); err != nil {
			l.logger.Warn("failed to install route, dropping entry", "participantId", e.ParticipantID, "error", err)
			continue
		}
		survivors = append(survivors, e)
	}
	return survivors
}

func globalToDiscovery(entries []model.GlobalDiscoveryEntry) []model.DiscoveryEntry {
	out := make([]model.DiscoveryEntry, len(entries))
	for i, e := range entries {
		out[i] = e.DiscoveryEntry
	}
	return out
}

// CapabilitiesReceived handles an asynchronous GCD push
// (registerReceivedCapabilities): install routes for parseable entries,
// insert survivors into the global cache, and deliver them to callback
// alongside cachedLocals for scopes that mix local and global results.
func (l *LCD) CapabilitiesReceived(entries []model.GlobalDiscoveryEntry, cachedLocals []model.DiscoveryEntryWithMetaInfo, callback func([]model.DiscoveryEntryWithMetaInfo), scope model.DiscoveryScope) {
	survivors := l.installRoutes(entries)
	for _, e := range survivors {
		l.store.InsertGlobal(e)
	}

	result := withMeta(globalToDiscovery(survivors), false)
	if scope == model.LocalThenGlobal || scope == model.LocalAndGlobal {
		result = append(append([]model.DiscoveryEntryWithMetaInfo(nil), cachedLocals...), result...)
	}
	callback(result)
}
