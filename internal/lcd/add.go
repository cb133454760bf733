// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package lcd

import (
	"context"

	"github.com/bmwcarit/joynr-sub005/internal/accesscontrol"
	"github.com/bmwcarit/joynr-sub005/internal/gcdclient"
	"github.com/bmwcarit/joynr-sub005/internal/model"
)

// Add registers entry. onSuccess/onError are invoked exactly once; onError
// receives a *model.ProviderRuntimeException or a *model.DiscoveryError.
func (l *LCD) Add(ctx context.Context, callCtx CallContext, entry model.DiscoveryEntry, awaitGlobalRegistration bool, gbids []string, onSuccess func(), onError func(error)) {
	if l.enableAccessController {
		if !l.access.HasProviderPermission(callCtx.UserID, accesscontrol.High, entry.Domain, entry.InterfaceName) {
			onError(model.NewProviderRuntimeException("Provider does not have permissions to register interface %s in domain %s", entry.InterfaceName, entry.Domain))
			return
		}
	}

	expanded := gcdclient.ExpandGbids(gbids, l.knownGbids)
	if code, ok := gcdclient.ValidateGbids(expanded, l.knownGbids); !ok {
		onError(model.NewDiscoveryError(code))
		return
	}

	now := l.now()
	entry.LastSeenDateMs = now
	entry.ExpiryDateMs = max(entry.ExpiryDateMs, now+l.defaultExpiryIntervalMs)
	if entry.Qos.IsInternalProvider() {
		entry.ExpiryDateMs = model.NeverExpires
	}

	finalGbids := expanded
	if existing, ok := l.store.LookupLocalByParticipantID(entry.ParticipantID); ok && model.SameRegistration(existing, entry) {
		recorded := l.store.GbidsFor(entry.ParticipantID)
		if sameGbidSet(recorded, expanded) {
			onSuccess()
			return
		}
		finalGbids = unionGbids(recorded, expanded)
	}

	switch entry.Qos.Scope {
	case model.ScopeLocal:
		l.commitLocal(entry, finalGbids, false)
		onSuccess()

	case model.ScopeGlobal:
		global := model.GlobalDiscoveryEntry{DiscoveryEntry: entry, Address: l.localAddress}

		if !awaitGlobalRegistration {
			l.commitLocal(entry, finalGbids, false)
			onSuccess()
			l.gcd.Add(ctx, global, false, expanded, func() {}, func(code model.DiscoveryErrorCode) {
				l.logger.Warn("background gcd add rejected", "participantId", entry.ParticipantID, "code", code)
			}, func(err error) {
				l.logger.Warn("background gcd add failed", "participantId", entry.ParticipantID, "error", err)
			})
			return
		}

		l.gcd.Add(ctx, global, true, expanded,
			func() {
				l.commitLocal(entry, finalGbids, true)
				onSuccess()
			},
			func(code model.DiscoveryErrorCode) {
				onError(model.NewDiscoveryError(code))
			},
			func(err error) {
				onError(model.NewProviderRuntimeException("Error registering provider %s in default backend: %v", entry.ParticipantID, err))
			},
		)
	}
}

// commitLocal performs the side effects shared by every add path once the
// entry is ready to become visible: store insert, observer notification,
// waking any matching pending lookup, and persistence.
func (l *LCD) commitLocal(entry model.DiscoveryEntry, gbids []string, awaitGlobalRegistration bool) {
	l.store.InsertLocal(entry, gbids, awaitGlobalRegistration)
	l.observers.NotifyAdd(entry)
	l.pending.CallPendingLookups(entry.Key(), []model.DiscoveryEntryWithMetaInfo{entry.WithMetaInfo(true)})
	l.persistNow()
}

// AddToAll is add(entry, awaitGlobalRegistration, gbids=knownGbids): the
// caller's awaitGlobalRegistration is passed through unchanged.
func (l *LCD) AddToAll(ctx context.Context, callCtx CallContext, entry model.DiscoveryEntry, awaitGlobalRegistration bool, onSuccess func(), onError func(error)) {
	l.Add(ctx, callCtx, entry, awaitGlobalRegistration, l.knownGbids, onSuccess, onError)
}
