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

// Remove drops participantID's registration. onError receives a
// *model.DiscoveryError (the GCD's own reported outcome, or INTERNAL_ERROR
// surfacing a transport failure).
func (l *LCD) Remove(ctx context.Context, participantID string, onSuccess func(), onError func(error)) {
	await := l.store.AwaitGlobalFor(participantID)
	gbids := l.store.GbidsFor(participantID)

	if !await {
		l.dropLocal(participantID)
		onSuccess()
		l.gcd.Remove(ctx, participantID, gbids, func() {}, func(code model.DiscoveryErrorCode, _ []string) {
			l.logger.Warn("background gcd remove rejected", "participantId", participantID, "code", code)
		}, func(err error) {
			l.logger.Warn("background gcd remove failed", "participantId", participantID, "error", err)
		})
		return
	}

	l.gcd.Remove(ctx, participantID, gbids,
		func() {
			l.dropLocal(participantID)
			onSuccess()
		},
		func(code model.DiscoveryErrorCode, _ []string) {
			switch code {
			case model.NoEntryForSelectedBackends, model.NoEntryForParticipant:
				l.dropLocal(participantID)
				onSuccess()
			default:
				onError(model.NewDiscoveryError(code))
			}
		},
		func(err error) {
			onError(model.NewDiscoveryError(model.InternalError))
		},
	)
}

// dropLocal removes participantID from the store, notifies observers,
// tears down its route, and persists. A no-op if the entry is already gone.
func (l *LCD) dropLocal(participantID string) {
	entry, ok := l.store.Remove(participantID)
	if !ok {
		return
	}
	l.observers.NotifyRemove(entry)
	l.router.RemoveNextHop(participantID)
	l.persistNow()
}
