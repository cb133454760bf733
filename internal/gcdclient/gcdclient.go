// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package gcdclient is the async facade over the remote Global Capabilities
// Directory. Every operation posts its result to a callback rather than
// returning synchronously, matching how the LCD core schedules GCD calls
// without holding cache_lock or pending_lookups_lock.
package gcdclient

import (
	"context"

	"github.com/bmwcarit/joynr-sub005/internal/model"
)

// Client is the contract the LCD core depends on. Every method schedules
// work and returns immediately; completion is reported through the supplied
// callbacks, which the implementation must invoke without holding any lock
// of its own.
type Client interface {
	Add(ctx context.Context, entry model.GlobalDiscoveryEntry, awaitGlobalRegistration bool, gbids []string, onSuccess func(), onAppError func(model.DiscoveryErrorCode), onRuntimeError func(error))

	Remove(ctx context.Context, participantID string, gbids []string, onSuccess func(), onAppError func(code model.DiscoveryErrorCode, resolvedGbids []string), onRuntimeError func(error))

	LookupByDomainInterface(ctx context.Context, domains []string, interfaceName string, gbids []string, ttlMs int64, onSuccess func([]model.GlobalDiscoveryEntry), onAppError func(model.DiscoveryErrorCode), onRuntimeError func(error))

	LookupByParticipantID(ctx context.Context, participantID string, gbids []string, ttlMs int64, onSuccess func(model.GlobalDiscoveryEntry, bool), onAppError func(model.DiscoveryErrorCode), onRuntimeError func(error))

	// Touch issues one liveness ping per distinct GBID in the caller's
	// current registration set.
	Touch(ctx context.Context, clusterControllerID string, participantIDs []string, gbid string, onSuccess func(), onRuntimeError func(error))

	// RemoveStale is retried once by the implementation if the call
	// completes within one hour of process start; not retried otherwise.
	RemoveStale(ctx context.Context, clusterControllerID string, maxLastSeenMs int64, gbid string, onSuccess func(), onRuntimeError func(error))
}

// ValidateGbids checks gbids against the configured known set before any
// GcdClient call, per the LCD's own validation contract: empty strings and
// duplicates are rejected as INVALID_GBID, GBIDs outside knownGbids as
// UNKNOWN_GBID. An empty gbids slice is not an error here — the LCD core
// expands it to "all known GBIDs" before this check runs.
func ValidateGbids(gbids []string, knownGbids []string) (model.DiscoveryErrorCode, bool) {
	known := make(map[string]bool, len(knownGbids))
	for _, g := range knownGbids {
		known[g] = true
	}
	seen := make(map[string]bool, len(gbids))
	for _, g := range gbids {
		if g == "" {
			return model.InvalidGbid, false
		}
		if seen[g] {
			return model.InvalidGbid, false
		}
		seen[g] = true
		if !known[g] {
			return model.UnknownGbid, false
		}
	}
	return model.NoDiscoveryError, true
}

// ExpandGbids returns gbids unchanged, or every known GBID if gbids is
// empty, per the LCD core's "empty gbids means all known backends" rule.
func ExpandGbids(gbids []string, knownGbids []string) []string {
	if len(gbids) > 0 {
		return gbids
	}
	out := make([]string, len(knownGbids))
	copy(out, knownGbids)
	return out
}
