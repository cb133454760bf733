// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package model holds the value types exchanged between the Local
// Capabilities Directory and its callers: discovery entries, their query-side
// QoS, and the routing addresses carried by globally registered entries.
package model

import "math"

// InternalProviderParameter is the reserved custom-parameter key that marks a
// discovery entry as the cluster controller's own internal provider. Entries
// carrying it never expire (see LCD.Add in internal/lcd).
const InternalProviderParameter = "___CC.InternalProvider___"

// NeverExpires is the expiry sentinel used for internal providers.
const NeverExpires = math.MaxInt64

// Scope distinguishes providers known only to this cluster controller from
// providers also advertised to the Global Capabilities Directory.
type Scope int

const (
	ScopeLocal Scope = iota
	ScopeGlobal
)

func (s Scope) String() string {
	if s == ScopeGlobal {
		return "GLOBAL"
	}
	return "LOCAL"
}

// Version is a provider's (major, minor) interface version.
type Version struct {
	Major int32
	Minor int32
}

// ProviderQos is the quality-of-service attached to a registered provider.
type ProviderQos struct {
	Scope            Scope
	Priority         int64
	CustomParameters map[string]string
	SupportsOnChange bool
}

// IsInternalProvider reports whether q carries the reserved internal-provider
// marker parameter.
func (q ProviderQos) IsInternalProvider() bool {
	_, ok := q.CustomParameters[InternalProviderParameter]
	return ok
}

// DiscoveryEntry is a provider registration: identity, version, addressing
// coordinates, QoS, and liveness timestamps.
type DiscoveryEntry struct {
	ParticipantID   string
	ProviderVersion Version
	Domain          string
	InterfaceName   string
	Qos             ProviderQos
	LastSeenDateMs  int64
	ExpiryDateMs    int64
	PublicKeyID     string
}

// Key identifies the (domain, interfaceName) bucket an entry is looked up
// under for domain/interface queries.
type Key struct {
	Domain        string
	InterfaceName string
}

// Key returns the domain/interface lookup key for e.
func (e DiscoveryEntry) Key() Key {
	return Key{Domain: e.Domain, InterfaceName: e.InterfaceName}
}

// IsExpired reports whether e's expiry has passed as of now (milliseconds
// since epoch).
func (e DiscoveryEntry) IsExpired(nowMs int64) bool {
	return e.ExpiryDateMs < nowMs
}

// PID returns e.ParticipantID as a method, so DiscoveryEntry and its
// embedders satisfy store.Entry without exposing the field directly through
// an interface.
func (e DiscoveryEntry) PID() string { return e.ParticipantID }

// Expiry returns e.ExpiryDateMs.
func (e DiscoveryEntry) Expiry() int64 { return e.ExpiryDateMs }

// LastSeen returns e.LastSeenDateMs.
func (e DiscoveryEntry) LastSeen() int64 { return e.LastSeenDateMs }

// sameRegistration reports whether e and other describe the same logical
// registration, ignoring the liveness timestamps — used to decide whether a
// repeated add is idempotent. The tolerance policy for LastSeenDateMs drift
// between re-adds is left unspecified upstream; we require identity on every
// field but the two timestamps (see DESIGN.md, Open Questions).
func (e DiscoveryEntry) sameRegistration(other DiscoveryEntry) bool {
	if e.ParticipantID != other.ParticipantID ||
		e.ProviderVersion != other.ProviderVersion ||
		e.Domain != other.Domain ||
		e.InterfaceName != other.InterfaceName ||
		e.PublicKeyID != other.PublicKeyID {
		return false
	}
	if e.Qos.Scope != other.Qos.Scope || e.Qos.Priority != other.Qos.Priority ||
		e.Qos.SupportsOnChange != other.Qos.SupportsOnChange {
		return false
	}
	if len(e.Qos.CustomParameters) != len(other.Qos.CustomParameters) {
		return false
	}
	for k, v := range e.Qos.CustomParameters {
		if ov, ok := other.Qos.CustomParameters[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// SameRegistration reports whether a and b describe the same logical
// registration: identical participantId, version, domain, interface, qos and
// publicKeyId, with timestamps excluded.
func SameRegistration(a, b DiscoveryEntry) bool {
	return a.sameRegistration(b)
}

// GlobalDiscoveryEntry is a DiscoveryEntry advertised to (or discovered
// through) the Global Capabilities Directory; it carries the opaque, already
// serialized routing address.
type GlobalDiscoveryEntry struct {
	DiscoveryEntry
	Address string
}

// DiscoveryEntryWithMetaInfo is the shape returned from a lookup: a
// DiscoveryEntry plus whether it originated from the local store and, for
// global-origin entries, the address it was discovered at.
type DiscoveryEntryWithMetaInfo struct {
	DiscoveryEntry
	Address string
	IsLocal bool
}

// WithMetaInfo wraps e as a lookup result, marked local or not by isLocal.
func (e DiscoveryEntry) WithMetaInfo(isLocal bool) DiscoveryEntryWithMetaInfo {
	return DiscoveryEntryWithMetaInfo{DiscoveryEntry: e, IsLocal: isLocal}
}

// WithMetaInfo wraps a global entry as a lookup result, carrying its address.
func (e GlobalDiscoveryEntry) WithMetaInfo(isLocal bool) DiscoveryEntryWithMetaInfo {
	return DiscoveryEntryWithMetaInfo{DiscoveryEntry: e.DiscoveryEntry, Address: e.Address, IsLocal: isLocal}
}
