// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package lcd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmwcarit/joynr-sub005/internal/accesscontrol"
	"github.com/bmwcarit/joynr-sub005/internal/config"
	"github.com/bmwcarit/joynr-sub005/internal/model"
	"github.com/bmwcarit/joynr-sub005/internal/router"
)

// fakeGcd is a fully synchronous Client stand-in: every call invokes its
// callback inline, on the caller's goroutine, unless the test parks it on
// blockedLookup.
type fakeGcd struct {
	addCalls    []fakeAddCall
	removeCalls []fakeRemoveCall

	addResult    func(fakeAddCall) (ok bool, code model.DiscoveryErrorCode)
	removeResult func(fakeRemoveCall) (ok bool, code model.DiscoveryErrorCode)

	// blockedLookup, when set, parks LookupByDomainInterface indefinitely
	// instead of calling back, simulating an in-flight GCD round trip.
	blockedLookup bool
}

type fakeAddCall struct {
	entry model.GlobalDiscoveryEntry
	gbids []string
}

type fakeRemoveCall struct {
	participantID string
	gbids         []string
}

func (f *fakeGcd) Add(ctx context.Context, entry model.GlobalDiscoveryEntry, await bool, gbids []string, onSuccess func(), onAppError func(model.DiscoveryErrorCode), onRuntimeError func(error)) {
	call := fakeAddCall{entry: entry, gbids: gbids}
	f.addCalls = append(f.addCalls, call)
	if f.addResult == nil {
		onSuccess()
		return
	}
	if ok, code := f.addResult(call); ok {
		onSuccess()
	} else {
		onAppError(code)
	}
}

func (f *fakeGcd) Remove(ctx context.Context, participantID string, gbids []string, onSuccess func(), onAppError func(model.DiscoveryErrorCode, []string), onRuntimeError func(error)) {
	call := fakeRemoveCall{participantID: participantID, gbids: gbids}
	f.removeCalls = append(f.removeCalls, call)
	if f.removeResult == nil {
		onSuccess()
		return
	}
	if ok, code := f.removeResult(call); ok {
		onSuccess()
	} else {
		onAppError(code, gbids)
	}
}

func (f *fakeGcd) LookupByDomainInterface(ctx context.Context, domains []string, interfaceName string, gbids []string, ttlMs int64, onSuccess func([]model.GlobalDiscoveryEntry), onAppError func(model.DiscoveryErrorCode), onRuntimeError func(error)) {
	if f.blockedLookup {
		return
	}
	onSuccess(nil)
}

func (f *fakeGcd) LookupByParticipantID(ctx context.Context, participantID string, gbids []string, ttlMs int64, onSuccess func(model.GlobalDiscoveryEntry, bool), onAppError func(model.DiscoveryErrorCode), onRuntimeError func(error)) {
	onSuccess(model.GlobalDiscoveryEntry{}, false)
}

func (f *fakeGcd) Touch(ctx context.Context, clusterControllerID string, participantIDs []string, gbid string, onSuccess func(), onRuntimeError func(error)) {
	onSuccess()
}

func (f *fakeGcd) RemoveStale(ctx context.Context, clusterControllerID string, maxLastSeenMs int64, gbid string, onSuccess func(), onRuntimeError func(error)) {
	onSuccess()
}

func newTestLCD(t *testing.T, gcd *fakeGcd) *LCD {
	t.Helper()
	cfg := config.Options{
		KnownGBIDs:              []string{"G1", "G2", "G3"},
		ClusterControllerID:     "cc1",
		LocalAddress:            `{"type":"mqtt","mqtt":{"brokerUri":"G1","topic":"localTopic"}}`,
		DefaultExpiryIntervalMs: 1000000,
		PersistencyEnabled:      false,
	}
	core, err := New(cfg, gcd, accesscontrol.AllowAll{}, router.Noop{})
	require.NoError(t, err)
	return core
}

func globalEntry(pid string) model.DiscoveryEntry {
	return model.DiscoveryEntry{
		ParticipantID: pid,
		Domain:        "d",
		InterfaceName: "I",
		Qos:           model.ProviderQos{Scope: model.ScopeGlobal},
	}
}

// Scenario 1: add-global then lookup GLOBAL_ONLY, same and different backend.
func TestAddGlobalThenLookupGlobalOnlyShadowsBackendFilter(t *testing.T) {
	gcd := &fakeGcd{}
	core := newTestLCD(t, gcd)

	var succeeded bool
	core.Add(context.Background(), CallContext{}, globalEntry("p1"), true, []string{"G2"},
		func() { succeeded = true },
		func(err error) { t.Fatalf("unexpected error: %v", err) },
	)
	require.True(t, succeeded)
	require.Len(t, gcd.addCalls, 1)
	assert.Equal(t, []string{"G2"}, gcd.addCalls[0].gbids)

	for _, gbids := range [][]string{{"G2"}, {"G1"}} {
		var found bool
		core.LookupByParticipantID(context.Background(), "p1", model.DiscoveryQos{DiscoveryScope: model.GlobalOnly}, gbids,
			func(e model.DiscoveryEntryWithMetaInfo, ok bool) {
				found = ok
				assert.True(t, e.IsLocal)
			},
			func(err error) { t.Fatalf("unexpected error: %v", err) },
		)
		assert.True(t, found)
	}
}

// Scenario 2: a LOCAL_THEN_GLOBAL lookup parked on a blocked GCD call is
// resolved by a subsequent local add for the same (domain, interface).
func TestPendingLookupResolvedByLocalAdd(t *testing.T) {
	gcd := &fakeGcd{blockedLookup: true}
	core := newTestLCD(t, gcd)

	var delivered []model.DiscoveryEntryWithMetaInfo
	core.LookupByDomainInterface(context.Background(), []string{"d"}, "I",
		model.DiscoveryQos{DiscoveryScope: model.LocalThenGlobal}, []string{"G1", "G2", "G3"},
		func(entries []model.DiscoveryEntryWithMetaInfo) { delivered = entries },
		func(err error) { t.Fatalf("unexpected error: %v", err) },
	)
	assert.Nil(t, delivered)

	local := model.DiscoveryEntry{ParticipantID: "p2", Domain: "d", InterfaceName: "I", Qos: model.ProviderQos{Scope: model.ScopeLocal}}
	core.Add(context.Background(), CallContext{}, local, false, nil, func() {}, func(error) {})

	require.Len(t, delivered, 1)
	assert.Equal(t, "p2", delivered[0].ParticipantID)
	assert.True(t, delivered[0].IsLocal)
}

// Scenario 4: remove with GCD app-error NO_ENTRY_FOR_PARTICIPANT still drops
// the local entry and reports success.
func TestRemoveNoEntryForParticipantStillSucceedsLocally(t *testing.T) {
	gcd := &fakeGcd{
		removeResult: func(fakeRemoveCall) (bool, model.DiscoveryErrorCode) {
			return false, model.NoEntryForParticipant
		},
	}
	core := newTestLCD(t, gcd)
	core.Add(context.Background(), CallContext{}, globalEntry("p1"), true, nil, func() {}, func(error) {})

	var succeeded bool
	core.Remove(context.Background(), "p1", func() { succeeded = true }, func(err error) { t.Fatalf("unexpected error: %v", err) })

	assert.True(t, succeeded)
	_, ok := core.store.LookupLocalByParticipantID("p1")
	assert.False(t, ok)
}

// Scenario 5: remove with GCD app-error INVALID_GBID leaves local state
// untouched and reports the error.
func TestRemoveInvalidGbidLeavesLocalStateUntouched(t *testing.T) {
	gcd := &fakeGcd{
		removeResult: func(fakeRemoveCall) (bool, model.DiscoveryErrorCode) {
			return false, model.InvalidGbid
		},
	}
	core := newTestLCD(t, gcd)
	core.Add(context.Background(), CallContext{}, globalEntry("p1"), true, nil, func() {}, func(error) {})

	var gotErr error
	core.Remove(context.Background(), "p1", func() { t.Fatal("unexpected success") }, func(err error) { gotErr = err })

	require.Error(t, gotErr)
	discErr, ok := gotErr.(*model.DiscoveryError)
	require.True(t, ok)
	assert.Equal(t, model.InvalidGbid, discErr.Code)

	_, ok = core.store.LookupLocalByParticipantID("p1")
	assert.True(t, ok)
}

// Idempotent re-add with a new GBID set extends the recorded union.
func TestIdempotentAddUnionsGbidsInFirstAppearanceOrder(t *testing.T) {
	gcd := &fakeGcd{}
	core := newTestLCD(t, gcd)

	entry := globalEntry("p1")
	core.Add(context.Background(), CallContext{}, entry, true, []string{"G1"}, func() {}, func(error) {})
	core.Add(context.Background(), CallContext{}, entry, true, []string{"G2"}, func() {}, func(error) {})

	assert.Equal(t, []string{"G1", "G2"}, core.store.GbidsFor("p1"))
}

// Scenario 6: the re-add loop re-issues gcd.add for every globally-scoped
// local entry, never shortening expiryDateMs.
func TestRunReAddReissuesGlobalEntriesWithoutShorteningExpiry(t *testing.T) {
	gcd := &fakeGcd{}
	core := newTestLCD(t, gcd)

	entry := globalEntry("p1")
	entry.ExpiryDateMs = 999999999999
	core.Add(context.Background(), CallContext{}, entry, true, []string{"G1"}, func() {}, func(error) {})
	gcd.addCalls = nil

	core.RunReAdd(context.Background())

	require.Len(t, gcd.addCalls, 1)
	reAdded, _ := core.store.LookupLocalByParticipantID("p1")
	assert.GreaterOrEqual(t, reAdded.ExpiryDateMs, entry.ExpiryDateMs)
}
