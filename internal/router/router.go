// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package router declares the message-router contract the LCD calls as an
// opaque collaborator: installing and tearing down routes is someone else's
// concern, the LCD only needs to know whether the call succeeded.
package router

import "github.com/bmwcarit/joynr-sub005/internal/model"

// MessageRouter routes messages to participants once their address is
// known. The LCD never inspects routing state directly.
type MessageRouter interface {
	// AddNextHop installs a route to participantID at address. sticky
	// routes are never evicted by the router's own housekeeping.
	AddNextHop(participantID string, address model.Address, isGloballyVisible bool, expiryDateMs int64, sticky bool) error

	RemoveNextHop(participantID string)
}

// Noop discards every call; useful for tests and for embedders that haven't
// wired a real router yet.
type Noop struct{}

func (Noop) AddNextHop(string, model.Address, bool, int64, bool) error { return nil }
func (Noop) RemoveNextHop(string)                                      {}
