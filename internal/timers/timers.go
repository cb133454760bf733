// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package timers wraps the Local Capabilities Directory's periodic
// maintenance loops (freshness touch, expiry sweep, re-advertise) as
// suture.Service implementations the process supervisor can run and
// restart.
package timers

import (
	"context"
	"time"

	"github.com/bmwcarit/joynr-sub005/internal/lcd"
)

// loop runs fn once per interval until ctx is canceled, satisfying
// suture.Service.
type loop struct {
	name     string
	interval time.Duration
	fn       func(context.Context)
}

func (l *loop) Serve(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.fn(ctx)
		}
	}
}

func (l *loop) String() string { return l.name }

// NewFreshnessLoop runs core.RunFreshnessCycle every interval.
func NewFreshnessLoop(core *lcd.LCD, interval time.Duration) *loop {
	return &loop{name: "freshness", interval: interval, fn: core.RunFreshnessCycle}
}

// NewExpirySweepLoop runs core.RunExpirySweep every interval.
func NewExpirySweepLoop(core *lcd.LCD, interval time.Duration) *loop {
	return &loop{name: "expiry-sweep", interval: interval, fn: core.RunExpirySweep}
}

// NewReAddLoop runs core.RunReAdd every interval.
func NewReAddLoop(core *lcd.LCD, interval time.Duration) *loop {
	return &loop{name: "re-add", interval: interval, fn: core.RunReAdd}
}
