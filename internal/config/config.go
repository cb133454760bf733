// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config holds the Options the LCD and its command wiring read at
// startup.
package config

import "time"

// Options configures one LCD instance.
type Options struct {
	EnableAccessController bool `help:"Gate provider adds on the access controller."`

	PersistencyEnabled  bool   `name:"persistence-enabled" default:"true" help:"Load and save the local entry set to disk."`
	PersistenceFilename string `name:"persistence-file" default:"lcd-entries.json" help:"Path to the persisted local entry set."`

	FreshnessUpdateIntervalMs int64 `name:"freshness-interval-ms" default:"3600000" help:"Touch loop period, in milliseconds."`
	PurgeExpiredIntervalMs    int64 `name:"purge-interval-ms" default:"60000" help:"Expiry sweep period, in milliseconds."`
	ReAddIntervalMs           int64 `name:"readd-interval-ms" default:"604800000" help:"Re-advertise period, in milliseconds."`
	DefaultExpiryIntervalMs   int64 `name:"default-expiry-ms" default:"2592000000" help:"Entry TTL applied when a caller does not override expiryDateMs."`

	KnownGBIDs          []string `name:"known-gbids" default:"joynrdefaultgbid" help:"Ordered list of all known backend identifiers."`
	ClusterControllerID string   `name:"cluster-controller-id" required:"" help:"Opaque identifier used in touch/removeStale calls."`
	LocalAddress        string   `name:"local-address" required:"" help:"Serialized routing address used when advertising own globals."`

	GCDBaseURL string `name:"gcd-url" required:"" help:"Base URL of the remote Global Capabilities Directory."`

	ListenAddr string `name:"listen" default:":4242" help:"HTTP listen address for the RPC surface."`
}

// FreshnessInterval returns FreshnessUpdateIntervalMs as a time.Duration.
func (o Options) FreshnessInterval() time.Duration {
	return time.Duration(o.FreshnessUpdateIntervalMs) * time.Millisecond
}

// PurgeExpiredInterval returns PurgeExpiredIntervalMs as a time.Duration.
func (o Options) PurgeExpiredInterval() time.Duration {
	return time.Duration(o.PurgeExpiredIntervalMs) * time.Millisecond
}

// ReAddInterval returns ReAddIntervalMs as a time.Duration.
func (o Options) ReAddInterval() time.Duration {
	return time.Duration(o.ReAddIntervalMs) * time.Millisecond
}
