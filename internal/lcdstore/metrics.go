// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package lcdstore

import "github.com/prometheus/client_golang/prometheus"

var cacheEntries = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "lcd",
	Subsystem: "store",
	Name:      "entries",
	Help:      "Number of entries currently held per cache.",
}, []string{"cache"})

func init() {
	prometheus.MustRegister(cacheEntries)
}

// reportSizes updates the cache-size gauges. Called with cacheLock already
// released; LocalEntries and GlobalEntries take their own brief read lock.
func (s *LcdStore) reportSizes() {
	cacheEntries.WithLabelValues("local").Set(float64(len(s.LocalEntries())))
	cacheEntries.WithLabelValues("global").Set(float64(len(s.GlobalEntries())))
}
