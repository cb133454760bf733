// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package rpcapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lcd_rpc_requests_total",
		Help: "RPC requests, by operation and outcome (success, access_denied, invalid_gbid, unknown_gbid, no_entry_for_participant, no_entry_for_selected_backends, internal_error).",
	}, []string{"operation", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lcd_rpc_request_duration_seconds",
		Help:    "RPC request latency, by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lcd_rpc_rate_limited_total",
		Help: "Requests rejected by the per-caller rate limiter.",
	})
)
