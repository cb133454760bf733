// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package rpcapi

import (
	"sync"

	"github.com/golang/groupcache/lru"
	"golang.org/x/time/rate"
)

// safeCache wraps an lru.Cache with a mutex, since lru.Cache has no internal
// locking of its own.
type safeCache struct {
	*lru.Cache
	mut sync.Mutex
}

func (s *safeCache) get(key string) (val interface{}, ok bool) {
	s.mut.Lock()
	val, ok = s.Cache.Get(key)
	s.mut.Unlock()
	return
}

func (s *safeCache) add(key string, val interface{}) {
	s.mut.Lock()
	s.Cache.Add(key, val)
	s.mut.Unlock()
}

// callerLimiters hands out one token-bucket limiter per caller, evicting
// the least recently used once the cache is full.
type callerLimiters struct {
	cache *safeCache
	r     rate.Limit
	burst int
}

func newCallerLimiters(size int, ratePerSecond float64, burst int) *callerLimiters {
	return &callerLimiters{
		cache: &safeCache{Cache: lru.New(size)},
		r:     rate.Limit(ratePerSecond),
		burst: burst,
	}
}

func (c *callerLimiters) allow(caller string) bool {
	v, ok := c.cache.get(caller)
	var lim *rate.Limiter
	if ok {
		lim = v.(*rate.Limiter)
	} else {
		lim = rate.NewLimiter(c.r, c.burst)
		c.cache.add(caller, lim)
	}
	return lim.Allow()
}
