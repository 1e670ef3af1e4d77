// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package cache

import (
	"hash/maphash"
	"sort"
	"sync"
	"time"
)

const (
	// timestampShards is the number of independently locked shards.
	// Must be a power of two.
	timestampShards = 16

	// DefaultMaxPerKey bounds the timestamps retained for a single key.
	DefaultMaxPerKey = 10000
)

// TimestampWindows keeps an ordered list of event timestamps per key and
// answers "how many events in the last N" queries against it.
//
// Keys are spread over 16 shards selected by maphash, each with its own mutex,
// so requests from different clients rarely contend. Within a key the
// timestamps are kept non-decreasing, which lets window counts use binary
// search instead of a linear scan.
//
// Complexity:
//   - Record: O(1) amortized
//   - CountInWindow: O(log n) where n = timestamps stored for the key
//   - Prune: O(total timestamps)
type TimestampWindows struct {
	shards    [timestampShards]timestampShard
	seed      maphash.Seed
	maxPerKey int
	horizon   time.Duration
}

type timestampShard struct {
	mu   sync.Mutex
	keys map[string][]time.Time
}

// TimestampWindowsOption configures a TimestampWindows.
type TimestampWindowsOption func(*TimestampWindows)

// WithMaxPerKey caps the number of timestamps kept per key. The oldest
// timestamps are dropped first. Values <= 0 disable the cap.
func WithMaxPerKey(n int) TimestampWindowsOption {
	return func(tw *TimestampWindows) {
		if n > 0 {
			tw.maxPerKey = n
		}
	}
}

// WithHorizon sets the longest window any reader will ask about.
// CountInWindow never prunes entries that are still inside the horizon, so a
// short-window query cannot discard data that a longer window still needs.
func WithHorizon(d time.Duration) TimestampWindowsOption {
	return func(tw *TimestampWindows) {
		tw.horizon = d
	}
}

// NewTimestampWindows creates an empty store.
func NewTimestampWindows(opts ...TimestampWindowsOption) *TimestampWindows {
	tw := &TimestampWindows{
		seed:      maphash.MakeSeed(),
		maxPerKey: DefaultMaxPerKey,
	}
	for i := range tw.shards {
		tw.shards[i].keys = make(map[string][]time.Time)
	}
	for _, opt := range opts {
		opt(tw)
	}
	return tw
}

func (tw *TimestampWindows) shard(key string) *timestampShard {
	h := maphash.String(tw.seed, key)
	return &tw.shards[h&(timestampShards-1)]
}

// Record appends ts to the key's timestamps, creating the key if needed.
// A timestamp earlier than the last stored one is clamped to it so the
// sequence stays ordered.
func (tw *TimestampWindows) Record(key string, ts time.Time) {
	s := tw.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.keys[key]
	if n := len(list); n > 0 && ts.Before(list[n-1]) {
		ts = list[n-1]
	}
	list = append(list, ts)

	if tw.maxPerKey > 0 && len(list) > tw.maxPerKey {
		drop := len(list) - tw.maxPerKey
		list = append(list[:0], list[drop:]...)
	}
	s.keys[key] = list
}

// CountInWindow returns the number of timestamps for key within
// [now-window, now]. Entries older than the cutoff (or the horizon, whichever
// reaches further back) are pruned as a side effect. Unknown keys return 0.
func (tw *TimestampWindows) CountInWindow(key string, window time.Duration, now time.Time) int {
	s := tw.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.keys[key]
	if !ok {
		return 0
	}

	keep := window
	if tw.horizon > keep {
		keep = tw.horizon
	}
	if drop := firstAtOrAfter(list, now.Add(-keep)); drop > 0 {
		list = append(list[:0], list[drop:]...)
		s.keys[key] = list
	}

	lo := firstAtOrAfter(list, now.Add(-window))
	hi := sort.Search(len(list), func(i int) bool {
		return list[i].After(now)
	})
	if hi < lo {
		return 0
	}
	return hi - lo
}

// Prune removes timestamps older than now-retention from every key and
// deletes keys left empty. It returns the number of keys deleted.
func (tw *TimestampWindows) Prune(retention time.Duration, now time.Time) int {
	cutoff := now.Add(-retention)
	removed := 0

	for i := range tw.shards {
		s := &tw.shards[i]

		s.mu.Lock()
		keys := make([]string, 0, len(s.keys))
		for k := range s.keys {
			keys = append(keys, k)
		}
		for _, k := range keys {
			list := s.keys[k]
			drop := firstAtOrAfter(list, cutoff)
			if drop == len(list) {
				delete(s.keys, k)
				removed++
				continue
			}
			if drop > 0 {
				s.keys[k] = append(list[:0], list[drop:]...)
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Remove deletes all timestamps for key.
func (tw *TimestampWindows) Remove(key string) {
	s := tw.shard(key)
	s.mu.Lock()
	delete(s.keys, key)
	s.mu.Unlock()
}

// Len returns the number of tracked keys.
func (tw *TimestampWindows) Len() int {
	n := 0
	for i := range tw.shards {
		s := &tw.shards[i]
		s.mu.Lock()
		n += len(s.keys)
		s.mu.Unlock()
	}
	return n
}

// Keys returns all tracked keys in no particular order.
func (tw *TimestampWindows) Keys() []string {
	var keys []string
	for i := range tw.shards {
		s := &tw.shards[i]
		s.mu.Lock()
		for k := range s.keys {
			keys = append(keys, k)
		}
		s.mu.Unlock()
	}
	return keys
}

// firstAtOrAfter returns the index of the first timestamp >= cutoff.
func firstAtOrAfter(list []time.Time, cutoff time.Time) int {
	return sort.Search(len(list), func(i int) bool {
		return !list[i].Before(cutoff)
	})
}
