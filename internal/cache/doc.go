// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

/*
Package cache provides the in-memory data structures behind request tracking
and keyword matching.

# Overview

The package provides:
  - TimestampWindows: per-key sliding windows of event timestamps
  - KeywordMatcher: an Aho-Corasick automaton for case-insensitive
    multi-keyword search

Both are safe for concurrent use.

# TimestampWindows

Keys (client identifiers) are spread over 16 shards chosen by maphash, each
guarded by its own mutex. Timestamps within a key are kept non-decreasing, so
a window count is a binary search:

	tw := cache.NewTimestampWindows(
	    cache.WithMaxPerKey(10000),
	    cache.WithHorizon(5*time.Minute),
	)

	tw.Record(clientIP, now)
	n := tw.CountInWindow(clientIP, time.Minute, now)

	// Periodic retention
	removed := tw.Prune(24*time.Hour, now)

CountInWindow prunes entries older than the larger of the queried window and
the configured horizon. Prune deletes keys left with no timestamps.

# Performance Characteristics

  - Record: O(1) amortized, one shard lock
  - CountInWindow: O(log n) for the count plus pruning of expired entries
  - Prune: O(keys + removed entries), one shard locked at a time

# KeywordMatcher

The matcher is built once and is immutable afterwards:

	m := cache.NewKeywordMatcher([]string{"bot", "crawler", "curl"})
	if kw, ok := m.First(userAgent); ok {
	    // matched kw
	}

Search cost is linear in the input length regardless of keyword count.
*/
package cache
