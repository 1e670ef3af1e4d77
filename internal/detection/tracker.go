// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package detection

import (
	"time"

	"github.com/tomtom215/tripwire/internal/cache"
)

// newTracker creates the per-client request history. The horizon is the
// widest rate detector window so that narrower queries never prune data a
// wider detector still reads.
func newTracker(cfg EngineConfig) *cache.TimestampWindows {
	return cache.NewTimestampWindows(
		cache.WithMaxPerKey(cfg.MaxTrackedPerClient),
		cache.WithHorizon(cfg.Detectors.longestWindow()),
	)
}

// windowReader binds the tracker to one evaluation's time.
type windowReader struct {
	windows *cache.TimestampWindows
	now     time.Time
}

func (r windowReader) CountInWindow(clientID string, window time.Duration) int {
	return r.windows.CountInWindow(clientID, window, r.now)
}

// TrackedClients returns the number of clients with request history.
func (e *Engine) TrackedClients() int {
	return e.windows.Len()
}
