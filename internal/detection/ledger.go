// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package detection

import (
	"sync"
	"time"
)

// DefaultLedgerCapacity is the number of threat events kept when no capacity is configured.
const DefaultLedgerCapacity = 1000

// Ledger is a bounded FIFO of threat events. When full, appending evicts the
// oldest event.
//
// Events are held in a ring buffer so Append is O(1) at capacity.
type Ledger struct {
	mu       sync.RWMutex
	events   []ThreatEvent
	head     int // index of the oldest event
	size     int
	capacity int
}

// NewLedger creates a ledger holding at most capacity events.
func NewLedger(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultLedgerCapacity
	}
	return &Ledger{
		events:   make([]ThreatEvent, capacity),
		capacity: capacity,
	}
}

// Append adds ev, evicting the oldest event when the ledger is full.
// It reports whether an event was evicted.
func (l *Ledger) Append(ev ThreatEvent) (evicted bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.size < l.capacity {
		l.events[(l.head+l.size)%l.capacity] = ev
		l.size++
		return false
	}
	l.events[l.head] = ev
	l.head = (l.head + 1) % l.capacity
	return true
}

// each calls fn for every event, oldest first. Caller must hold l.mu.
func (l *Ledger) each(fn func(ev *ThreatEvent)) {
	for i := 0; i < l.size; i++ {
		fn(&l.events[(l.head+i)%l.capacity])
	}
}

// Recent returns events with now-window <= timestamp <= now, oldest first.
func (l *Ledger) Recent(window time.Duration, now time.Time) []ThreatEvent {
	cutoff := now.Add(-window)

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]ThreatEvent, 0)
	l.each(func(ev *ThreatEvent) {
		if !ev.Timestamp.Before(cutoff) && !ev.Timestamp.After(now) {
			out = append(out, *ev)
		}
	})
	return out
}

// CountBetween counts events with from <= timestamp <= to.
func (l *Ledger) CountBetween(from, to time.Time) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	l.each(func(ev *ThreatEvent) {
		if !ev.Timestamp.Before(from) && !ev.Timestamp.After(to) {
			n++
		}
	})
	return n
}

// CountSince counts events at or after cutoff.
func (l *Ledger) CountSince(cutoff time.Time) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	l.each(func(ev *ThreatEvent) {
		if !ev.Timestamp.Before(cutoff) {
			n++
		}
	})
	return n
}

// Len returns the number of events held.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

// Capacity returns the maximum number of events held.
func (l *Ledger) Capacity() int {
	return l.capacity
}

// Snapshot returns a copy of all events, oldest first.
func (l *Ledger) Snapshot() []ThreatEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]ThreatEvent, 0, l.size)
	l.each(func(ev *ThreatEvent) {
		out = append(out, *ev)
	})
	return out
}

// PruneOlderThan drops events with a timestamp before cutoff and returns how
// many were dropped. Remaining events keep their order.
func (l *Ledger) PruneOlderThan(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := make([]ThreatEvent, l.capacity)
	n := 0
	l.each(func(ev *ThreatEvent) {
		if !ev.Timestamp.Before(cutoff) {
			kept[n] = *ev
			n++
		}
	})

	removed := l.size - n
	if removed > 0 {
		l.events = kept
		l.head = 0
		l.size = n
	}
	return removed
}
