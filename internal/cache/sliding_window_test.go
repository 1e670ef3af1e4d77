// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

var baseTime = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func TestTimestampWindows_CountInWindow(t *testing.T) {
	t.Parallel()

	tw := NewTimestampWindows()
	for i := 0; i < 10; i++ {
		tw.Record("10.0.0.1", baseTime.Add(time.Duration(i)*time.Minute))
	}
	now := baseTime.Add(9 * time.Minute)

	tests := []struct {
		name   string
		window time.Duration
		want   int
	}{
		// Ordered widest first: each query prunes what falls outside its window.
		{"whole range", 9 * time.Minute, 10},
		{"last five minutes", 5 * time.Minute, 6},
		{"last minute", time.Minute, 2},
		{"zero window", 0, 1},
	}
	for _, tt := range tests {
		if got := tw.CountInWindow("10.0.0.1", tt.window, now); got != tt.want {
			t.Errorf("%s: CountInWindow() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestTimestampWindows_UnknownKey(t *testing.T) {
	t.Parallel()

	tw := NewTimestampWindows()
	if got := tw.CountInWindow("missing", time.Minute, baseTime); got != 0 {
		t.Errorf("CountInWindow() on unknown key = %d, want 0", got)
	}
	if tw.Len() != 0 {
		t.Errorf("Len() = %d, want 0 (query must not create keys)", tw.Len())
	}
}

func TestTimestampWindows_PruneOnQuery(t *testing.T) {
	t.Parallel()

	tw := NewTimestampWindows()
	tw.Record("c", baseTime)
	tw.Record("c", baseTime.Add(30*time.Second))
	tw.Record("c", baseTime.Add(2*time.Minute))

	now := baseTime.Add(2 * time.Minute)
	if got := tw.CountInWindow("c", time.Minute, now); got != 1 {
		t.Fatalf("CountInWindow() = %d, want 1", got)
	}

	// The two older entries were pruned, widening the window cannot bring them back.
	if got := tw.CountInWindow("c", 10*time.Minute, now); got != 1 {
		t.Errorf("CountInWindow() after prune = %d, want 1", got)
	}
}

func TestTimestampWindows_HorizonKeepsLongerWindow(t *testing.T) {
	t.Parallel()

	tw := NewTimestampWindows(WithHorizon(5 * time.Minute))
	for i := 0; i < 5; i++ {
		tw.Record("c", baseTime.Add(time.Duration(i)*time.Minute))
	}
	now := baseTime.Add(4 * time.Minute)

	if got := tw.CountInWindow("c", time.Minute, now); got != 2 {
		t.Fatalf("one minute count = %d, want 2", got)
	}
	if got := tw.CountInWindow("c", 5*time.Minute, now); got != 5 {
		t.Errorf("five minute count after short query = %d, want 5", got)
	}
}

func TestTimestampWindows_ClampsOutOfOrder(t *testing.T) {
	t.Parallel()

	tw := NewTimestampWindows()
	tw.Record("c", baseTime.Add(time.Minute))
	tw.Record("c", baseTime) // earlier than last, clamped

	if got := tw.CountInWindow("c", 10*time.Second, baseTime.Add(time.Minute)); got != 2 {
		t.Errorf("CountInWindow() = %d, want 2", got)
	}
}

func TestTimestampWindows_MaxPerKey(t *testing.T) {
	t.Parallel()

	tw := NewTimestampWindows(WithMaxPerKey(3))
	for i := 0; i < 10; i++ {
		tw.Record("c", baseTime.Add(time.Duration(i)*time.Second))
	}

	if got := tw.CountInWindow("c", time.Hour, baseTime.Add(10*time.Second)); got != 3 {
		t.Errorf("CountInWindow() = %d, want 3", got)
	}
}

func TestTimestampWindows_Prune(t *testing.T) {
	t.Parallel()

	tw := NewTimestampWindows()
	tw.Record("stale", baseTime)
	tw.Record("mixed", baseTime)
	tw.Record("mixed", baseTime.Add(23*time.Hour))
	tw.Record("fresh", baseTime.Add(24*time.Hour))

	now := baseTime.Add(25 * time.Hour)
	removed := tw.Prune(24*time.Hour, now)

	if removed != 1 {
		t.Errorf("Prune() removed = %d, want 1", removed)
	}
	if tw.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tw.Len())
	}
	if got := tw.CountInWindow("mixed", 48*time.Hour, now); got != 1 {
		t.Errorf("mixed count = %d, want 1", got)
	}
}

func TestTimestampWindows_RemoveAndKeys(t *testing.T) {
	t.Parallel()

	tw := NewTimestampWindows()
	tw.Record("a", baseTime)
	tw.Record("b", baseTime)
	tw.Remove("a")

	keys := tw.Keys()
	if len(keys) != 1 || keys[0] != "b" {
		t.Errorf("Keys() = %v, want [b]", keys)
	}
}

func TestTimestampWindows_Concurrent(t *testing.T) {
	t.Parallel()

	tw := NewTimestampWindows()
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("client-%d", id%4)
			for i := 0; i < 200; i++ {
				tw.Record(key, baseTime)
				tw.CountInWindow(key, time.Minute, baseTime)
			}
		}(g)
	}
	wg.Wait()

	total := 0
	for i := 0; i < 4; i++ {
		total += tw.CountInWindow(fmt.Sprintf("client-%d", i), time.Minute, baseTime)
	}
	if total != 1600 {
		t.Errorf("total recorded = %d, want 1600", total)
	}
}
