// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package detection

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestOverallThreatLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		events int
		want   ThreatLevel
	}{
		{0, LevelSafe},
		{1, LevelLow},
		{2, LevelLow},
		{3, LevelMedium},
		{5, LevelMedium},
		{6, LevelHigh},
		{10, LevelHigh},
		{11, LevelCritical},
	}
	for _, tt := range tests {
		if got := OverallThreatLevel(tt.events); got != tt.want {
			t.Errorf("OverallThreatLevel(%d) = %q, want %q", tt.events, got, tt.want)
		}
	}
}

func TestEngine_SecurityMetricsWindows(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	e := newTestEngine(t, clock)
	now := clock.Now()

	// Three events inside the last hour, two more inside the last day.
	for _, age := range []time.Duration{time.Minute, 10 * time.Minute, 50 * time.Minute, 2 * time.Hour, 20 * time.Hour} {
		e.ledger.Append(ThreatEvent{Timestamp: now.Add(-age), Severity: LevelHigh})
	}
	e.ledger.Append(ThreatEvent{Timestamp: now.Add(-48 * time.Hour), Severity: LevelHigh})

	m := e.SecurityMetrics(now)
	if m.ActiveThreats != 5 {
		t.Errorf("ActiveThreats = %d, want 5", m.ActiveThreats)
	}
	if m.ThreatLevel != LevelMedium {
		t.Errorf("ThreatLevel = %q, want medium", m.ThreatLevel)
	}
	if m.LedgerSize != 6 {
		t.Errorf("LedgerSize = %d, want 6", m.LedgerSize)
	}
	if !m.Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want %v", m.Timestamp, now)
	}

	if got := len(e.RecentThreats(time.Hour, now)); got != 3 {
		t.Errorf("RecentThreats(1h) = %d events, want 3", got)
	}
}

func TestSecurityMetrics_JSONFieldNames(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, newFakeClock())
	e.Evaluate(context.Background(), browserRequest("192.0.2.30", "/"))

	data, err := json.Marshal(e.SecurityMetrics(e.Now()))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"totalRequests", "blockedRequests", "suspiciousRequests", "securityAlerts", "blockedIPs", "activeThreats", "threatLevel"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing JSON field %q in %s", key, data)
		}
	}
	if fields["threatLevel"] != "safe" {
		t.Errorf("threatLevel = %v, want safe", fields["threatLevel"])
	}
}
