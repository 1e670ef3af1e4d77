// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package detection

import (
	"time"

	"github.com/tomtom215/tripwire/internal/metrics"
)

// SecurityMetrics is a point-in-time snapshot of engine state.
// Field names follow the established camelCase JSON contract of the
// security metrics endpoint.
type SecurityMetrics struct {
	TotalRequests      int64       `json:"totalRequests"`
	BlockedRequests    int64       `json:"blockedRequests"`
	SuspiciousRequests int64       `json:"suspiciousRequests"`
	SecurityAlerts     int64       `json:"securityAlerts"`
	BlockedIPs         int         `json:"blockedIPs"`
	ActiveThreats      int         `json:"activeThreats"`
	ThreatLevel        ThreatLevel `json:"threatLevel"`
	TrackedClients     int         `json:"trackedClients"`
	LedgerSize         int         `json:"ledgerSize"`
	Timestamp          time.Time   `json:"timestamp"`
}

// OverallThreatLevel maps the number of recent threat events to a level:
// more than 10 is critical, more than 5 high, more than 2 medium, any low.
func OverallThreatLevel(recentEvents int) ThreatLevel {
	switch {
	case recentEvents > 10:
		return LevelCritical
	case recentEvents > 5:
		return LevelHigh
	case recentEvents > 2:
		return LevelMedium
	case recentEvents > 0:
		return LevelLow
	default:
		return LevelSafe
	}
}

// SecurityMetrics returns counters and derived health signals as of now.
func (e *Engine) SecurityMetrics(now time.Time) SecurityMetrics {
	m := SecurityMetrics{
		TotalRequests:      e.totalRequests.Load(),
		BlockedRequests:    e.blockedRequests.Load(),
		SuspiciousRequests: e.suspiciousRequests.Load(),
		SecurityAlerts:     e.securityAlerts.Load(),
		BlockedIPs:         e.blocklist.CountActive(now),
		ActiveThreats:      e.ledger.CountBetween(now.Add(-e.cfg.ActiveThreatWindow), now),
		ThreatLevel:        OverallThreatLevel(e.ledger.CountBetween(now.Add(-e.cfg.ThreatLevelWindow), now)),
		TrackedClients:     e.windows.Len(),
		LedgerSize:         e.ledger.Len(),
		Timestamp:          now,
	}
	metrics.UpdateStoreGauges(e.blocklist.Len(), m.LedgerSize, m.TrackedClients)
	return m
}

// RecentThreats returns ledger events from the last window as of now, oldest first.
func (e *Engine) RecentThreats(window time.Duration, now time.Time) []ThreatEvent {
	return e.ledger.Recent(window, now)
}
