// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package detection

import (
	"context"
	"time"

	"github.com/tomtom215/tripwire/internal/logging"
	"github.com/tomtom215/tripwire/internal/metrics"
)

// CleanupResult reports what one retention pass removed.
type CleanupResult struct {
	LedgerRemoved    int `json:"ledger_removed"`
	ClientsRemoved   int `json:"clients_removed"`
	BlocklistRemoved int `json:"blocklist_removed"`
}

// Cleanup drops ledger events older than the ledger retention, prunes
// tracker history older than the tracker retention (deleting clients left
// with none), and removes expired blocklist entries when a block TTL is set.
func (e *Engine) Cleanup(now time.Time) CleanupResult {
	var res CleanupResult

	res.LedgerRemoved = e.ledger.PruneOlderThan(now.Add(-e.cfg.Retention.LedgerMaxAge))
	res.ClientsRemoved = e.windows.Prune(e.cfg.Retention.TrackerMaxAge, now)
	if e.cfg.BlockTTL > 0 {
		res.BlocklistRemoved = e.blocklist.PruneExpired(now)
	}

	metrics.RecordRetention(res.LedgerRemoved, res.ClientsRemoved, res.BlocklistRemoved)
	metrics.UpdateStoreGauges(e.blocklist.Len(), e.ledger.Len(), e.windows.Len())

	logging.Debug().
		Int("ledger_removed", res.LedgerRemoved).
		Int("clients_removed", res.ClientsRemoved).
		Int("blocklist_removed", res.BlocklistRemoved).
		Msg("retention cleanup completed")

	return res
}

// RunRetention runs Cleanup every interval until ctx is canceled and returns
// ctx.Err(). A non-positive interval uses the configured retention interval.
//
// This method is designed for use with suture supervision.
func (e *Engine) RunRetention(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = e.cfg.Retention.Interval
	}

	logging.Info().Str("interval", interval.String()).Msg("starting retention scheduler")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("retention scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			e.Cleanup(e.clock())
		}
	}
}
