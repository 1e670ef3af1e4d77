// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package detection

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"
	"sync"
	"time"
)

// BlockEntry records why and when a client was blocked.
type BlockEntry struct {
	ClientID  string     `json:"client_id"`
	Reason    string     `json:"reason"`
	BlockedAt time.Time  `json:"blocked_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (e *BlockEntry) expired(now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}

// Blocklist is the set of clients whose requests are refused outright.
// With a zero TTL entries never expire.
type Blocklist struct {
	mu      sync.RWMutex
	entries map[string]BlockEntry
	ttl     time.Duration
}

// NewBlocklist creates an empty blocklist.
func NewBlocklist(ttl time.Duration) *Blocklist {
	return &Blocklist{
		entries: make(map[string]BlockEntry),
		ttl:     ttl,
	}
}

// Add blocks client. Re-adding an active entry keeps the original entry and
// returns false.
func (b *Blocklist) Add(client, reason string, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.entries[client]; ok && !existing.expired(now) {
		return false
	}

	entry := BlockEntry{
		ClientID:  client,
		Reason:    reason,
		BlockedAt: now,
	}
	if b.ttl > 0 {
		expires := now.Add(b.ttl)
		entry.ExpiresAt = &expires
	}
	b.entries[client] = entry
	return true
}

// Contains reports whether client is blocked at now.
func (b *Blocklist) Contains(client string, now time.Time) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.entries[client]
	return ok && !entry.expired(now)
}

// Get returns the entry for client.
func (b *Blocklist) Get(client string) (BlockEntry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.entries[client]
	return entry, ok
}

// Remove unblocks client and reports whether it was present.
func (b *Blocklist) Remove(client string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.entries[client]; !ok {
		return false
	}
	delete(b.entries, client)
	return true
}

// List returns all entries sorted by block time, oldest first.
func (b *Blocklist) List() []BlockEntry {
	b.mu.RLock()
	out := make([]BlockEntry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e)
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].BlockedAt.Equal(out[j].BlockedAt) {
			return out[i].ClientID < out[j].ClientID
		}
		return out[i].BlockedAt.Before(out[j].BlockedAt)
	})
	return out
}

// Len returns the number of entries, including expired ones not yet pruned.
func (b *Blocklist) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// CountActive returns the number of entries not expired at now.
func (b *Blocklist) CountActive(now time.Time) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, entry := range b.entries {
		if !entry.expired(now) {
			n++
		}
	}
	return n
}

// PruneExpired removes expired entries and returns how many were removed.
func (b *Blocklist) PruneExpired(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for client, entry := range b.entries {
		if entry.expired(now) {
			delete(b.entries, client)
			removed++
		}
	}
	return removed
}

// Allowlist holds clients that bypass evaluation entirely.
// Entries are single IPs, CIDR prefixes or, for non-IP client identifiers,
// exact strings.
type Allowlist struct {
	prefixes []netip.Prefix
	exact    map[string]struct{}
}

// NewAllowlist parses entries. Entries containing "/" must be valid CIDRs.
func NewAllowlist(entries []string) (*Allowlist, error) {
	a := &Allowlist{exact: make(map[string]struct{})}
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAllowlistEntry, entry, err)
			}
			a.prefixes = append(a.prefixes, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			a.prefixes = append(a.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		a.exact[entry] = struct{}{}
	}
	return a, nil
}

// Contains reports whether client is allowlisted.
func (a *Allowlist) Contains(client string) bool {
	if a == nil {
		return false
	}
	if _, ok := a.exact[client]; ok {
		return true
	}
	if len(a.prefixes) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(client)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range a.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Len returns the number of allowlist entries.
func (a *Allowlist) Len() int {
	if a == nil {
		return 0
	}
	return len(a.prefixes) + len(a.exact)
}
