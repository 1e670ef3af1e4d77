// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

// Package detection scores inbound HTTP requests against a set of threat
// detectors and decides whether to allow, log, alert on or block them.
//
// Detection Architecture:
//
//	RequestEvent -> Engine.Evaluate -> Registry -> Score -> Level -> Action
//	                    |                                              |
//	                    v                                              v
//	              Blocklist check                      Ledger / Blocklist / counters
//	                                                              |
//	                                                              v
//	                                                 dispatcher -> Webhook / WebSocket
//
// Each request is recorded in a per-client timestamp tracker, then every
// enabled detector runs against it. Matched detector weights are summed into
// a score, which maps to a threat level:
//
//	score >= 80  critical  -> block (client added to the blocklist)
//	score >= 60  high      -> alert (ledger event)
//	score >= 40  medium    -> log
//	score >= 20  low       -> log
//	otherwise    safe      -> allow
//
// Blocklisted clients short-circuit to block without running detectors or
// being recorded. Alert and block events are appended to a bounded ledger
// and handed to notifiers and the live feed on a separate goroutine, so
// Evaluate itself never performs I/O.
//
// Built-in detectors:
//   - sql_injection (50): SQL keywords and tautologies
//   - xss (40): script tags, javascript: URLs, inline handlers
//   - path_traversal (45): "../" and its encoded forms
//   - brute_force (35): more than 20 requests in 5 minutes
//   - bot_traffic (25): crawler and tooling user agents
//   - high_frequency (20): more than 100 requests in 1 minute
//   - suspicious_user_agent (15): empty, short or bare tool user agents
//
// Additional detectors implement Detector and are added with
// Registry.Register. Neither scoring nor decision logic changes.
//
// All state is in memory and lost on restart. Engine.Cleanup, run
// periodically by RunRetention, bounds its growth.
package detection
