// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto when
the package is loaded.

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Detection Metrics:
  - tripwire_requests_total: Requests evaluated (counter)
  - tripwire_decisions_total: Decisions (counter)
    Labels: action, level
  - tripwire_threat_score: Score distribution (histogram)
  - tripwire_evaluation_duration_seconds: Evaluate latency (histogram)
  - tripwire_detector_matches_total: Matches per detector (counter)
    Labels: detector
  - tripwire_detector_panics_total: Recovered detector panics (counter)
    Labels: detector
  - tripwire_suppressed_log_lines_total: Throttled suspicious-request log lines (counter)
  - tripwire_dispatch_dropped_total: Threat events dropped on a full dispatch queue (counter)

State Metrics:
  - tripwire_blocklist_entries: Blocklist size (gauge)
  - tripwire_ledger_events: Threat ledger size (gauge)
  - tripwire_tracked_clients: Clients with request history (gauge)
  - tripwire_retention_runs_total, tripwire_retention_removed_total{store}

Notification Metrics:
  - tripwire_notifications_total: Deliveries (counter)
    Labels: notifier, result (success, failure)
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
  - circuit_breaker_requests_total{name, result}
  - circuit_breaker_state_transitions_total{name, from_state, to_state}

API Metrics:
  - api_requests_total{method, endpoint, status}
  - api_request_duration_seconds{method, endpoint}
  - api_active_requests (gauge)
  - api_rate_limit_hits_total{endpoint}

WebSocket Metrics:
  - websocket_connections (gauge)
  - websocket_messages_sent_total
  - websocket_messages_dropped_total{reason}

# Example Queries

Block rate over five minutes:

	sum(rate(tripwire_decisions_total{action="block"}[5m]))
	  / sum(rate(tripwire_requests_total[5m]))

Noisiest detector:

	topk(1, sum by (detector) (rate(tripwire_detector_matches_total[15m])))

p99 evaluation latency:

	histogram_quantile(0.99, rate(tripwire_evaluation_duration_seconds_bucket[5m]))
*/
package metrics
