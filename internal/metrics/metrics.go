// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Request decisions and detector matches
// - Blocklist, ledger and tracker sizes
// - Admin API latency and throughput
// - Notifier delivery and circuit breaker state
// - WebSocket live feed

var (
	// Security Engine Metrics
	SecurityRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripwire_requests_total",
			Help: "Total number of requests evaluated by the security engine",
		},
	)

	SecurityDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripwire_decisions_total",
			Help: "Total number of security decisions by action and threat level",
		},
		[]string{"action", "level"},
	)

	SecurityScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tripwire_threat_score",
			Help:    "Distribution of threat scores for evaluated requests",
			Buckets: []float64{0, 15, 20, 40, 60, 80, 100, 150, 230},
		},
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tripwire_evaluation_duration_seconds",
			Help:    "Time spent evaluating a request against all detectors",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01},
		},
	)

	DetectorMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripwire_detector_matches_total",
			Help: "Total number of detector matches",
		},
		[]string{"detector"},
	)

	DetectorPanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripwire_detector_panics_total",
			Help: "Total number of recovered detector panics",
		},
		[]string{"detector"},
	)

	SuppressedLogLines = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripwire_suppressed_log_lines_total",
			Help: "Suspicious-request log lines dropped by the log rate limiter",
		},
	)

	BlocklistSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripwire_blocklist_entries",
			Help: "Current number of blocked clients",
		},
	)

	LedgerSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripwire_ledger_events",
			Help: "Current number of threat events held in the ledger",
		},
	)

	TrackedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripwire_tracked_clients",
			Help: "Current number of clients in the request tracker",
		},
	)

	DispatchDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripwire_dispatch_dropped_total",
			Help: "Threat events dropped because the dispatch queue was full",
		},
	)

	RetentionRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripwire_retention_runs_total",
			Help: "Total number of retention cleanup passes",
		},
	)

	RetentionRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripwire_retention_removed_total",
			Help: "Entries removed by retention cleanup",
		},
		[]string{"store"}, // "ledger", "tracker", "blocklist"
	)

	// Notifier Metrics
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripwire_notifications_total",
			Help: "Total number of threat notifications by notifier and result",
		},
		[]string{"notifier", "result"}, // result: "success", "failure"
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Total number of WebSocket messages dropped",
		},
		[]string{"reason"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDecision records the outcome of one request evaluation.
func RecordDecision(action, level string, score int, duration time.Duration) {
	SecurityRequestsTotal.Inc()
	SecurityDecisions.WithLabelValues(action, level).Inc()
	SecurityScore.Observe(float64(score))
	EvaluationDuration.Observe(duration.Seconds())
}

// RecordDetectorMatch counts a matched detector.
func RecordDetectorMatch(detector string) {
	DetectorMatches.WithLabelValues(detector).Inc()
}

// UpdateStoreGauges refreshes the engine store size gauges.
func UpdateStoreGauges(blocked, ledger, tracked int) {
	BlocklistSize.Set(float64(blocked))
	LedgerSize.Set(float64(ledger))
	TrackedClients.Set(float64(tracked))
}

// RecordRetention records one retention pass.
func RecordRetention(ledgerRemoved, trackerRemoved, blocklistRemoved int) {
	RetentionRuns.Inc()
	RetentionRemoved.WithLabelValues("ledger").Add(float64(ledgerRemoved))
	RetentionRemoved.WithLabelValues("tracker").Add(float64(trackerRemoved))
	RetentionRemoved.WithLabelValues("blocklist").Add(float64(blocklistRemoved))
}

// RecordNotification records a notifier delivery attempt.
func RecordNotification(notifier string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	NotificationsSent.WithLabelValues(notifier, result).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
