// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package api

import (
	"net/http"
	"time"
)

// ReadinessStatus is the body of GET /api/v1/health/ready.
type ReadinessStatus struct {
	Status            string  `json:"status"`
	DetectionEnabled  bool    `json:"detection_enabled"`
	TrackedClients    int     `json:"tracked_clients"`
	MaxTrackedClients int     `json:"max_tracked_clients"`
	LedgerSize        int     `json:"ledger_size"`
	LedgerCapacity    int     `json:"ledger_capacity"`
	BlockedClients    int     `json:"blocked_clients"`
	StreamClients     int     `json:"stream_clients"`
	Uptime            float64 `json:"uptime"`
}

// HealthLive handles liveness probe requests. It returns 200 while the
// process is able to serve HTTP at all.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests. The service reports
// degraded with 503 when the tracker holds more clients than
// max_tracked_clients, which usually means a wide scan or spoofed sources.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	tracked := h.engine.TrackedClients()
	limit := h.maxTrackedClients()

	status := ReadinessStatus{
		Status:            "ready",
		DetectionEnabled:  h.engine.Enabled(),
		TrackedClients:    tracked,
		MaxTrackedClients: limit,
		LedgerSize:        h.engine.Ledger().Len(),
		LedgerCapacity:    h.engine.Ledger().Capacity(),
		BlockedClients:    h.engine.Blocklist().Len(),
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	if h.wsHub != nil {
		status.StreamClients = h.wsHub.GetClientCount()
	}

	statusCode := http.StatusOK
	if tracked > limit {
		status.Status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}
	NewResponseWriter(w, r).Status(statusCode, status)
}
