// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package api

import (
	"net/http"
	"testing"

	"github.com/tomtom215/tripwire/internal/config"
)

func TestHealthLive(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, nil)
	rec := s.do(http.MethodGet, "/api/v1/health/live", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	env := decodeEnvelope[map[string]interface{}](t, rec)
	if env.Data["alive"] != true {
		t.Errorf("data = %v, want alive", env.Data)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("health endpoints should carry API security headers")
	}
}

func TestHealthReady(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, nil)
	s.attack(t, "192.0.2.60")

	rec := s.do(http.MethodGet, "/api/v1/health/ready", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope[ReadinessStatus](t, rec)
	if !env.Success || env.Data.Status != "ready" {
		t.Errorf("envelope = %+v, want ready", env)
	}
	got := env.Data
	if !got.DetectionEnabled || got.TrackedClients != 1 || got.MaxTrackedClients != config.DefaultMaxTrackedClients {
		t.Errorf("status = %+v", got)
	}
	if got.LedgerSize != 1 || got.LedgerCapacity != s.engine.Ledger().Capacity() || got.BlockedClients != 1 {
		t.Errorf("status = %+v", got)
	}
}

func TestHealthReady_DegradedWhenTrackerOverflows(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, func(c *config.Config) {
		c.Detection.MaxTrackedClients = 2
	})
	for _, client := range []string{"192.0.2.61", "192.0.2.62", "192.0.2.63"} {
		s.alert(t, client)
	}

	rec := s.do(http.MethodGet, "/api/v1/health/ready", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	env := decodeEnvelope[ReadinessStatus](t, rec)
	if env.Success || env.Data.Status != "degraded" {
		t.Errorf("envelope = %+v, want degraded", env)
	}
	if env.Data.TrackedClients != 3 || env.Data.MaxTrackedClients != 2 {
		t.Errorf("status = %+v", env.Data)
	}
}
