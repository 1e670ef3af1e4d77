// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/tripwire/internal/detection"
	"github.com/tomtom215/tripwire/internal/logging"
	"github.com/tomtom215/tripwire/internal/validation"
	ws "github.com/tomtom215/tripwire/internal/websocket"
)

const (
	defaultThreatHours = 24
	maxDetectorBody    = 4 << 10
)

// threatsQuery holds the validated query parameters of GET /threats.
type threatsQuery struct {
	Hours int `json:"hours" validate:"min=1,max=168"`
}

// detectorUpdate is the body of PUT /detectors/{name}.
type detectorUpdate struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// SecurityMetrics handles GET /api/v1/security/metrics
func (h *Handler) SecurityMetrics(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.engine.SecurityMetrics(h.engine.Now()))
}

// RecentThreats handles GET /api/v1/security/threats?hours=N
func (h *Handler) RecentThreats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	q := threatsQuery{Hours: defaultThreatHours}
	if raw := r.URL.Query().Get("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil {
			rw.BadRequest("hours must be an integer")
			return
		}
		q.Hours = hours
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	threats := h.engine.RecentThreats(time.Duration(q.Hours)*time.Hour, h.engine.Now())
	rw.SuccessList(threats, len(threats))
}

// Blocklist handles GET /api/v1/security/blocklist
func (h *Handler) Blocklist(w http.ResponseWriter, r *http.Request) {
	entries := h.engine.Blocklist().List()
	NewResponseWriter(w, r).SuccessList(entries, len(entries))
}

// Unblock handles DELETE /api/v1/security/blocklist/{client}
func (h *Handler) Unblock(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	client, err := url.PathUnescape(chi.URLParam(r, "client"))
	if err != nil || client == "" {
		rw.BadRequest("Invalid client identifier")
		return
	}

	if err := h.engine.Unblock(client); err != nil {
		if errors.Is(err, detection.ErrClientNotBlocked) {
			rw.NotFound("Client is not blocked")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to unblock client")
		rw.InternalError("Failed to unblock client")
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("client", logging.SanitizeClientID(client)).
		Msg("client unblocked via admin API")
	rw.NoContent()
}

// Detectors handles GET /api/v1/security/detectors
func (h *Handler) Detectors(w http.ResponseWriter, r *http.Request) {
	detectors := h.engine.Registry().List()
	NewResponseWriter(w, r).SuccessList(detectors, len(detectors))
}

// SetDetectorEnabled handles PUT /api/v1/security/detectors/{name}
func (h *Handler) SetDetectorEnabled(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	name := detection.DetectorName(chi.URLParam(r, "name"))

	var req detectorUpdate
	r.Body = http.MaxBytesReader(w, r.Body, maxDetectorBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Invalid request body")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	registry := h.engine.Registry()
	if err := registry.SetEnabled(name, *req.Enabled); err != nil {
		if errors.Is(err, detection.ErrDetectorNotFound) {
			rw.NotFound("Detector not found")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to update detector")
		rw.InternalError("Failed to update detector")
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("detector", string(name)).
		Bool("enabled", *req.Enabled).
		Msg("detector toggled via admin API")

	for _, info := range registry.List() {
		if info.Name == name {
			rw.Success(info)
			return
		}
	}
	rw.NotFound("Detector not found")
}

// ThreatStream handles GET /api/v1/security/stream. The connection first
// receives a security_metrics snapshot, then every threat event and
// periodic metrics broadcast.
func (h *Handler) ThreatStream(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		NewResponseWriter(w, r).Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Live feed unavailable")
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response
		logging.Debug().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Enqueue(ws.Message{
		Type: ws.MessageTypeSecurityMetrics,
		Data: h.engine.SecurityMetrics(h.engine.Now()),
	})
	if !client.Join() {
		_ = conn.Close()
		return
	}
	client.Start()
}
