// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/tripwire/internal/config"
	"github.com/tomtom215/tripwire/internal/detection"
	"github.com/tomtom215/tripwire/internal/logging"
	ws "github.com/tomtom215/tripwire/internal/websocket"
)

// Handler serves the admin, health and protected endpoints.
type Handler struct {
	engine    *detection.Engine
	wsHub     *ws.Hub
	config    *config.Config
	startTime time.Time
}

// NewHandler creates a Handler. hub may be nil, in which case the live
// feed endpoint answers 503.
func NewHandler(engine *detection.Engine, hub *ws.Hub, cfg *config.Config) *Handler {
	return &Handler{
		engine:    engine,
		wsHub:     hub,
		config:    cfg,
		startTime: time.Now(),
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow clients.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins against the
// configured CORS origins.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Browsers always send Origin; accepting an empty one would bypass CORS
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if h.config == nil {
		return true
	}

	for _, allowedOrigin := range h.config.Security.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Warn().Str("origin", logging.Sanitize(origin, 256)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// maxTrackedClients returns the tracker size readiness treats as healthy.
func (h *Handler) maxTrackedClients() int {
	if h.config == nil || h.config.Detection.MaxTrackedClients <= 0 {
		return config.DefaultMaxTrackedClients
	}
	return h.config.Detection.MaxTrackedClients
}
