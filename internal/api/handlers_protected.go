// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package api

import (
	"net/http"

	"github.com/tomtom215/tripwire/internal/detection"
	"github.com/tomtom215/tripwire/internal/logging"
	"github.com/tomtom215/tripwire/internal/middleware"
)

// EchoResponse describes a request that passed the security middleware.
type EchoResponse struct {
	Method   string                `json:"method"`
	Path     string                `json:"path"`
	ClientID string                `json:"client_id"`
	Action   detection.Action      `json:"action"`
	Level    detection.ThreatLevel `json:"level"`
	Score    int                   `json:"score"`
}

// Protected is the placeholder application behind SecurityAudit. It echoes
// the request line and the decision the engine made, so deployments can
// verify the middleware before putting a real upstream behind it.
func (h *Handler) Protected(w http.ResponseWriter, r *http.Request) {
	resp := EchoResponse{
		Method:   r.Method,
		Path:     r.URL.Path,
		ClientID: logging.ClientIDFromContext(r.Context()),
		Action:   detection.ActionAllow,
		Level:    detection.LevelSafe,
	}
	if d, ok := middleware.DecisionFromContext(r.Context()); ok {
		resp.Action = d.Action
		resp.Level = d.Level
		resp.Score = d.Score
	}
	NewResponseWriter(w, r).Success(resp)
}
