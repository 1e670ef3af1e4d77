// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

/*
Package api provides the HTTP layer for Tripwire: the chi router, the
security admin API, health probes and the protected application surface.

Routes:

	GET    /api/v1/health/live             liveness
	GET    /api/v1/health/ready            readiness (503 when degraded)
	GET    /metrics                        Prometheus exposition
	GET    /api/v1/security/metrics        engine counters and threat level
	GET    /api/v1/security/threats        ledger events, ?hours=1..168 (default 24)
	GET    /api/v1/security/blocklist      blocked clients
	DELETE /api/v1/security/blocklist/{c}  unblock a client (204 or 404)
	GET    /api/v1/security/detectors      registered detectors
	PUT    /api/v1/security/detectors/{n}  {"enabled": bool}
	GET    /api/v1/security/stream         WebSocket live feed
	*      /*                              protected surface (SecurityAudit)

Middleware:

Every request gets an X-Request-ID. Forwarding headers are honored only
from configured trusted proxies (TrustedRealIP), so the client identity the
engine sees cannot be spoofed by the client itself. The admin API uses
go-chi/cors and go-chi/httprate; rejected requests get

	HTTP/1.1 429 Too Many Requests
	{"error":"Rate limit exceeded","retryAfter":60,"timestamp":"..."}

Responses:

Admin and health endpoints use the APIResponse envelope:

	{
	  "success": true,
	  "data": {...},
	  "meta": {"request_id": "...", "timestamp": "...", "count": 3}
	}

Errors carry a machine-readable code (BAD_REQUEST, NOT_FOUND,
VALIDATION_FAILED, ...) and a message. Blocked requests on the protected
surface get the engine's 403 body from the middleware package instead.
*/
package api
