// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

/*
Package middleware provides HTTP middleware components for the application.

Key Components:

  - SecurityAudit: evaluates each request with the detection engine, refuses
    blocked clients with 403 and adds security headers to everything else
  - Request ID: UUID-based request tracking for log correlation
  - Prometheus Metrics: HTTP request/response instrumentation

Middleware Stack:

The protected application surface is wired as:

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)         // only with trusted proxies
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.SecurityAudit(engine, middleware.SecurityOptions{
	    MaxBodyBytes: 1 << 20,
	}))

Blocked Response:

	HTTP/1.1 403 Forbidden
	Content-Type: application/json

	{"error":"Request blocked","reason":"Critical threat detected","timestamp":"2026-03-01T12:00:00Z"}

Security Headers (non-blocked responses):

	X-Content-Type-Options: nosniff
	X-Frame-Options: DENY
	X-XSS-Protection: 1; mode=block
	Referrer-Policy: strict-origin-when-cross-origin
	Permissions-Policy: geolocation=(), microphone=(), camera=()
	Strict-Transport-Security: max-age=31536000; includeSubDomains

Request Bodies:

SecurityAudit reads JSON object and urlencoded form bodies up to
MaxBodyBytes for detection and restores the body, so downstream handlers
read it unchanged. Larger or malformed bodies are passed through unparsed.

Thread Safety:

All middleware components are safe for concurrent use. Per-request state is
carried in the request context.
*/
package middleware
