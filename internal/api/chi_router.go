// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/tripwire/internal/config"
	"github.com/tomtom215/tripwire/internal/middleware"
)

// Router wires handlers and middleware into a chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	config        *config.Config
}

// NewRouter creates a Router from the handler and application config.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddlewareFromConfig(&cfg.Security),
		config:        cfg,
	}
}

// SetupChi configures all HTTP routes.
//
// The admin API under /api/v1/security is rate limited and CORS enabled.
// Health and metrics endpoints are open. Every other path is the protected
// application surface and passes through SecurityAudit.
func (router *Router) SetupChi() (http.Handler, error) {
	realIP, err := TrustedRealIP(router.config.Security.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(realIP)
	r.Use(chimiddleware.Recoverer)

	// ========================
	// Health Endpoints
	// ========================
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	// ========================
	// Security Admin API
	// ========================
	r.Route("/api/v1/security", func(r chi.Router) {
		r.Use(router.chiMiddleware.CORS())
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/metrics", router.handler.SecurityMetrics)
		r.Get("/threats", router.handler.RecentThreats)
		r.Get("/blocklist", router.handler.Blocklist)
		r.Delete("/blocklist/{client}", router.handler.Unblock)
		r.Get("/detectors", router.handler.Detectors)
		r.Put("/detectors/{name}", router.handler.SetDetectorEnabled)
		r.Get("/stream", router.handler.ThreatStream)
	})

	// ========================
	// Protected Surface
	// ========================
	r.Group(func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(middleware.SecurityAudit(router.handler.engine, middleware.SecurityOptions{
			MaxBodyBytes: router.config.Detection.MaxBodyBytes,
		}))
		r.Handle("/*", http.HandlerFunc(router.handler.Protected))
	})

	return r, nil
}
