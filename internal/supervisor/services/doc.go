// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

/*
Package services adapts Tripwire components to suture.Service.

Every wrapper exposes Serve(ctx) error and a String name that suture uses in
its events:

	HTTPServerService     "http-server"          *http.Server
	WebSocketHubService   "websocket-hub"        *websocket.Hub
	DetectionService      "detection-dispatcher" *detection.Engine (RunWithContext)
	RetentionService      "retention"            *detection.Engine (RunRetention)

The wrappers depend on small interfaces instead of the concrete packages so
that they can be tested with fakes and never import the packages they
supervise.

Services return ctx.Err() when the context is canceled. Any other error is a
crash and the owning supervisor restarts the service.
*/
package services
