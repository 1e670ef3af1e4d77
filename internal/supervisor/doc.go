// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

/*
Package supervisor runs Tripwire's long-running services under suture v4.

The tree groups services into layers so that each one restarts on its own:

	RootSupervisor ("tripwire")
	├── DataSupervisor ("data-layer")
	│   └── RetentionService
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocketHubService
	│   └── DetectionService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Request evaluation itself is synchronous and happens inside the HTTP
handlers, so a restart of the dispatcher or the stream hub never blocks the
protected routes. Threat events queued while the dispatcher restarts stay in
the engine's bounded queue.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}

	tree.AddDataService(services.NewRetentionService(engine, cfg.Retention.Interval))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewDetectionService(engine, cfg.Detection.MetricsInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	return tree.Serve(ctx)

# Restart Policy

TreeConfig maps onto suture.Spec. Each failure increments a counter that
decays over FailureDecay seconds. Once the counter passes FailureThreshold
the supervisor waits FailureBackoff before the next restart. Zero fields take
the values from DefaultTreeConfig.

Supervisor events are logged through sutureslog into the slog bridge of the
logging package, so they land in the same zerolog stream as the rest of the
process.

# Shutdown

Canceling the context passed to Serve stops every service. Services that do
not return within ShutdownTimeout are listed by UnstoppedServiceReport.
*/
package supervisor
