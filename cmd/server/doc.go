// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

/*
Package main is the entry point for the Tripwire server.

Tripwire evaluates every request that reaches the protected surface, scores
it with a set of detectors and allows, logs, alerts on or blocks it. Clients
whose requests score critical are blocked until an operator unblocks them or
the block expires.

# Application Architecture

Startup order:

 1. Configuration: Koanf v2 (defaults, optional YAML file, environment)
 2. Logging: zerolog, JSON or console output
 3. Threat stream hub: WebSocket fan-out of threat events and metrics
 4. Detection engine: detectors, blocklist, tracker and threat ledger
 5. Router: chi with the admin API, health probes and protected routes
 6. Supervisor tree: suture v4

	RootSupervisor ("tripwire")
	├── DataSupervisor ("data-layer")
	│   └── retention
	├── MessagingSupervisor ("messaging-layer")
	│   ├── websocket-hub
	│   └── detection-dispatcher
	└── APISupervisor ("api-layer")
	    └── http-server

# Configuration

Priority: environment variables > config file > defaults.

	HTTP_PORT=8080
	LOG_LEVEL=info
	LOG_FORMAT=json
	CONFIG_PATH=/etc/tripwire/config.yaml

	DETECTION_ENABLED=true
	DETECTION_ALLOWLIST=10.0.0.0/8,192.168.1.10
	DETECTION_DISABLED_DETECTORS=bot_traffic
	DETECTION_BLOCK_TTL=0            # 0 blocks permanently

	WEBHOOK_ENABLED=true
	WEBHOOK_URL=https://hooks.example.com/tripwire
	WEBHOOK_MIN_SEVERITY=high

	CORS_ORIGINS=https://admin.example.com
	TRUSTED_PROXIES=10.0.0.1

When a config file is in use it is watched. A change re-applies the log
level, the engine switch and the disabled detector list. Everything else
needs a restart.

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
in-flight requests for up to server.shutdown_timeout, the threat stream
closes its subscribers and the dispatcher stops.
*/
package main
