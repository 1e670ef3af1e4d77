// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

/*
Package config provides centralized configuration management for Tripwire.

Configuration is loaded with Koanf v2 from three layers, later layers
overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. A YAML file: $CONFIG_PATH, config.yaml, config.yml,
    /etc/tripwire/config.yaml or /etc/tripwire/config.yml
 3. Environment variables, through an explicit mapping table

Unmapped environment variables are ignored. List values (allowlist, CORS
origins, trusted proxies, bot keywords, disabled detectors) accept
comma-separated strings from the environment.

# Sections

  - server: listen address, timeouts, environment
  - security: admin API CORS origins, rate limit, trusted proxies
  - detection: detector weights, level thresholds, rate windows, input and
    body limits, block TTL, allowlist, ledger and tracker sizes, log throttling
  - retention: cleanup interval and maximum ages
  - notify: webhook notifier
  - logging: level, format, caller

# Example

	server:
	  port: 8080
	detection:
	  block_ttl: 1h
	  allowlist: [10.0.0.0/8, "::1"]
	  thresholds:
	    critical: 90
	notify:
	  webhook:
	    enabled: true
	    url: https://hooks.example.com/tripwire
	    min_severity: high

# Environment Variables

	HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT, SHUTDOWN_TIMEOUT, ENVIRONMENT
	CORS_ORIGINS, RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT, TRUSTED_PROXIES
	DETECTION_ENABLED, DETECTION_WEIGHT_*, DETECTION_THRESHOLD_*
	DETECTION_BLOCK_TTL, DETECTION_ALLOWLIST, DETECTION_DISABLED_DETECTORS, ...
	RETENTION_INTERVAL, RETENTION_LEDGER_MAX_AGE, RETENTION_TRACKER_MAX_AGE
	WEBHOOK_ENABLED, WEBHOOK_URL, WEBHOOK_MIN_SEVERITY, WEBHOOK_TIMEOUT
	LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Validation

Field constraints are declared as go-playground/validator tags and checked
through internal/validation. Validate adds the cross-field rules: thresholds
must be strictly ascending, tracker retention must cover the longest
detection window, and max_tracked_per_client must exceed both rate limits.

# Hot Reload

WatchConfigFile invokes a callback when the loaded file changes. The server
uses it to re-apply the log level and detector toggles without a restart.
*/
package config
