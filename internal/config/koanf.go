// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/tripwire/internal/detection"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tripwire/config.yaml",
	"/etc/tripwire/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultMaxTrackedClients is the tracker size above which readiness degrades.
const DefaultMaxTrackedClients = 100000

// Defaults returns the built-in configuration without reading a file or
// the environment.
func Defaults() *Config {
	return defaultConfig()
}

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	eng := detection.DefaultEngineConfig()
	det := eng.Detectors

	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "production",
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			TrustedProxies:    []string{},
		},
		Detection: DetectionConfig{
			Enabled: true,
			Weights: WeightsConfig{
				SQLInjection:        det.SQLInjectionWeight,
				XSS:                 det.XSSWeight,
				PathTraversal:       det.PathTraversalWeight,
				BruteForce:          det.BruteForceWeight,
				BotTraffic:          det.BotTrafficWeight,
				HighFrequency:       det.HighFrequencyWeight,
				SuspiciousUserAgent: det.SuspiciousUserAgentWeight,
			},
			Thresholds: ThresholdsConfig{
				Critical: eng.Thresholds.Critical,
				High:     eng.Thresholds.High,
				Medium:   eng.Thresholds.Medium,
				Low:      eng.Thresholds.Low,
			},
			BruteForceWindow:    det.BruteForceWindow,
			BruteForceLimit:     det.BruteForceLimit,
			HighFrequencyWindow: det.HighFrequencyWindow,
			HighFrequencyLimit:  det.HighFrequencyLimit,
			BotKeywords:         det.BotKeywords,
			DisabledDetectors:   []string{},
			MaxInputBytes:       det.MaxInputBytes,
			MaxBodyBytes:        1 << 20,
			BlockTTL:            eng.BlockTTL,
			Allowlist:           []string{},
			LedgerCapacity:      eng.LedgerCapacity,
			MaxTrackedPerClient: eng.MaxTrackedPerClient,
			MaxTrackedClients:   DefaultMaxTrackedClients,
			LogRate:             eng.LogRate,
			LogBurst:            eng.LogBurst,
			DispatchBuffer:      eng.DispatchBuffer,
			MetricsInterval:     5 * time.Second,
		},
		Retention: RetentionConfig{
			Interval:      eng.Retention.Interval,
			LedgerMaxAge:  eng.Retention.LedgerMaxAge,
			TrackerMaxAge: eng.Retention.TrackerMaxAge,
		},
		Notify: NotifyConfig{
			Webhook: WebhookConfig{
				Enabled:        false,
				URL:            "",
				Headers:        map[string]string{},
				MinSeverity:    string(detection.LevelHigh),
				Timeout:        10 * time.Second,
				BreakerTimeout: time.Minute,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf with layered sources:
//  1. Built-in defaults (lowest priority)
//  2. Config file (config.yaml, CONFIG_PATH)
//  3. Environment variables (highest priority)
//
// The configuration is validated before it is returned.
func LoadWithKoanf() (*Config, error) {
	cfg, _, err := load(findConfigFile())
	return cfg, err
}

// LoadWithPath is LoadWithKoanf that also returns the config file used, or ""
// when none was found. The path is what WatchConfigFile should watch.
func LoadWithPath() (*Config, string, error) {
	return load(findConfigFile())
}

func load(configPath string) (*Config, string, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// HTTP_PORT -> server.port
	// DETECTION_ALLOWLIST -> detection.allowlist
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, "", fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, "", fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, configPath, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
	"detection.bot_keywords",
	"detection.disabled_detectors",
	"detection.allowlist",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from defaults or YAML)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		// An empty variable clears the list.
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":        "server.host",
	"http_port":        "server.port",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	// Admin API security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"trusted_proxies":     "security.trusted_proxies",

	// Detection
	"detection_enabled":                 "detection.enabled",
	"detection_weight_sql_injection":    "detection.weights.sql_injection",
	"detection_weight_xss":              "detection.weights.xss",
	"detection_weight_path_traversal":   "detection.weights.path_traversal",
	"detection_weight_brute_force":      "detection.weights.brute_force",
	"detection_weight_bot_traffic":      "detection.weights.bot_traffic",
	"detection_weight_high_frequency":   "detection.weights.high_frequency",
	"detection_weight_suspicious_ua":    "detection.weights.suspicious_user_agent",
	"detection_threshold_critical":      "detection.thresholds.critical",
	"detection_threshold_high":          "detection.thresholds.high",
	"detection_threshold_medium":        "detection.thresholds.medium",
	"detection_threshold_low":           "detection.thresholds.low",
	"detection_brute_force_window":      "detection.brute_force_window",
	"detection_brute_force_limit":       "detection.brute_force_limit",
	"detection_high_frequency_window":   "detection.high_frequency_window",
	"detection_high_frequency_limit":    "detection.high_frequency_limit",
	"detection_bot_keywords":            "detection.bot_keywords",
	"detection_disabled_detectors":      "detection.disabled_detectors",
	"detection_max_input_bytes":         "detection.max_input_bytes",
	"detection_max_body_bytes":          "detection.max_body_bytes",
	"detection_block_ttl":               "detection.block_ttl",
	"detection_allowlist":               "detection.allowlist",
	"detection_ledger_capacity":         "detection.ledger_capacity",
	"detection_max_tracked_per_client":  "detection.max_tracked_per_client",
	"detection_max_tracked_clients":     "detection.max_tracked_clients",
	"detection_log_rate":                "detection.log_rate",
	"detection_log_burst":               "detection.log_burst",
	"detection_dispatch_buffer":         "detection.dispatch_buffer",
	"detection_metrics_interval":        "detection.metrics_interval",

	// Retention
	"retention_interval":        "retention.interval",
	"retention_ledger_max_age":  "retention.ledger_max_age",
	"retention_tracker_max_age": "retention.tracker_max_age",

	// Notifications
	"webhook_enabled":         "notify.webhook.enabled",
	"webhook_url":             "notify.webhook.url",
	"webhook_min_severity":    "notify.webhook.min_severity",
	"webhook_timeout":         "notify.webhook.timeout",
	"webhook_breaker_timeout": "notify.webhook.breaker_timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - DETECTION_BLOCK_TTL -> detection.block_ttl
//   - WEBHOOK_URL -> notify.webhook.url
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// Note: The caller is responsible for mutex protection when accessing
// configuration during reloads.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
