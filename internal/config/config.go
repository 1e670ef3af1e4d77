// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/tripwire/internal/detection"
	"github.com/tomtom215/tripwire/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Detection DetectionConfig `koanf:"detection"`
	Retention RetentionConfig `koanf:"retention"`
	Notify    NotifyConfig    `koanf:"notify"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Host            string        `koanf:"host" validate:"required"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	Environment     string        `koanf:"environment" validate:"oneof=development production"`
}

// SecurityConfig holds settings for the admin API surface.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// TrustedProxies enables X-Forwarded-For / X-Real-IP handling when
	// non-empty. Entries are IPs or CIDRs.
	TrustedProxies []string `koanf:"trusted_proxies" validate:"dive,ip|cidr"`
}

// DetectionConfig holds detection engine settings.
type DetectionConfig struct {
	Enabled bool `koanf:"enabled"`

	Weights    WeightsConfig    `koanf:"weights"`
	Thresholds ThresholdsConfig `koanf:"thresholds"`

	BruteForceWindow    time.Duration `koanf:"brute_force_window" validate:"gt=0"`
	BruteForceLimit     int           `koanf:"brute_force_limit" validate:"min=1"`
	HighFrequencyWindow time.Duration `koanf:"high_frequency_window" validate:"gt=0"`
	HighFrequencyLimit  int           `koanf:"high_frequency_limit" validate:"min=1"`
	BotKeywords         []string      `koanf:"bot_keywords" validate:"min=1,dive,required"`

	// DisabledDetectors lists detector names turned off at startup.
	DisabledDetectors []string `koanf:"disabled_detectors" validate:"dive,oneof=sql_injection xss path_traversal brute_force bot_traffic high_frequency suspicious_user_agent"`

	MaxInputBytes int   `koanf:"max_input_bytes" validate:"min=256"`
	MaxBodyBytes  int64 `koanf:"max_body_bytes" validate:"min=1024"`

	// BlockTTL expires blocklist entries. Zero blocks permanently.
	BlockTTL  time.Duration `koanf:"block_ttl" validate:"gte=0"`
	Allowlist []string      `koanf:"allowlist" validate:"dive,ip|cidr"`

	LedgerCapacity      int `koanf:"ledger_capacity" validate:"min=1"`
	MaxTrackedPerClient int `koanf:"max_tracked_per_client" validate:"min=1"`

	// MaxTrackedClients is the tracker size above which readiness reports degraded.
	MaxTrackedClients int `koanf:"max_tracked_clients" validate:"min=1"`

	LogRate         float64       `koanf:"log_rate" validate:"gt=0"`
	LogBurst        int           `koanf:"log_burst" validate:"min=1"`
	DispatchBuffer  int           `koanf:"dispatch_buffer" validate:"min=1"`
	MetricsInterval time.Duration `koanf:"metrics_interval" validate:"gt=0"`
}

// WeightsConfig holds the score contributed by each detector.
type WeightsConfig struct {
	SQLInjection        int `koanf:"sql_injection" validate:"min=1,max=100"`
	XSS                 int `koanf:"xss" validate:"min=1,max=100"`
	PathTraversal       int `koanf:"path_traversal" validate:"min=1,max=100"`
	BruteForce          int `koanf:"brute_force" validate:"min=1,max=100"`
	BotTraffic          int `koanf:"bot_traffic" validate:"min=1,max=100"`
	HighFrequency       int `koanf:"high_frequency" validate:"min=1,max=100"`
	SuspiciousUserAgent int `koanf:"suspicious_user_agent" validate:"min=1,max=100"`
}

// ThresholdsConfig holds the minimum score for each threat level.
type ThresholdsConfig struct {
	Critical int `koanf:"critical" validate:"min=1"`
	High     int `koanf:"high" validate:"min=1"`
	Medium   int `koanf:"medium" validate:"min=1"`
	Low      int `koanf:"low" validate:"min=1"`
}

// RetentionConfig holds cleanup settings.
type RetentionConfig struct {
	Interval      time.Duration `koanf:"interval" validate:"gt=0"`
	LedgerMaxAge  time.Duration `koanf:"ledger_max_age" validate:"gt=0"`
	TrackerMaxAge time.Duration `koanf:"tracker_max_age" validate:"gt=0"`
}

// NotifyConfig holds threat notification settings.
type NotifyConfig struct {
	Webhook WebhookConfig `koanf:"webhook"`
}

// WebhookConfig holds webhook notifier settings.
type WebhookConfig struct {
	Enabled        bool              `koanf:"enabled"`
	URL            string            `koanf:"url" validate:"required_if=Enabled true,omitempty,url"`
	Headers        map[string]string `koanf:"headers"`
	MinSeverity    string            `koanf:"min_severity" validate:"oneof=low medium high critical"`
	Timeout        time.Duration     `koanf:"timeout" validate:"gt=0"`
	BreakerTimeout time.Duration     `koanf:"breaker_timeout" validate:"gt=0"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// ListenAddr returns host:port for the HTTP server.
func (c *ServerConfig) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// IsProduction reports whether the server runs in production mode.
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// EngineConfig converts the detection and retention sections into the
// engine's configuration.
func (c *Config) EngineConfig() detection.EngineConfig {
	d := c.Detection
	return detection.EngineConfig{
		Thresholds: detection.Thresholds{
			Critical: d.Thresholds.Critical,
			High:     d.Thresholds.High,
			Medium:   d.Thresholds.Medium,
			Low:      d.Thresholds.Low,
		},
		Detectors: detection.DetectorConfig{
			SQLInjectionWeight:        d.Weights.SQLInjection,
			XSSWeight:                 d.Weights.XSS,
			PathTraversalWeight:       d.Weights.PathTraversal,
			BruteForceWeight:          d.Weights.BruteForce,
			BotTrafficWeight:          d.Weights.BotTraffic,
			HighFrequencyWeight:       d.Weights.HighFrequency,
			SuspiciousUserAgentWeight: d.Weights.SuspiciousUserAgent,
			BruteForceWindow:          d.BruteForceWindow,
			BruteForceLimit:           d.BruteForceLimit,
			HighFrequencyWindow:       d.HighFrequencyWindow,
			HighFrequencyLimit:        d.HighFrequencyLimit,
			BotKeywords:               d.BotKeywords,
			MaxInputBytes:             d.MaxInputBytes,
		},
		Retention: detection.RetentionConfig{
			LedgerMaxAge:  c.Retention.LedgerMaxAge,
			TrackerMaxAge: c.Retention.TrackerMaxAge,
			Interval:      c.Retention.Interval,
		},
		LedgerCapacity:      d.LedgerCapacity,
		BlockTTL:            d.BlockTTL,
		Allowlist:           d.Allowlist,
		MaxTrackedPerClient: d.MaxTrackedPerClient,
		LogRate:             d.LogRate,
		LogBurst:            d.LogBurst,
		DispatchBuffer:      d.DispatchBuffer,
		ActiveThreatWindow:  24 * time.Hour,
		ThreatLevelWindow:   time.Hour,
	}
}

// WebhookNotifierConfig converts the webhook section into the notifier's
// configuration. MinSeverity has already been validated.
func (c *Config) WebhookNotifierConfig() detection.WebhookConfig {
	w := c.Notify.Webhook
	level, err := detection.ParseThreatLevel(w.MinSeverity)
	if err != nil {
		level = detection.LevelHigh
	}
	return detection.WebhookConfig{
		WebhookURL:     w.URL,
		Headers:        w.Headers,
		Enabled:        w.Enabled,
		MinSeverity:    level,
		Timeout:        w.Timeout,
		BreakerTimeout: w.BreakerTimeout,
	}
}

// LoggerConfig converts the logging section into the logger's configuration.
func (c *Config) LoggerConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.Format = c.Logging.Format
	cfg.Caller = c.Logging.Caller
	return cfg
}
