// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/tripwire/internal/detection"
)

func TestEngineConfig_MatchesEngineDefaults(t *testing.T) {
	t.Parallel()

	got := defaultConfig().EngineConfig()
	want := detection.DefaultEngineConfig()

	if got.Thresholds != want.Thresholds {
		t.Errorf("Thresholds = %+v, want %+v", got.Thresholds, want.Thresholds)
	}
	if got.Retention != want.Retention {
		t.Errorf("Retention = %+v, want %+v", got.Retention, want.Retention)
	}

	gd, wd := got.Detectors, want.Detectors
	if gd.SQLInjectionWeight != wd.SQLInjectionWeight || gd.XSSWeight != wd.XSSWeight ||
		gd.PathTraversalWeight != wd.PathTraversalWeight || gd.BruteForceWeight != wd.BruteForceWeight ||
		gd.BotTrafficWeight != wd.BotTrafficWeight || gd.HighFrequencyWeight != wd.HighFrequencyWeight ||
		gd.SuspiciousUserAgentWeight != wd.SuspiciousUserAgentWeight {
		t.Errorf("weights = %+v, want %+v", gd, wd)
	}
	if gd.BruteForceWindow != wd.BruteForceWindow || gd.HighFrequencyLimit != wd.HighFrequencyLimit || gd.MaxInputBytes != wd.MaxInputBytes {
		t.Errorf("windows = %+v, want %+v", gd, wd)
	}
	if strings.Join(gd.BotKeywords, ",") != strings.Join(wd.BotKeywords, ",") {
		t.Errorf("BotKeywords = %v, want %v", gd.BotKeywords, wd.BotKeywords)
	}
	if got.LedgerCapacity != want.LedgerCapacity || got.BlockTTL != want.BlockTTL ||
		got.MaxTrackedPerClient != want.MaxTrackedPerClient || got.DispatchBuffer != want.DispatchBuffer ||
		got.LogRate != want.LogRate || got.LogBurst != want.LogBurst {
		t.Errorf("engine = %+v, want %+v", got, want)
	}
	if got.ActiveThreatWindow != want.ActiveThreatWindow || got.ThreatLevelWindow != want.ThreatLevelWindow {
		t.Errorf("windows = %v/%v, want %v/%v", got.ActiveThreatWindow, got.ThreatLevelWindow, want.ActiveThreatWindow, want.ThreatLevelWindow)
	}

	if _, err := detection.NewEngine(got); err != nil {
		t.Errorf("NewEngine(defaults) error = %v", err)
	}
}

func TestEngineConfig_CarriesOverrides(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Detection.Weights.XSS = 70
	cfg.Detection.Thresholds.Critical = 95
	cfg.Detection.BlockTTL = 2 * time.Hour
	cfg.Detection.Allowlist = []string{"10.0.0.0/8"}

	ec := cfg.EngineConfig()
	if ec.Detectors.XSSWeight != 70 || ec.Thresholds.Critical != 95 || ec.BlockTTL != 2*time.Hour {
		t.Errorf("EngineConfig() = %+v", ec)
	}
	if len(ec.Allowlist) != 1 || ec.Allowlist[0] != "10.0.0.0/8" {
		t.Errorf("Allowlist = %v", ec.Allowlist)
	}
}

func TestWebhookNotifierConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Notify.Webhook.Enabled = true
	cfg.Notify.Webhook.URL = "https://hooks.example.com/x"
	cfg.Notify.Webhook.MinSeverity = "medium"
	cfg.Notify.Webhook.Headers = map[string]string{"X-Token": "t"}

	wc := cfg.WebhookNotifierConfig()
	if !wc.Enabled || wc.WebhookURL != "https://hooks.example.com/x" {
		t.Errorf("WebhookNotifierConfig() = %+v", wc)
	}
	if wc.MinSeverity != detection.LevelMedium {
		t.Errorf("MinSeverity = %q, want medium", wc.MinSeverity)
	}
	if wc.Headers["X-Token"] != "t" || wc.Timeout != 10*time.Second || wc.BreakerTimeout != time.Minute {
		t.Errorf("WebhookNotifierConfig() = %+v", wc)
	}

	cfg.Notify.Webhook.MinSeverity = "bogus"
	if got := cfg.WebhookNotifierConfig().MinSeverity; got != detection.LevelHigh {
		t.Errorf("unparseable MinSeverity = %q, want high", got)
	}
}

func TestLoggerConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Logging = LoggingConfig{Level: "debug", Format: "console", Caller: true}

	lc := cfg.LoggerConfig()
	if lc.Level != "debug" || lc.Format != "console" || !lc.Caller {
		t.Errorf("LoggerConfig() = %+v", lc)
	}
	if !lc.Timestamp || lc.Output == nil {
		t.Error("LoggerConfig() should keep logger defaults for timestamp and output")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, "port must be at least 1"},
		{"bad environment", func(c *Config) { c.Server.Environment = "staging" }, "environment must be one of"},
		{"zero weight", func(c *Config) { c.Detection.Weights.BotTraffic = 0 }, "bot_traffic must be at least 1"},
		{"empty bot keywords", func(c *Config) { c.Detection.BotKeywords = nil }, "bot_keywords"},
		{"trusted proxy cidr", func(c *Config) { c.Security.TrustedProxies = []string{"10.0.0.0/8", "::1"} }, ""},
		{"trusted proxy hostname", func(c *Config) { c.Security.TrustedProxies = []string{"proxy.local"} }, "trusted_proxies[0]"},
		{"equal thresholds", func(c *Config) { c.Detection.Thresholds.Medium = 60 }, "ascending"},
		{"negative block ttl", func(c *Config) { c.Detection.BlockTTL = -time.Second }, "block_ttl"},
		{"webhook severity", func(c *Config) { c.Notify.Webhook.MinSeverity = "safe" }, "min_severity"},
		{"webhook url format", func(c *Config) { c.Notify.Webhook.URL = "hooks" }, "url must be a valid URL"},
		{"tracker retention too short", func(c *Config) { c.Retention.TrackerMaxAge = 2 * time.Minute }, "tracker_max_age"},
		{"tracked history at high frequency limit", func(c *Config) { c.Detection.MaxTrackedPerClient = 100 }, "must exceed detection.high_frequency_limit"},
		{"tracked history below brute force limit", func(c *Config) {
			c.Detection.MaxTrackedPerClient = 150
			c.Detection.BruteForceLimit = 200
		}, "must exceed detection.brute_force_limit"},
		{"tracked history just above limits", func(c *Config) { c.Detection.MaxTrackedPerClient = 101 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
