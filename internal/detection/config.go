// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package detection

import "time"

// DefaultMaxInputBytes caps the composed search string before regex matching.
const DefaultMaxInputBytes = 8 * 1024

// Thresholds maps scores to threat levels. A score at or above a threshold
// takes that level.
type Thresholds struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// DefaultThresholds returns the standard 80/60/40/20 thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Critical: 80,
		High:     60,
		Medium:   40,
		Low:      20,
	}
}

// DetectorConfig configures the built-in detectors.
type DetectorConfig struct {
	SQLInjectionWeight        int `json:"sql_injection_weight"`
	XSSWeight                 int `json:"xss_weight"`
	PathTraversalWeight       int `json:"path_traversal_weight"`
	BruteForceWeight          int `json:"brute_force_weight"`
	BotTrafficWeight          int `json:"bot_traffic_weight"`
	HighFrequencyWeight       int `json:"high_frequency_weight"`
	SuspiciousUserAgentWeight int `json:"suspicious_user_agent_weight"`

	// BruteForceWindow and BruteForceLimit: more than Limit requests inside Window matches.
	BruteForceWindow time.Duration `json:"brute_force_window"`
	BruteForceLimit  int           `json:"brute_force_limit"`

	// HighFrequencyWindow and HighFrequencyLimit: more than Limit requests inside Window matches.
	HighFrequencyWindow time.Duration `json:"high_frequency_window"`
	HighFrequencyLimit  int           `json:"high_frequency_limit"`

	// BotKeywords are matched case-insensitively anywhere in the user agent.
	BotKeywords []string `json:"bot_keywords"`

	// MaxInputBytes caps the text handed to signature detectors.
	MaxInputBytes int `json:"max_input_bytes"`
}

// DefaultDetectorConfig returns the standard weights and windows.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		SQLInjectionWeight:        50,
		XSSWeight:                 40,
		PathTraversalWeight:       45,
		BruteForceWeight:          35,
		BotTrafficWeight:          25,
		HighFrequencyWeight:       20,
		SuspiciousUserAgentWeight: 15,
		BruteForceWindow:          5 * time.Minute,
		BruteForceLimit:           20,
		HighFrequencyWindow:       time.Minute,
		HighFrequencyLimit:        100,
		BotKeywords: []string{
			"bot", "crawler", "spider", "scraper",
			"curl", "wget", "python", "java", "php",
		},
		MaxInputBytes: DefaultMaxInputBytes,
	}
}

// withDefaults fills non-positive fields from def. A detector is disabled
// through the registry, not with a zero weight.
func (c DetectorConfig) withDefaults(def DetectorConfig) DetectorConfig {
	fill := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	fill(&c.SQLInjectionWeight, def.SQLInjectionWeight)
	fill(&c.XSSWeight, def.XSSWeight)
	fill(&c.PathTraversalWeight, def.PathTraversalWeight)
	fill(&c.BruteForceWeight, def.BruteForceWeight)
	fill(&c.BotTrafficWeight, def.BotTrafficWeight)
	fill(&c.HighFrequencyWeight, def.HighFrequencyWeight)
	fill(&c.SuspiciousUserAgentWeight, def.SuspiciousUserAgentWeight)
	fill(&c.BruteForceLimit, def.BruteForceLimit)
	fill(&c.HighFrequencyLimit, def.HighFrequencyLimit)
	fill(&c.MaxInputBytes, def.MaxInputBytes)

	if c.BruteForceWindow <= 0 {
		c.BruteForceWindow = def.BruteForceWindow
	}
	if c.HighFrequencyWindow <= 0 {
		c.HighFrequencyWindow = def.HighFrequencyWindow
	}
	if len(c.BotKeywords) == 0 {
		c.BotKeywords = def.BotKeywords
	}
	return c
}

// longestWindow is the widest window any rate detector reads.
func (c DetectorConfig) longestWindow() time.Duration {
	if c.BruteForceWindow > c.HighFrequencyWindow {
		return c.BruteForceWindow
	}
	return c.HighFrequencyWindow
}

// RetentionConfig configures periodic cleanup.
type RetentionConfig struct {
	// LedgerMaxAge drops ledger events older than this.
	LedgerMaxAge time.Duration `json:"ledger_max_age"`

	// TrackerMaxAge drops request timestamps older than this.
	TrackerMaxAge time.Duration `json:"tracker_max_age"`

	// Interval is how often cleanup runs.
	Interval time.Duration `json:"interval"`
}

// DefaultRetentionConfig returns 7 day ledger and 24 hour tracker retention, run hourly.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		LedgerMaxAge:  7 * 24 * time.Hour,
		TrackerMaxAge: 24 * time.Hour,
		Interval:      time.Hour,
	}
}

// EngineConfig configures the detection engine.
type EngineConfig struct {
	Thresholds Thresholds      `json:"thresholds"`
	Detectors  DetectorConfig  `json:"detectors"`
	Retention  RetentionConfig `json:"retention"`

	// LedgerCapacity is the maximum number of threat events kept.
	LedgerCapacity int `json:"ledger_capacity"`

	// BlockTTL expires blocklist entries. Zero blocks permanently.
	BlockTTL time.Duration `json:"block_ttl"`

	// Allowlist holds IPs or CIDRs that are never evaluated or blocked.
	Allowlist []string `json:"allowlist"`

	// MaxTrackedPerClient caps stored timestamps for a single client.
	MaxTrackedPerClient int `json:"max_tracked_per_client"`

	// LogRate and LogBurst throttle suspicious-request log lines.
	LogRate  float64 `json:"log_rate"`
	LogBurst int     `json:"log_burst"`

	// DispatchBuffer is the queue size for asynchronous notifier and broadcast delivery.
	DispatchBuffer int `json:"dispatch_buffer"`

	// ActiveThreatWindow is the ledger look-back for the active threat count.
	ActiveThreatWindow time.Duration `json:"active_threat_window"`

	// ThreatLevelWindow is the ledger look-back for the overall threat level.
	ThreatLevelWindow time.Duration `json:"threat_level_window"`
}

// DefaultEngineConfig returns sensible defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Thresholds:          DefaultThresholds(),
		Detectors:           DefaultDetectorConfig(),
		Retention:           DefaultRetentionConfig(),
		LedgerCapacity:      1000,
		BlockTTL:            0,
		MaxTrackedPerClient: 10000,
		LogRate:             50,
		LogBurst:            100,
		DispatchBuffer:      256,
		ActiveThreatWindow:  24 * time.Hour,
		ThreatLevelWindow:   time.Hour,
	}
}
