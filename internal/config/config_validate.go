// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package config

import (
	"fmt"

	"github.com/tomtom215/tripwire/internal/validation"
)

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateThresholds(); err != nil {
		return err
	}

	return c.validateWindows()
}

// validateThresholds requires 0 < low < medium < high < critical.
func (c *Config) validateThresholds() error {
	t := c.Detection.Thresholds
	if t.Low < t.Medium && t.Medium < t.High && t.High < t.Critical {
		return nil
	}
	return fmt.Errorf("detection.thresholds must be ascending (low < medium < high < critical), got low=%d medium=%d high=%d critical=%d",
		t.Low, t.Medium, t.High, t.Critical)
}

// validateWindows keeps per-client history at least as long and as deep as
// the rate detectors look back.
func (c *Config) validateWindows() error {
	d := c.Detection
	for _, rule := range []struct {
		name  string
		limit int
	}{
		{"high_frequency_limit", d.HighFrequencyLimit},
		{"brute_force_limit", d.BruteForceLimit},
	} {
		if d.MaxTrackedPerClient <= rule.limit {
			return fmt.Errorf("detection.max_tracked_per_client (%d) must exceed detection.%s (%d)",
				d.MaxTrackedPerClient, rule.name, rule.limit)
		}
	}


	longest := c.Detection.BruteForceWindow
	if c.Detection.HighFrequencyWindow > longest {
		longest = c.Detection.HighFrequencyWindow
	}
	if c.Retention.TrackerMaxAge < longest {
		return fmt.Errorf("retention.tracker_max_age (%v) must be at least the longest detection window (%v)",
			c.Retention.TrackerMaxAge, longest)
	}
	return nil
}
