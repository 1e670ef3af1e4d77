// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package detection

import (
	"fmt"
	"time"
)

// RateDetector matches clients that sent more than Limit requests within Window.
// The current request is already recorded when it runs, so the request that
// crosses the limit is the one that matches.
type RateDetector struct {
	name   DetectorName
	weight int
	window time.Duration
	limit  int
}

// NewBruteForceDetector creates the brute_force detector.
func NewBruteForceDetector(weight int, window time.Duration, limit int) *RateDetector {
	return &RateDetector{
		name:   DetectorBruteForce,
		weight: weight,
		window: window,
		limit:  limit,
	}
}

// NewHighFrequencyDetector creates the high_frequency detector.
func NewHighFrequencyDetector(weight int, window time.Duration, limit int) *RateDetector {
	return &RateDetector{
		name:   DetectorHighFrequency,
		weight: weight,
		window: window,
		limit:  limit,
	}
}

// Name returns the detector name.
func (d *RateDetector) Name() DetectorName { return d.name }

// Weight returns the score contribution of a match.
func (d *RateDetector) Weight() int { return d.weight }

// Window returns the look-back window.
func (d *RateDetector) Window() time.Duration { return d.window }

// Detect compares the client's request count in the window with the limit.
func (d *RateDetector) Detect(event *RequestEvent, windows WindowReader) DetectorResult {
	if event == nil || windows == nil || event.ClientID == "" {
		return DetectorResult{}
	}
	count := windows.CountInWindow(event.ClientID, d.window)
	if count <= d.limit {
		return DetectorResult{}
	}
	return DetectorResult{
		Matched: true,
		Reason:  fmt.Sprintf("%d requests in %s", count, d.window),
	}
}
