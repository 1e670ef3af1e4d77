// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package detection

import (
	"strings"

	"github.com/tomtom215/tripwire/internal/cache"
)

// BotTrafficDetector matches user agents containing crawler or tooling keywords.
// Keywords are compiled once into an Aho-Corasick automaton so each request
// costs a single pass over the user agent regardless of keyword count.
type BotTrafficDetector struct {
	weight  int
	matcher *cache.KeywordMatcher
}

// NewBotTrafficDetector creates the bot_traffic detector.
func NewBotTrafficDetector(weight int, keywords []string) *BotTrafficDetector {
	return &BotTrafficDetector{
		weight:  weight,
		matcher: cache.NewKeywordMatcher(keywords),
	}
}

// Name returns the detector name.
func (d *BotTrafficDetector) Name() DetectorName { return DetectorBotTraffic }

// Weight returns the score contribution of a match.
func (d *BotTrafficDetector) Weight() int { return d.weight }

// Detect scans the user agent for bot keywords.
func (d *BotTrafficDetector) Detect(event *RequestEvent, _ WindowReader) DetectorResult {
	if event == nil {
		return DetectorResult{}
	}
	kw, ok := d.matcher.First(event.UserAgent)
	if !ok {
		return DetectorResult{}
	}
	return DetectorResult{Matched: true, Reason: "user agent contains " + kw}
}

// minUserAgentLength is the shortest user agent not considered suspicious.
const minUserAgentLength = 10

// suspiciousUserAgentPrefixes are tool names that real browsers never lead with.
var suspiciousUserAgentPrefixes = []string{"curl", "wget", "python", "java"}

// SuspiciousUserAgentDetector matches missing, truncated or bare-tool user agents.
type SuspiciousUserAgentDetector struct {
	weight int
}

// NewSuspiciousUserAgentDetector creates the suspicious_user_agent detector.
func NewSuspiciousUserAgentDetector(weight int) *SuspiciousUserAgentDetector {
	return &SuspiciousUserAgentDetector{weight: weight}
}

// Name returns the detector name.
func (d *SuspiciousUserAgentDetector) Name() DetectorName { return DetectorSuspiciousUserAgent }

// Weight returns the score contribution of a match.
func (d *SuspiciousUserAgentDetector) Weight() int { return d.weight }

// Detect checks the user agent's shape.
func (d *SuspiciousUserAgentDetector) Detect(event *RequestEvent, _ WindowReader) DetectorResult {
	if event == nil {
		return DetectorResult{}
	}
	ua := event.UserAgent

	switch {
	case ua == "":
		return DetectorResult{Matched: true, Reason: "missing user agent"}
	case len(ua) < minUserAgentLength:
		return DetectorResult{Matched: true, Reason: "user agent too short"}
	case ua == "Mozilla/5.0":
		return DetectorResult{Matched: true, Reason: "bare Mozilla/5.0 user agent"}
	}

	lower := strings.ToLower(ua)
	for _, prefix := range suspiciousUserAgentPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return DetectorResult{Matched: true, Reason: "user agent starts with " + prefix}
		}
	}
	return DetectorResult{}
}
