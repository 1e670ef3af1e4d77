// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package detection

// Assessment is the scored view of a request before any side effects.
type Assessment struct {
	Level   ThreatLevel
	Score   int
	Matches []DetectorResult

	// Blocked is true when the client was already on the blocklist. No
	// detectors ran and Score is zero.
	Blocked bool
}

// Score sums the weights of matched results. Each detector counts once, so
// the result does not depend on order or on duplicated entries. The sum is
// not clamped.
func Score(results []DetectorResult) int {
	seen := make(map[DetectorName]struct{}, len(results))
	total := 0
	for _, r := range results {
		if !r.Matched {
			continue
		}
		if _, dup := seen[r.Detector]; dup {
			continue
		}
		seen[r.Detector] = struct{}{}
		total += r.Weight
	}
	return total
}

// Level maps a score to a threat level.
func (t Thresholds) Level(score int) ThreatLevel {
	switch {
	case score >= t.Critical:
		return LevelCritical
	case score >= t.High:
		return LevelHigh
	case score >= t.Medium:
		return LevelMedium
	case score >= t.Low:
		return LevelLow
	default:
		return LevelSafe
	}
}

// Valid reports whether the thresholds are positive and strictly ascending
// from low to critical.
func (t Thresholds) Valid() bool {
	return t.Low > 0 && t.Low < t.Medium && t.Medium < t.High && t.High < t.Critical
}

// LevelForScore maps a score to a level using the default thresholds.
func LevelForScore(score int) ThreatLevel {
	return DefaultThresholds().Level(score)
}

// ActionForLevel maps a threat level to the action taken.
func ActionForLevel(level ThreatLevel) Action {
	switch level {
	case LevelCritical:
		return ActionBlock
	case LevelHigh:
		return ActionAlert
	case LevelMedium, LevelLow:
		return ActionLog
	default:
		return ActionAllow
	}
}
