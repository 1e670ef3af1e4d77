// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package detection

import (
	"fmt"
	"sync"

	"github.com/tomtom215/tripwire/internal/logging"
	"github.com/tomtom215/tripwire/internal/metrics"
)

// DetectorInfo describes a registered detector.
type DetectorInfo struct {
	Name    DetectorName `json:"name"`
	Weight  int          `json:"weight"`
	Enabled bool         `json:"enabled"`
}

type registryEntry struct {
	detector Detector
	enabled  bool
}

// DefaultDetectors returns the built-in detectors in evaluation order.
func DefaultDetectors(cfg DetectorConfig) []Detector {
	return []Detector{
		NewSQLInjectionDetector(cfg.SQLInjectionWeight, cfg.MaxInputBytes),
		NewXSSDetector(cfg.XSSWeight, cfg.MaxInputBytes),
		NewPathTraversalDetector(cfg.PathTraversalWeight, cfg.MaxInputBytes),
		NewBruteForceDetector(cfg.BruteForceWeight, cfg.BruteForceWindow, cfg.BruteForceLimit),
		NewBotTrafficDetector(cfg.BotTrafficWeight, cfg.BotKeywords),
		NewHighFrequencyDetector(cfg.HighFrequencyWeight, cfg.HighFrequencyWindow, cfg.HighFrequencyLimit),
		NewSuspiciousUserAgentDetector(cfg.SuspiciousUserAgentWeight),
	}
}

// Registry holds detectors in registration order.
type Registry struct {
	mu      sync.RWMutex
	entries []registryEntry
}

// NewRegistry creates a registry containing detectors, all enabled.
func NewRegistry(detectors ...Detector) *Registry {
	r := &Registry{}
	for _, d := range detectors {
		r.Register(d)
	}
	return r
}

// Register adds a detector. A detector with the same name replaces the
// existing one in place, keeping its position and enabled state.
func (r *Registry) Register(d Detector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		if r.entries[i].detector.Name() == d.Name() {
			r.entries[i].detector = d
			logging.Info().Str("detector", string(d.Name())).Msg("replaced detector")
			return
		}
	}
	r.entries = append(r.entries, registryEntry{detector: d, enabled: true})
	logging.Debug().Str("detector", string(d.Name())).Int("weight", d.Weight()).Msg("registered detector")
}

// SetEnabled toggles a detector at runtime.
func (r *Registry) SetEnabled(name DetectorName, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		if r.entries[i].detector.Name() == name {
			r.entries[i].enabled = enabled
			logging.Info().Str("detector", string(name)).Bool("enabled", enabled).Msg("detector state changed")
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrDetectorNotFound, name)
}

// Get returns the detector registered under name.
func (r *Registry) Get(name DetectorName) (Detector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.detector.Name() == name {
			return e.detector, true
		}
	}
	return nil, false
}

// List returns all registered detectors in registration order.
func (r *Registry) List() []DetectorInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]DetectorInfo, 0, len(r.entries))
	for _, e := range r.entries {
		infos = append(infos, DetectorInfo{
			Name:    e.detector.Name(),
			Weight:  e.detector.Weight(),
			Enabled: e.enabled,
		})
	}
	return infos
}

// Len returns the number of registered detectors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Evaluate runs every enabled detector against event and returns the
// matched results in registration order. The result's name and weight are
// always taken from the detector itself.
func (r *Registry) Evaluate(event *RequestEvent, windows WindowReader) []DetectorResult {
	detectors := r.enabledDetectors()

	var matches []DetectorResult
	for _, d := range detectors {
		res, ok := runDetector(d, event, windows)
		if !ok || !res.Matched {
			continue
		}
		res.Detector = d.Name()
		res.Weight = d.Weight()
		matches = append(matches, res)
		metrics.RecordDetectorMatch(string(res.Detector))
	}
	return matches
}

func (r *Registry) enabledDetectors() []Detector {
	r.mu.RLock()
	defer r.mu.RUnlock()

	detectors := make([]Detector, 0, len(r.entries))
	for _, e := range r.entries {
		if e.enabled {
			detectors = append(detectors, e.detector)
		}
	}
	return detectors
}

// runDetector calls d.Detect, converting a panic into a non-match.
func runDetector(d Detector, event *RequestEvent, windows WindowReader) (res DetectorResult, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			metrics.DetectorPanics.WithLabelValues(string(d.Name())).Inc()
			logging.Error().
				Str("detector", string(d.Name())).
				Str("panic", fmt.Sprint(p)).
				Msg("detector panicked, treating as no match")
			res, ok = DetectorResult{}, false
		}
	}()
	return d.Detect(event, windows), true
}
