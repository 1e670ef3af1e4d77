// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package services

import (
	"context"
	"time"
)

// DispatchEngine is satisfied by *detection.Engine.
type DispatchEngine interface {
	// RunWithContext drains the threat event queue into notifiers and the
	// stream, and publishes a metrics snapshot every metricsInterval.
	RunWithContext(ctx context.Context, metricsInterval time.Duration) error
}

// DetectionService supervises the engine's dispatcher.
//
// Evaluation does not depend on this service: decisions are made inline by
// the HTTP middleware. While the dispatcher is down, threat events wait in the
// engine's bounded queue and are dropped (and counted) once it is full.
type DetectionService struct {
	engine          DispatchEngine
	metricsInterval time.Duration
	name            string
}

// NewDetectionService wraps engine. A non-positive metricsInterval disables
// the periodic metrics snapshots.
func NewDetectionService(engine DispatchEngine, metricsInterval time.Duration) *DetectionService {
	return &DetectionService{
		engine:          engine,
		metricsInterval: metricsInterval,
		name:            "detection-dispatcher",
	}
}

// Serve implements suture.Service.
func (d *DetectionService) Serve(ctx context.Context) error {
	return d.engine.RunWithContext(ctx, d.metricsInterval)
}

// String implements fmt.Stringer.
func (d *DetectionService) String() string {
	return d.name
}
