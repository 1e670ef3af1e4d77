// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package services

import (
	"context"
	"time"
)

// RetentionRunner is satisfied by *detection.Engine.
type RetentionRunner interface {
	RunRetention(ctx context.Context, interval time.Duration) error
}

// RetentionService periodically prunes the threat ledger, the request
// tracker and expired blocklist entries.
type RetentionService struct {
	runner   RetentionRunner
	interval time.Duration
	name     string
}

// NewRetentionService wraps runner. A non-positive interval lets the runner
// use its configured default.
func NewRetentionService(runner RetentionRunner, interval time.Duration) *RetentionService {
	return &RetentionService{
		runner:   runner,
		interval: interval,
		name:     "retention",
	}
}

// Serve implements suture.Service.
func (r *RetentionService) Serve(ctx context.Context) error {
	return r.runner.RunRetention(ctx, r.interval)
}

// String implements fmt.Stringer.
func (r *RetentionService) String() string {
	return r.name
}
