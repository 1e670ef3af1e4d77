// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package detection

import "errors"

var (
	// ErrDetectorNotFound is returned when a detector name is not registered.
	ErrDetectorNotFound = errors.New("detector not found")

	// ErrClientNotBlocked is returned when unblocking a client that is not on the blocklist.
	ErrClientNotBlocked = errors.New("client not blocked")

	// ErrInvalidThreatLevel is returned when parsing an unknown threat level name.
	ErrInvalidThreatLevel = errors.New("invalid threat level")

	// ErrInvalidAllowlistEntry is returned for allowlist entries that are neither an IP nor a CIDR.
	ErrInvalidAllowlistEntry = errors.New("invalid allowlist entry")
)
