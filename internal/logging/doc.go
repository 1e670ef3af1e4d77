// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

// Package logging provides centralized zerolog-based structured logging for Tripwire.
//
// # Overview
//
// The package provides:
//   - A global zerolog logger configured once from main via Init
//   - JSON output for production, console output for development
//   - Context-aware logging carrying request and client identifiers
//   - An slog adapter so suture's sutureslog hook logs through zerolog
//   - A SecurityLogger that sanitizes attacker-controlled request data
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("addr", addr).Msg("HTTP server listening")
//	logging.Error().Err(err).Msg("Webhook delivery failed")
//
//	logging.Ctx(ctx).Warn().Int("score", 40).Msg("Suspicious request")
//
// # Security Logging
//
// Paths and user agents arrive straight from the client. SecurityLogger
// replaces control characters and ANSI escapes and truncates long values
// before they reach a log line, so a crafted request cannot forge or
// corrupt log output.
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
package logging
