// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

const (
	// MaxLoggedPathLength bounds request paths written to log lines.
	MaxLoggedPathLength = 256

	// MaxLoggedUserAgentLength bounds user agents written to log lines.
	MaxLoggedUserAgentLength = 128
)

// SecurityEvent is a request-level security finding about to be logged.
// All string fields are attacker controlled and are sanitized by LogEvent.
type SecurityEvent struct {
	// Event is the kind of finding ("suspicious_request", "threat_alert", "client_blocked").
	Event     string
	RequestID string
	ClientID  string
	Method    string
	Path      string
	UserAgent string
	Level     string
	Score     int
	Reasons   []string
}

// SecurityLogger writes security findings with sanitized user input.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a security logger on the global logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{
		logger: WithComponent("security"),
	}
}

// NewSecurityLoggerWithLogger creates a security logger with a custom zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: logger.With().Str("component", "security").Logger(),
	}
}

// LogEvent writes event at warn level.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	l.write(l.logger.Warn(), event)
}

// LogCritical writes event at error level. Used for blocks.
func (l *SecurityLogger) LogCritical(event *SecurityEvent) {
	l.write(l.logger.Error(), event)
}

func (l *SecurityLogger) write(e *zerolog.Event, event *SecurityEvent) {
	e = e.Str("event", event.Event).
		Str("client", SanitizeClientID(event.ClientID)).
		Int("score", event.Score)

	if event.RequestID != "" {
		e = e.Str("request_id", event.RequestID)
	}
	if event.Level != "" {
		e = e.Str("threat_level", event.Level)
	}
	if event.Method != "" {
		e = e.Str("method", Sanitize(event.Method, 16))
	}
	if event.Path != "" {
		e = e.Str("path", Sanitize(event.Path, MaxLoggedPathLength))
	}
	if event.UserAgent != "" {
		e = e.Str("user_agent", Sanitize(event.UserAgent, MaxLoggedUserAgentLength))
	}
	if len(event.Reasons) > 0 {
		e = e.Strs("reasons", event.Reasons)
	}
	e.Msg("security event")
}

// Sanitize replaces control characters (including ANSI escape sequences) and
// truncates s to maxLen bytes. maxLen <= 0 disables truncation.
func Sanitize(s string, maxLen int) string {
	if s == "" {
		return s
	}

	clean := s
	if needsSanitizing(s) {
		var b strings.Builder
		b.Grow(len(s))
		for i := 0; i < len(s); i++ {
			c := s[i]
			switch {
			case c == 0x1B:
				b.WriteString("[ESC]")
			case c == '\t', c == '\n':
				b.WriteByte(' ')
			case c == '\r':
				b.WriteString("[CR]")
			case c < 0x20:
				b.WriteString("[CTRL]")
			case c == 0x7F:
				b.WriteString("[DEL]")
			default:
				b.WriteByte(c)
			}
		}
		clean = b.String()
	}
	return truncateString(clean, maxLen)
}

func needsSanitizing(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c < 0x20 || c == 0x7F {
			return true
		}
	}
	return false
}

// SanitizeClientID keeps only characters that can appear in an IP address or
// a host name. Returns "[INVALID]" when nothing is left.
func SanitizeClientID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r == '.', r == ':', r == '-', r == '_', r == '%':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "[INVALID]"
	}
	return truncateString(b.String(), 64)
}

// truncateString shortens s to maxLen bytes, marking the cut with "...".
func truncateString(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
