// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package detection

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ThreatLevel is the severity assigned to a request from its score.
type ThreatLevel string

const (
	LevelSafe     ThreatLevel = "safe"
	LevelLow      ThreatLevel = "low"
	LevelMedium   ThreatLevel = "medium"
	LevelHigh     ThreatLevel = "high"
	LevelCritical ThreatLevel = "critical"
)

// Rank orders levels from safe (0) to critical (4). Unknown levels rank -1.
func (l ThreatLevel) Rank() int {
	switch l {
	case LevelSafe:
		return 0
	case LevelLow:
		return 1
	case LevelMedium:
		return 2
	case LevelHigh:
		return 3
	case LevelCritical:
		return 4
	default:
		return -1
	}
}

// ParseThreatLevel converts a level name into a ThreatLevel.
func ParseThreatLevel(s string) (ThreatLevel, error) {
	level := ThreatLevel(strings.ToLower(strings.TrimSpace(s)))
	if level.Rank() < 0 {
		return "", ErrInvalidThreatLevel
	}
	return level, nil
}

// Action is what the middleware does with a request.
type Action string

const (
	ActionAllow Action = "allow"
	ActionLog   Action = "log"
	ActionAlert Action = "alert"
	ActionBlock Action = "block"
)

// DetectorName identifies a detector.
type DetectorName string

const (
	// DetectorSQLInjection matches SQL keywords and tautologies.
	DetectorSQLInjection DetectorName = "sql_injection"

	// DetectorXSS matches script tags, javascript: URLs and inline handlers.
	DetectorXSS DetectorName = "xss"

	// DetectorPathTraversal matches "../" sequences, including encoded forms.
	DetectorPathTraversal DetectorName = "path_traversal"

	// DetectorBruteForce fires when a client exceeds its 5 minute request budget.
	DetectorBruteForce DetectorName = "brute_force"

	// DetectorBotTraffic matches crawler and tooling user agents.
	DetectorBotTraffic DetectorName = "bot_traffic"

	// DetectorHighFrequency fires when a client exceeds its 1 minute request budget.
	DetectorHighFrequency DetectorName = "high_frequency"

	// DetectorSuspiciousUserAgent matches empty, tiny or bare tool user agents.
	DetectorSuspiciousUserAgent DetectorName = "suspicious_user_agent"
)

// RequestEvent is the normalized view of one inbound request.
type RequestEvent struct {
	ClientID    string            `json:"client_id"`
	Timestamp   time.Time         `json:"timestamp"`
	Method      string            `json:"method"`
	Path        string            `json:"path"` // raw path including the raw query string
	QueryParams map[string]string `json:"query_params,omitempty"`
	BodyParams  map[string]any    `json:"body_params,omitempty"`
	UserAgent   string            `json:"user_agent"`
	Headers     map[string]string `json:"headers,omitempty"`

	texts      *RequestTexts
	textsLimit int
}

// RequestTexts holds the strings signature detectors match against.
type RequestTexts struct {
	// Full is the raw path (plus its percent-decoded form when it differs),
	// the serialized query and the serialized body, separated by spaces.
	Full string

	// PathAndQuery is the raw path, its decoded form and the serialized query.
	// Bodies are excluded so that uploads cannot trip path detectors.
	PathAndQuery string
}

// Texts returns the composed search strings. Path, query and body are each
// capped at limit bytes before they are joined, so an oversized field cannot
// push another one out of view. The result is cached on the event; detectors
// running on the same event share it.
func (e *RequestEvent) Texts(limit int) RequestTexts {
	if limit <= 0 {
		limit = DefaultMaxInputBytes
	}
	if e.texts != nil && e.textsLimit == limit {
		return *e.texts
	}

	path := e.Path
	if decoded := decodePath(e.Path); decoded != "" {
		path += " " + decoded
	}
	path = capBytes(path, limit)
	query := capBytes(marshalParams(e.QueryParams), limit)
	body := capBytes(marshalParams(e.BodyParams), limit)

	e.texts = &RequestTexts{
		Full:         joinNonEmpty(path, query, body),
		PathAndQuery: joinNonEmpty(path, query),
	}
	e.textsLimit = limit
	return *e.texts
}

func joinNonEmpty(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}

// Meta returns the fields of the event kept on ledger entries.
func (e *RequestEvent) Meta() RequestMeta {
	return RequestMeta{
		Method:    e.Method,
		Path:      e.Path,
		UserAgent: e.UserAgent,
	}
}

// marshalParams serializes params without HTML escaping so that "<script>"
// stays visible to pattern matching. Empty or unserializable input yields "".
func marshalParams[V any](params map[string]V) string {
	if len(params) == 0 {
		return ""
	}
	b, err := json.MarshalWithOption(params, json.DisableHTMLEscape())
	if err != nil {
		return ""
	}
	return string(b)
}

// decodePath returns the percent-decoded path, or "" when decoding fails or
// changes nothing.
func decodePath(raw string) string {
	if !strings.Contains(raw, "%") {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil || decoded == raw {
		return ""
	}
	return decoded
}

func capBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// WindowReader gives detectors read access to per-client request history as
// of the evaluation time.
type WindowReader interface {
	// CountInWindow returns how many requests clientID made in the last window.
	CountInWindow(clientID string, window time.Duration) int
}

// DetectorResult is the outcome of one detector on one request.
type DetectorResult struct {
	Detector DetectorName `json:"detector"`
	Matched  bool         `json:"matched"`
	Weight   int          `json:"weight"`
	Reason   string       `json:"reason,omitempty"`
}

// Detector inspects a request and reports whether it matches a threat signature.
//
// Implementations must be safe for concurrent use, must not mutate shared
// state, and must treat malformed input as a non-match.
type Detector interface {
	Name() DetectorName
	Weight() int
	Detect(event *RequestEvent, windows WindowReader) DetectorResult
}

// Decision is the engine's verdict on a request.
type Decision struct {
	ClientID  string           `json:"client_id"`
	Action    Action           `json:"action"`
	Level     ThreatLevel      `json:"level"`
	Score     int              `json:"score"`
	Reason    string           `json:"reason,omitempty"`
	Matches   []DetectorResult `json:"matches,omitempty"`
	Blocked   bool             `json:"blocked"` // client was already on the blocklist
	Timestamp time.Time        `json:"timestamp"`
}

// Reasons returns the detector names that matched.
func (d Decision) Reasons() []string {
	reasons := make([]string, 0, len(d.Matches))
	for _, m := range d.Matches {
		reasons = append(reasons, string(m.Detector))
	}
	return reasons
}

// RequestMeta is the request summary stored with a ThreatEvent.
type RequestMeta struct {
	Method    string `json:"method"`
	Path      string `json:"path"`
	UserAgent string `json:"user_agent"`
}

// ThreatEvent is an alert or block recorded in the ledger.
type ThreatEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	ClientID  string      `json:"client_id"`
	Message   string      `json:"message"`
	Severity  ThreatLevel `json:"severity"`
	Score     int         `json:"score"`
	Reasons   []string    `json:"reasons,omitempty"`
	Request   RequestMeta `json:"request"`
}

// Notifier delivers threat events to an external system.
type Notifier interface {
	// Name returns the notifier name for logging and metrics.
	Name() string

	// Enabled reports whether the notifier should receive events.
	Enabled() bool

	// Send delivers one event.
	Send(ctx context.Context, event *ThreatEvent) error
}

// Broadcaster pushes messages to live subscribers.
type Broadcaster interface {
	BroadcastJSON(messageType string, data interface{})
}

// Message types used with Broadcaster.
const (
	MessageTypeThreatEvent     = "threat_event"
	MessageTypeSecurityMetrics = "security_metrics"
)
