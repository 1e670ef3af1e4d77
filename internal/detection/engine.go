// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package detection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/tripwire/internal/cache"
	"github.com/tomtom215/tripwire/internal/logging"
	"github.com/tomtom215/tripwire/internal/metrics"
)

const (
	// ReasonCritical is the reason returned to and recorded for blocked clients.
	ReasonCritical = "Critical threat detected"

	// ReasonAllowlisted is the decision reason for allowlisted clients.
	ReasonAllowlisted = "allowlisted"

	// notifyTimeout bounds a single notifier delivery.
	notifyTimeout = 10 * time.Second
)

// Engine scores requests, applies the resulting decision and keeps the
// security state: request tracker, blocklist, ledger and counters.
//
// Evaluate runs entirely on the caller's goroutine and performs no I/O.
// Notifier and broadcaster delivery happens on RunWithContext's goroutine.
type Engine struct {
	cfg        EngineConfig
	clock      func() time.Time
	registry   *Registry
	windows    *cache.TimestampWindows
	blocklist  *Blocklist
	allowlist  *Allowlist
	ledger     *Ledger
	secLog     *logging.SecurityLogger
	logLimiter *rate.Limiter

	enabled atomic.Bool

	totalRequests      atomic.Int64
	blockedRequests    atomic.Int64
	suspiciousRequests atomic.Int64
	securityAlerts     atomic.Int64

	mu          sync.RWMutex
	notifiers   []Notifier
	broadcaster Broadcaster
	dispatch    chan ThreatEvent
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock. Used by tests for deterministic time.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithRegistry replaces the default detector registry.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithNotifier adds a notifier for alert and block events.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		e.notifiers = append(e.notifiers, n)
	}
}

// WithBroadcaster sets the live feed broadcaster.
func WithBroadcaster(b Broadcaster) Option {
	return func(e *Engine) {
		e.broadcaster = b
	}
}

// WithSecurityLogger replaces the security logger.
func WithSecurityLogger(l *logging.SecurityLogger) Option {
	return func(e *Engine) {
		e.secLog = l
	}
}

// NewEngine creates an engine. Zero-valued config fields take their defaults.
func NewEngine(cfg EngineConfig, opts ...Option) (*Engine, error) {
	cfg = cfg.withDefaults()
	if !cfg.Thresholds.Valid() {
		return nil, fmt.Errorf("invalid thresholds %+v: must be positive and ascending", cfg.Thresholds)
	}

	allowlist, err := NewAllowlist(cfg.Allowlist)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:        cfg,
		clock:      time.Now,
		windows:    newTracker(cfg),
		blocklist:  NewBlocklist(cfg.BlockTTL),
		allowlist:  allowlist,
		ledger:     NewLedger(cfg.LedgerCapacity),
		logLimiter: rate.NewLimiter(rate.Limit(cfg.LogRate), cfg.LogBurst),
		dispatch:   make(chan ThreatEvent, cfg.DispatchBuffer),
	}
	e.enabled.Store(true)

	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = NewRegistry(DefaultDetectors(cfg.Detectors)...)
	}
	if e.secLog == nil {
		e.secLog = logging.NewSecurityLogger()
	}
	return e, nil
}

func (c EngineConfig) withDefaults() EngineConfig {
	def := DefaultEngineConfig()
	if c.Thresholds == (Thresholds{}) {
		c.Thresholds = def.Thresholds
	}
	c.Detectors = c.Detectors.withDefaults(def.Detectors)
	if c.Retention.LedgerMaxAge <= 0 {
		c.Retention.LedgerMaxAge = def.Retention.LedgerMaxAge
	}
	if c.Retention.TrackerMaxAge <= 0 {
		c.Retention.TrackerMaxAge = def.Retention.TrackerMaxAge
	}
	if c.Retention.Interval <= 0 {
		c.Retention.Interval = def.Retention.Interval
	}
	if c.LedgerCapacity <= 0 {
		c.LedgerCapacity = def.LedgerCapacity
	}
	if c.LogRate <= 0 {
		c.LogRate = def.LogRate
	}
	if c.LogBurst <= 0 {
		c.LogBurst = def.LogBurst
	}
	if c.DispatchBuffer <= 0 {
		c.DispatchBuffer = def.DispatchBuffer
	}
	if c.ActiveThreatWindow <= 0 {
		c.ActiveThreatWindow = def.ActiveThreatWindow
	}
	if c.ThreatLevelWindow <= 0 {
		c.ThreatLevelWindow = def.ThreatLevelWindow
	}
	return c
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.clock()
}

// Config returns the effective configuration.
func (e *Engine) Config() EngineConfig {
	return e.cfg
}

// Registry returns the detector registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Ledger returns the threat ledger.
func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// Blocklist returns the blocklist.
func (e *Engine) Blocklist() *Blocklist {
	return e.blocklist
}

// SetEnabled enables or disables evaluation. A disabled engine allows every
// request but still counts it.
func (e *Engine) SetEnabled(enabled bool) {
	e.enabled.Store(enabled)
	logging.Info().Bool("enabled", enabled).Msg("security engine state changed")
}

// Enabled returns whether the engine evaluates requests.
func (e *Engine) Enabled() bool {
	return e.enabled.Load()
}

// RegisterNotifier adds a notifier after construction.
func (e *Engine) RegisterNotifier(n Notifier) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.notifiers = append(e.notifiers, n)
	logging.Info().Str("notifier", n.Name()).Msg("registered notifier")
}

// SetBroadcaster sets the live feed broadcaster after construction.
func (e *Engine) SetBroadcaster(b Broadcaster) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.broadcaster = b
}

// Assess scores event as of now without applying any side effect other than
// recording the request in the tracker. Blocklisted clients short-circuit to
// critical without being recorded or evaluated.
func (e *Engine) Assess(event *RequestEvent, now time.Time) Assessment {
	if e.blocklist.Contains(event.ClientID, now) {
		return Assessment{Level: LevelCritical, Blocked: true}
	}

	e.windows.Record(event.ClientID, now)
	matches := e.registry.Evaluate(event, windowReader{windows: e.windows, now: now})
	score := Score(matches)

	return Assessment{
		Level:   e.cfg.Thresholds.Level(score),
		Score:   score,
		Matches: matches,
	}
}

// Evaluate runs the full pipeline for one request and returns the decision.
// The event's Timestamp is set from the engine clock when zero.
func (e *Engine) Evaluate(ctx context.Context, event *RequestEvent) Decision {
	start := time.Now()
	if event.Timestamp.IsZero() {
		event.Timestamp = e.clock()
	}
	now := event.Timestamp
	e.totalRequests.Add(1)

	if !e.enabled.Load() || e.allowlist.Contains(event.ClientID) {
		d := Decision{
			ClientID:  event.ClientID,
			Action:    ActionAllow,
			Level:     LevelSafe,
			Timestamp: now,
		}
		if e.enabled.Load() {
			d.Reason = ReasonAllowlisted
		}
		metrics.RecordDecision(string(d.Action), string(d.Level), 0, time.Since(start))
		return d
	}

	a := e.Assess(event, now)
	d := Decision{
		ClientID:  event.ClientID,
		Action:    ActionForLevel(a.Level),
		Level:     a.Level,
		Score:     a.Score,
		Matches:   a.Matches,
		Blocked:   a.Blocked,
		Timestamp: now,
	}
	if d.Action == ActionBlock {
		d.Reason = ReasonCritical
	} else {
		d.Reason = strings.Join(d.Reasons(), ", ")
	}

	e.apply(ctx, event, &d)
	metrics.RecordDecision(string(d.Action), string(d.Level), d.Score, time.Since(start))
	return d
}

// apply performs the side effects of a decision.
func (e *Engine) apply(ctx context.Context, event *RequestEvent, d *Decision) {
	switch d.Action {
	case ActionBlock:
		e.blockedRequests.Add(1)
		if d.Blocked {
			// Already blocked: the original block event is in the ledger.
			return
		}
		if !e.blocklist.Add(event.ClientID, ReasonCritical, d.Timestamp) {
			// A concurrent evaluation blocked the client first and owns the event.
			return
		}
		metrics.BlocklistSize.Set(float64(e.blocklist.Len()))

		ev := e.recordThreat(event, d, LevelCritical, "Client blocked: "+strings.ToLower(ReasonCritical))
		e.secLog.LogCritical(e.securityEvent(ctx, "client_blocked", event, d))
		e.enqueue(ev)

	case ActionAlert:
		e.securityAlerts.Add(1)
		ev := e.recordThreat(event, d, LevelHigh, "High threat detected")
		e.secLog.LogEvent(e.securityEvent(ctx, "threat_alert", event, d))
		e.enqueue(ev)

	case ActionLog:
		e.suspiciousRequests.Add(1)
		if e.logLimiter.Allow() {
			e.secLog.LogEvent(e.securityEvent(ctx, "suspicious_request", event, d))
		} else {
			metrics.SuppressedLogLines.Inc()
		}
	}
}

func (e *Engine) securityEvent(ctx context.Context, kind string, event *RequestEvent, d *Decision) *logging.SecurityEvent {
	return &logging.SecurityEvent{
		Event:     kind,
		RequestID: logging.RequestIDFromContext(ctx),
		ClientID:  event.ClientID,
		Method:    event.Method,
		Path:      event.Path,
		UserAgent: event.UserAgent,
		Level:     string(d.Level),
		Score:     d.Score,
		Reasons:   d.Reasons(),
	}
}

// recordThreat appends a ThreatEvent for d to the ledger.
func (e *Engine) recordThreat(event *RequestEvent, d *Decision, severity ThreatLevel, message string) ThreatEvent {
	ev := ThreatEvent{
		ID:        uuid.New().String(),
		Timestamp: d.Timestamp,
		ClientID:  event.ClientID,
		Message:   message,
		Severity:  severity,
		Score:     d.Score,
		Reasons:   d.Reasons(),
		Request:   event.Meta(),
	}
	e.ledger.Append(ev)
	metrics.LedgerSize.Set(float64(e.ledger.Len()))
	return ev
}

// Unblock removes client from the blocklist and clears its request history.
func (e *Engine) Unblock(client string) error {
	if !e.blocklist.Remove(client) {
		return fmt.Errorf("%w: %s", ErrClientNotBlocked, client)
	}
	e.windows.Remove(client)
	metrics.BlocklistSize.Set(float64(e.blocklist.Len()))
	logging.Info().Str("client", logging.SanitizeClientID(client)).Msg("client unblocked")
	return nil
}

// hasSinks reports whether any notifier or broadcaster is attached.
func (e *Engine) hasSinks() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.broadcaster != nil || len(e.notifiers) > 0
}

// enqueue hands ev to the dispatcher without blocking.
func (e *Engine) enqueue(ev ThreatEvent) {
	if !e.hasSinks() {
		return
	}
	select {
	case e.dispatch <- ev:
	default:
		metrics.DispatchDropped.Inc()
		logging.Warn().Str("event_id", ev.ID).Msg("dispatch queue full, dropping threat event")
	}
}

// RunWithContext delivers queued threat events to notifiers and the
// broadcaster until ctx is canceled, and broadcasts a metrics snapshot every
// metricsInterval when a broadcaster is set. A non-positive interval disables
// the snapshots. Returns ctx.Err() on cancellation.
//
// This method is designed for use with suture supervision.
func (e *Engine) RunWithContext(ctx context.Context, metricsInterval time.Duration) error {
	var tick <-chan time.Time
	if metricsInterval > 0 {
		ticker := time.NewTicker(metricsInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-e.dispatch:
			e.deliver(ctx, &ev)
		case <-tick:
			e.broadcastMetrics()
		}
	}
}

// deliver sends ev to every enabled notifier and the broadcaster.
func (e *Engine) deliver(ctx context.Context, ev *ThreatEvent) {
	e.mu.RLock()
	notifiers := make([]Notifier, 0, len(e.notifiers))
	for _, n := range e.notifiers {
		if n.Enabled() {
			notifiers = append(notifiers, n)
		}
	}
	broadcaster := e.broadcaster
	e.mu.RUnlock()

	if broadcaster != nil {
		broadcaster.BroadcastJSON(MessageTypeThreatEvent, ev)
	}

	for _, n := range notifiers {
		sendCtx, cancel := context.WithTimeout(ctx, notifyTimeout)
		err := n.Send(sendCtx, ev)
		cancel()

		metrics.RecordNotification(n.Name(), err)
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Str("notifier", n.Name()).Str("event_id", ev.ID).Msg("failed to send threat notification")
		}
	}
}

func (e *Engine) broadcastMetrics() {
	e.mu.RLock()
	broadcaster := e.broadcaster
	e.mu.RUnlock()

	if broadcaster == nil {
		return
	}
	broadcaster.BroadcastJSON(MessageTypeSecurityMetrics, e.SecurityMetrics(e.clock()))
}
