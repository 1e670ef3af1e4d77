// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package detection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/tripwire/internal/logging"
	"github.com/tomtom215/tripwire/internal/metrics"
)

// webhookBreakerName labels the webhook circuit breaker in metrics.
const webhookBreakerName = "webhook-notifier"

// WebhookNotifier posts threat events to an HTTP endpoint.
//
// Deliveries go through a circuit breaker so an unreachable endpoint stops
// consuming dispatcher time after repeated failures.
type WebhookNotifier struct {
	webhookURL  string
	headers     map[string]string
	minSeverity ThreatLevel
	client      *http.Client
	cb          *gobreaker.CircuitBreaker[struct{}]
	now         func() time.Time

	mu      sync.RWMutex
	enabled bool
}

// WebhookConfig configures the webhook notifier.
type WebhookConfig struct {
	WebhookURL string            `json:"webhook_url"`
	Headers    map[string]string `json:"headers,omitempty"`
	Enabled    bool              `json:"enabled"`

	// MinSeverity is the lowest event severity delivered. Default: high.
	MinSeverity ThreatLevel `json:"min_severity"`

	// Timeout bounds each HTTP request. Default: 10s.
	Timeout time.Duration `json:"timeout"`

	// BreakerTimeout is how long the circuit stays open before probing again. Default: 1m.
	BreakerTimeout time.Duration `json:"breaker_timeout"`
}

// WebhookPayload is the JSON body posted to the webhook endpoint.
type WebhookPayload struct {
	Event     *ThreatEvent `json:"event"`
	EventType string       `json:"event_type"` // threat_event
	Timestamp time.Time    `json:"timestamp"`
	Source    string       `json:"source"` // tripwire
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(config WebhookConfig) *WebhookNotifier {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	breakerTimeout := config.BreakerTimeout
	if breakerTimeout <= 0 {
		breakerTimeout = time.Minute
	}
	minSeverity := config.MinSeverity
	if minSeverity.Rank() < 0 {
		minSeverity = LevelHigh
	}

	headers := make(map[string]string, len(config.Headers))
	for k, v := range config.Headers {
		headers[k] = v
	}

	metrics.CircuitBreakerState.WithLabelValues(webhookBreakerName).Set(0)

	return &WebhookNotifier{
		webhookURL:  config.WebhookURL,
		headers:     headers,
		minSeverity: minSeverity,
		enabled:     config.Enabled,
		client:      &http.Client{Timeout: timeout},
		now:         time.Now,
		cb: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        webhookBreakerName,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     breakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state transition")
				metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
				metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			},
		}),
	}
}

// Name returns the notifier name.
func (n *WebhookNotifier) Name() string {
	return "webhook"
}

// Enabled returns whether this notifier is enabled.
func (n *WebhookNotifier) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled && n.webhookURL != ""
}

// SetEnabled enables or disables the notifier.
func (n *WebhookNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// Send posts event to the webhook. Events below the minimum severity are
// skipped without error.
func (n *WebhookNotifier) Send(ctx context.Context, event *ThreatEvent) error {
	if !n.Enabled() || event.Severity.Rank() < n.minSeverity.Rank() {
		return nil
	}

	_, err := n.cb.Execute(func() (struct{}, error) {
		return struct{}{}, n.post(ctx, event)
	})

	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(webhookBreakerName, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(webhookBreakerName, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(webhookBreakerName, "failure").Inc()
	}
	return err
}

func (n *WebhookNotifier) post(ctx context.Context, event *ThreatEvent) error {
	payload := WebhookPayload{
		Event:     event,
		EventType: MessageTypeThreatEvent,
		Timestamp: n.now().UTC(),
		Source:    "tripwire",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range n.headers {
		req.Header.Set(key, value)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// BreakerState returns the circuit breaker state name.
func (n *WebhookNotifier) BreakerState() string {
	return n.cb.State().String()
}

// breakerStateValue converts circuit breaker state to numeric value for metrics.
func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
