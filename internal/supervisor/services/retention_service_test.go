// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/tripwire/internal/detection"
)

type mockRetentionRunner struct {
	mu       sync.Mutex
	calls    int
	interval time.Duration
}

func (m *mockRetentionRunner) RunRetention(ctx context.Context, interval time.Duration) error {
	m.mu.Lock()
	m.calls++
	m.interval = interval
	m.mu.Unlock()

	<-ctx.Done()
	return ctx.Err()
}

func TestRetentionService_Interface(t *testing.T) {
	t.Parallel()

	var _ suture.Service = (*RetentionService)(nil)
	var _ RetentionRunner = (*detection.Engine)(nil)
	var _ DispatchEngine = (*detection.Engine)(nil)
}

func TestRetentionService_Serve(t *testing.T) {
	t.Parallel()

	runner := &mockRetentionRunner{}
	svc := NewRetentionService(runner, 30*time.Minute)
	if svc.String() != "retention" {
		t.Errorf("String() = %q, want 'retention'", svc.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() error = %v, want context.DeadlineExceeded", err)
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if runner.calls != 1 || runner.interval != 30*time.Minute {
		t.Errorf("calls = %d interval = %v, want 1 call with 30m", runner.calls, runner.interval)
	}
}

// safeClock lets the test move the engine's clock while retention runs.
type safeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *safeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *safeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRetentionService_PrunesEngineState(t *testing.T) {
	t.Parallel()

	clock := &safeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	engine, err := detection.NewEngine(detection.DefaultEngineConfig(), detection.WithClock(clock.Now))
	if err != nil {
		t.Fatal(err)
	}

	// Path traversal from a client without a User-Agent raises an alert
	d := engine.Evaluate(context.Background(), &detection.RequestEvent{
		ClientID: "192.0.2.10",
		Method:   http.MethodGet,
		Path:     "/static/../../etc/passwd",
	})
	if d.Action != detection.ActionAlert {
		t.Fatalf("decision = %+v, want alert", d)
	}
	if engine.Ledger().Len() != 1 {
		t.Fatalf("ledger len = %d, want 1", engine.Ledger().Len())
	}

	clock.Advance(8 * 24 * time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- NewRetentionService(engine, 10*time.Millisecond).Serve(ctx)
	}()

	deadline := time.Now().Add(time.Second)
	for engine.Ledger().Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	if n := engine.Ledger().Len(); n != 0 {
		t.Errorf("ledger len = %d after retention, want 0", n)
	}
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}
