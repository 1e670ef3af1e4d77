// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tripwire/internal/detection"
	"github.com/tomtom215/tripwire/internal/logging"
)

// stubEvaluator returns a fixed decision and records the events it saw.
type stubEvaluator struct {
	mu       sync.Mutex
	decision detection.Decision
	events   []*detection.RequestEvent
}

func (s *stubEvaluator) Evaluate(_ context.Context, ev *detection.RequestEvent) detection.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.decision
}

func (s *stubEvaluator) last() *detection.RequestEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return nil
	}
	return s.events[len(s.events)-1]
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityAudit_AllowSetsHeaders(t *testing.T) {
	t.Parallel()

	ev := &stubEvaluator{decision: detection.Decision{Action: detection.ActionAllow, Level: detection.LevelSafe}}
	called := false
	handler := SecurityAudit(ev, SecurityOptions{})(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/products?id=7", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("next handler should be called")
	}
	want := map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"X-XSS-Protection":          "1; mode=block",
		"Referrer-Policy":           "strict-origin-when-cross-origin",
		"Permissions-Policy":        "geolocation=(), microphone=(), camera=()",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestSecurityAudit_LogAndAlertContinue(t *testing.T) {
	t.Parallel()

	for _, action := range []detection.Action{detection.ActionLog, detection.ActionAlert} {
		ev := &stubEvaluator{decision: detection.Decision{Action: action}}
		called := false
		handler := SecurityAudit(ev, SecurityOptions{})(okHandler(&called))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if !called || rec.Code != http.StatusOK {
			t.Errorf("%s: called=%v code=%d, want next called with 200", action, called, rec.Code)
		}
		if rec.Header().Get("X-Frame-Options") != "DENY" {
			t.Errorf("%s: security headers missing", action)
		}
	}
}

func TestSecurityAudit_BlockReturns403(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := &stubEvaluator{decision: detection.Decision{
		Action:    detection.ActionBlock,
		Level:     detection.LevelCritical,
		Reason:    detection.ReasonCritical,
		Timestamp: ts,
	}}
	called := false
	handler := SecurityAudit(ev, SecurityOptions{})(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

	if called {
		t.Error("next handler should not be called for blocked request")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if rec.Header().Get("X-Frame-Options") != "" {
		t.Error("blocked responses should not carry security headers")
	}

	var body BlockedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "Request blocked" || body.Reason != detection.ReasonCritical {
		t.Errorf("body = %+v", body)
	}
	if body.Timestamp != "2026-03-01T12:00:00Z" {
		t.Errorf("timestamp = %q, want RFC3339", body.Timestamp)
	}
}

func TestSecurityAudit_ContextValues(t *testing.T) {
	t.Parallel()

	ev := &stubEvaluator{decision: detection.Decision{Action: detection.ActionLog, Score: 25}}
	var gotClient string
	var gotDecision detection.Decision
	var ok bool
	handler := SecurityAudit(ev, SecurityOptions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClient = logging.ClientIDFromContext(r.Context())
		gotDecision, ok = DecisionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.4:51234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotClient != "203.0.113.4" {
		t.Errorf("client id = %q, want 203.0.113.4", gotClient)
	}
	if !ok || gotDecision.Score != 25 {
		t.Errorf("decision = %+v, %v, want score 25", gotDecision, ok)
	}
}

func TestBuildRequestEvent_JSONBodyRestored(t *testing.T) {
	t.Parallel()

	body := `{"comment":"<script>alert(1)</script>","n":3}`
	req := httptest.NewRequest(http.MethodPost, "/comments?id=1%27%20OR%20%271%27%3D%271", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("User-Agent", "curl/8.4.0")
	req.RemoteAddr = "192.0.2.1:4000"

	ev := BuildRequestEvent(req, SecurityOptions{})

	if ev.ClientID != "192.0.2.1" {
		t.Errorf("ClientID = %q", ev.ClientID)
	}
	if ev.Method != http.MethodPost || ev.UserAgent != "curl/8.4.0" {
		t.Errorf("method/ua = %s/%s", ev.Method, ev.UserAgent)
	}
	if ev.Path != "/comments?id=1%27%20OR%20%271%27%3D%271" {
		t.Errorf("Path = %q, want raw request URI", ev.Path)
	}
	if ev.QueryParams["id"] != "1' OR '1'='1" {
		t.Errorf("QueryParams[id] = %q", ev.QueryParams["id"])
	}
	if ev.BodyParams["comment"] != "<script>alert(1)</script>" {
		t.Errorf("BodyParams[comment] = %v", ev.BodyParams["comment"])
	}
	if !ev.Timestamp.IsZero() {
		t.Error("timestamp should be left for the engine clock")
	}

	rest, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatalf("read restored body: %v", err)
	}
	if string(rest) != body {
		t.Errorf("restored body = %q, want original", rest)
	}
}

func TestBuildRequestEvent_FormBody(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("user=admin&pass=x%27+OR+1%3D1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	ev := BuildRequestEvent(req, SecurityOptions{})
	if ev.BodyParams["user"] != "admin" || ev.BodyParams["pass"] != "x' OR 1=1" {
		t.Errorf("BodyParams = %v", ev.BodyParams)
	}
}

func TestBuildRequestEvent_IgnoredBodies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		body        string
		limit       int64
	}{
		{"malformed json", "application/json", `{"a":`, 0},
		{"json array", "application/json", `[1,2,3]`, 0},
		{"plain text", "text/plain", "SELECT 1", 0},
		{"over limit", "application/json", `{"a":"` + strings.Repeat("x", 100) + `"}`, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)

			ev := BuildRequestEvent(req, SecurityOptions{MaxBodyBytes: tt.limit})
			if ev.BodyParams != nil {
				t.Errorf("BodyParams = %v, want nil", ev.BodyParams)
			}
			rest, _ := io.ReadAll(req.Body)
			if string(rest) != tt.body {
				t.Errorf("body not restored: %q", rest)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		remote string
		want   string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"192.0.2.9", "192.0.2.9"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if got := ClientIP(req); got != tt.want {
			t.Errorf("ClientIP(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}

func TestSecurityAudit_WithEngine(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine, err := detection.NewEngine(detection.DefaultEngineConfig(), detection.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	called := 0
	handler := SecurityAudit(engine, SecurityOptions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
	}))

	const ua = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

	attack := httptest.NewRequest(http.MethodPost, "/users?id=1%27%20OR%20%271%27%3D%271", strings.NewReader(`{"c":"<script>alert(1)</script>"}`))
	attack.Header.Set("Content-Type", "application/json")
	attack.Header.Set("User-Agent", ua)
	attack.RemoteAddr = "198.51.100.77:9999"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, attack)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("attack status = %d, want 403", rec.Code)
	}

	benign := httptest.NewRequest(http.MethodGet, "/", nil)
	benign.Header.Set("User-Agent", ua)
	benign.RemoteAddr = "198.51.100.77:10000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, benign)
	if rec.Code != http.StatusForbidden {
		t.Errorf("follow-up status = %d, want 403 for blocklisted client", rec.Code)
	}

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.Header.Set("User-Agent", ua)
	other.RemoteAddr = "198.51.100.78:10000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK || called != 1 {
		t.Errorf("other client status = %d called = %d, want 200 and 1", rec.Code, called)
	}
}
