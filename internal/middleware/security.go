// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package middleware

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tripwire/internal/detection"
	"github.com/tomtom215/tripwire/internal/logging"
)

// DefaultMaxBodyBytes is the largest request body parsed for detection.
const DefaultMaxBodyBytes = 1 << 20

// securityHeaders are attached to every response that is not blocked.
var securityHeaders = [...][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"X-XSS-Protection", "1; mode=block"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Permissions-Policy", "geolocation=(), microphone=(), camera=()"},
	{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
}

// Evaluator decides what to do with a request.
type Evaluator interface {
	Evaluate(ctx context.Context, event *detection.RequestEvent) detection.Decision
}

// SecurityOptions configures SecurityAudit.
type SecurityOptions struct {
	// MaxBodyBytes caps how much of the body is read for detection. Larger
	// bodies are passed through unparsed. Default: 1 MiB.
	MaxBodyBytes int64

	// ClientID extracts the client identifier. Default: host part of RemoteAddr.
	ClientID func(r *http.Request) string
}

// BlockedResponse is the JSON body returned with 403 for blocked requests.
type BlockedResponse struct {
	Error     string `json:"error"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

type decisionKey struct{}

// DecisionFromContext returns the decision made for the current request.
func DecisionFromContext(ctx context.Context) (detection.Decision, bool) {
	d, ok := ctx.Value(decisionKey{}).(detection.Decision)
	return d, ok
}

// SecurityAudit evaluates every request with ev. Blocked requests get a 403
// JSON response and never reach next. All other requests get the security
// headers, and the decision and client ID are stored in the request context.
func SecurityAudit(ev Evaluator, opts SecurityOptions) func(http.Handler) http.Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.ClientID == nil {
		opts.ClientID = ClientIP
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			event := BuildRequestEvent(r, opts)
			decision := ev.Evaluate(r.Context(), event)

			if decision.Action == detection.ActionBlock {
				writeBlocked(w, decision)
				return
			}

			h := w.Header()
			for _, kv := range securityHeaders {
				h.Set(kv[0], kv[1])
			}

			ctx := logging.ContextWithClientID(r.Context(), event.ClientID)
			ctx = context.WithValue(ctx, decisionKey{}, decision)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeBlocked(w http.ResponseWriter, d detection.Decision) {
	ts := d.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	body, err := json.Marshal(BlockedResponse{
		Error:     "Request blocked",
		Reason:    d.Reason,
		Timestamp: ts.UTC().Format(time.RFC3339),
	})
	if err != nil {
		http.Error(w, "Request blocked", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	if _, err := w.Write(body); err != nil {
		logging.Debug().Err(err).Msg("failed to write blocked response")
	}
}

// ClientIP returns the host part of r.RemoteAddr, or RemoteAddr itself when
// it has no port. Run chi's RealIP first when behind trusted proxies.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// BuildRequestEvent converts r into the engine's request view. The body is
// read up to opts.MaxBodyBytes and restored so downstream handlers see it
// unchanged. Malformed bodies are ignored. The timestamp is left zero for the
// engine clock to fill.
func BuildRequestEvent(r *http.Request, opts SecurityOptions) *detection.RequestEvent {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.ClientID == nil {
		opts.ClientID = ClientIP
	}

	path := r.RequestURI
	if path == "" {
		path = r.URL.RequestURI()
	}

	return &detection.RequestEvent{
		ClientID:    opts.ClientID(r),
		Method:      r.Method,
		Path:        path,
		QueryParams: firstValues(r.URL.Query()),
		BodyParams:  readBodyParams(r, opts.MaxBodyBytes),
		UserAgent:   r.UserAgent(),
		Headers:     firstValues(url.Values(r.Header)),
	}
}

func firstValues(values url.Values) map[string]string {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// readBodyParams parses a JSON object or urlencoded form body.
func readBodyParams(r *http.Request, limit int64) map[string]any {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil
	}
	isJSON := mediaType == "application/json"
	isForm := mediaType == "application/x-www-form-urlencoded"
	if !isJSON && !isForm {
		return nil
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	// Restore whatever was consumed, followed by the unread remainder.
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(buf), r.Body), r.Body}
	if err != nil || int64(len(buf)) > limit || len(buf) == 0 {
		return nil
	}

	if isJSON {
		var params map[string]any
		if err := json.Unmarshal(buf, &params); err != nil {
			return nil
		}
		return params
	}

	form, err := url.ParseQuery(string(buf))
	if err != nil {
		return nil
	}
	params := make(map[string]any, len(form))
	for k, v := range form {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}
