// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package detection

import (
	"regexp"
)

// signature is one named pattern of a SignatureDetector.
type signature struct {
	label   string
	pattern *regexp.Regexp
}

// textSelector picks which composed text a signature detector scans.
type textSelector func(RequestTexts) string

func fullText(t RequestTexts) string         { return t.Full }
func pathAndQueryText(t RequestTexts) string { return t.PathAndQuery }

// SignatureDetector matches a request against an ordered list of regular
// expressions. The first matching pattern's label becomes the reason.
type SignatureDetector struct {
	name       DetectorName
	weight     int
	maxInput   int
	signatures []signature
	selectText textSelector
}

// Name returns the detector name.
func (d *SignatureDetector) Name() DetectorName { return d.name }

// Weight returns the score contribution of a match.
func (d *SignatureDetector) Weight() int { return d.weight }

// Detect scans the selected request text.
func (d *SignatureDetector) Detect(event *RequestEvent, _ WindowReader) DetectorResult {
	if event == nil {
		return DetectorResult{}
	}
	text := d.selectText(event.Texts(d.maxInput))
	if text == "" {
		return DetectorResult{}
	}
	for _, sig := range d.signatures {
		if sig.pattern.MatchString(text) {
			return DetectorResult{Matched: true, Reason: sig.label}
		}
	}
	return DetectorResult{}
}

// sqlInjectionSignatures cover statement keywords, boolean tautologies
// (numeric and quoted) and the common two-word statement openers.
var sqlInjectionSignatures = []signature{
	{"sql keyword", regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|DROP|UNION|ALTER|CREATE|EXEC|EXECUTE)\b`)},
	{"numeric tautology", regexp.MustCompile(`(?i)\b(OR|AND)\s+\d+\s*=\s*\d+`)},
	{"empty string tautology", regexp.MustCompile(`(?i)\b(OR|AND)\s+['"]\s*=\s*['"]`)},
	{"quoted tautology", regexp.MustCompile(`(?i)\b(OR|AND)\s+['"][^'"]*['"]\s*=\s*['"]`)},
	{"union select", regexp.MustCompile(`(?i)UNION\s+SELECT`)},
	{"drop table", regexp.MustCompile(`(?i)DROP\s+TABLE`)},
	{"insert into", regexp.MustCompile(`(?i)INSERT\s+INTO`)},
	{"delete from", regexp.MustCompile(`(?i)DELETE\s+FROM`)},
}

var xssSignatures = []signature{
	{"script tag", regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)},
	{"javascript url", regexp.MustCompile(`(?i)javascript:`)},
	{"inline event handler", regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)},
	{"iframe tag", regexp.MustCompile(`(?i)<iframe\b`)},
	{"object tag", regexp.MustCompile(`(?i)<object\b`)},
	{"embed tag", regexp.MustCompile(`(?i)<embed\b`)},
	{"link tag", regexp.MustCompile(`(?i)<link\b`)},
	{"meta tag", regexp.MustCompile(`(?i)<meta\b`)},
}

var pathTraversalSignatures = []signature{
	{"dot-dot-slash", regexp.MustCompile(`\.\./`)},
	{"dot-dot-backslash", regexp.MustCompile(`\.\.\\`)},
	{"encoded slash", regexp.MustCompile(`(?i)\.\.%2f`)},
	{"encoded backslash", regexp.MustCompile(`(?i)\.\.%5c`)},
	{"double encoded slash", regexp.MustCompile(`(?i)\.\.%252f`)},
	{"double encoded backslash", regexp.MustCompile(`(?i)\.\.%255c`)},
}

// NewSQLInjectionDetector creates the sql_injection detector.
func NewSQLInjectionDetector(weight, maxInput int) *SignatureDetector {
	return &SignatureDetector{
		name:       DetectorSQLInjection,
		weight:     weight,
		maxInput:   maxInput,
		signatures: sqlInjectionSignatures,
		selectText: fullText,
	}
}

// NewXSSDetector creates the xss detector.
func NewXSSDetector(weight, maxInput int) *SignatureDetector {
	return &SignatureDetector{
		name:       DetectorXSS,
		weight:     weight,
		maxInput:   maxInput,
		signatures: xssSignatures,
		selectText: fullText,
	}
}

// NewPathTraversalDetector creates the path_traversal detector. It scans the
// path and query only.
func NewPathTraversalDetector(weight, maxInput int) *SignatureDetector {
	return &SignatureDetector{
		name:       DetectorPathTraversal,
		weight:     weight,
		maxInput:   maxInput,
		signatures: pathTraversalSignatures,
		selectText: pathAndQueryText,
	}
}
