// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package cache

import (
	"strings"
)

// KeywordMatcher finds any of a fixed set of keywords in a text using the
// Aho-Corasick automaton, in O(n + m + z) time where:
//   - n = length of text
//   - m = total length of all keywords
//   - z = number of matches
//
// The automaton is built once in NewKeywordMatcher and is read-only
// afterwards, so a single matcher is safe for concurrent use without locks.
// Matching is case-insensitive.
//
// Example:
//
//	m := NewKeywordMatcher([]string{"bot", "crawler", "curl"})
//	kw, ok := m.First("Googlebot/2.1")
//	// kw == "bot", ok == true
type KeywordMatcher struct {
	root     *acNode
	keywords []string
}

type acNode struct {
	children map[rune]*acNode
	failure  *acNode
	output   []int // indices into keywords ending at this node
}

// KeywordMatch is one occurrence of a keyword in the searched text.
type KeywordMatch struct {
	Keyword  string
	Position int // byte offset of the match start
}

func newACNode() *acNode {
	return &acNode{children: make(map[rune]*acNode)}
}

// NewKeywordMatcher builds a matcher over keywords. Empty keywords are ignored.
func NewKeywordMatcher(keywords []string) *KeywordMatcher {
	m := &KeywordMatcher{root: newACNode()}
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		m.insert(len(m.keywords), kw)
		m.keywords = append(m.keywords, kw)
	}
	m.linkFailures()
	return m
}

func (m *KeywordMatcher) insert(index int, kw string) {
	node := m.root
	for _, ch := range kw {
		next, ok := node.children[ch]
		if !ok {
			next = newACNode()
			node.children[ch] = next
		}
		node = next
	}
	node.output = append(node.output, index)
}

// linkFailures computes failure links breadth first.
func (m *KeywordMatcher) linkFailures() {
	queue := make([]*acNode, 0, len(m.root.children))
	for _, child := range m.root.children {
		child.failure = m.root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for ch, child := range current.children {
			queue = append(queue, child)

			fail := current.failure
			for fail != nil && fail.children[ch] == nil {
				fail = fail.failure
			}
			if fail == nil {
				child.failure = m.root
			} else {
				child.failure = fail.children[ch]
				child.output = append(child.output, child.failure.output...)
			}
		}
	}
}

func (m *KeywordMatcher) step(node *acNode, ch rune) *acNode {
	for node != m.root && node.children[ch] == nil {
		node = node.failure
	}
	if next, ok := node.children[ch]; ok {
		return next
	}
	return m.root
}

// Search returns every keyword occurrence in text.
func (m *KeywordMatcher) Search(text string) []KeywordMatch {
	if len(m.keywords) == 0 || text == "" {
		return nil
	}

	var matches []KeywordMatch
	node := m.root
	lower := strings.ToLower(text)
	for i, ch := range lower {
		node = m.step(node, ch)
		for _, idx := range node.output {
			kw := m.keywords[idx]
			matches = append(matches, KeywordMatch{
				Keyword:  kw,
				Position: i + len(string(ch)) - len(kw),
			})
		}
	}
	return matches
}

// First returns the first keyword found while scanning text left to right.
func (m *KeywordMatcher) First(text string) (string, bool) {
	if len(m.keywords) == 0 || text == "" {
		return "", false
	}

	node := m.root
	for _, ch := range strings.ToLower(text) {
		node = m.step(node, ch)
		if len(node.output) > 0 {
			return m.keywords[node.output[0]], true
		}
	}
	return "", false
}

// Contains reports whether any keyword occurs in text.
func (m *KeywordMatcher) Contains(text string) bool {
	_, ok := m.First(text)
	return ok
}

// Len returns the number of keywords in the automaton.
func (m *KeywordMatcher) Len() int {
	return len(m.keywords)
}
