// Package matcher binds free-text answer labels to catalog fields.
package matcher

import (
	"strings"

	"github.com/entrhq/formpilot/pkg/scanner"
)

// Strategy names the rule that produced a match.
type Strategy string

// Matching strategies, tried in this order.
const (
	StrategyExact    Strategy = "exact"
	StrategyContains Strategy = "contains"
	StrategyOverlap  Strategy = "token-overlap"
)

// DefaultThreshold is the token overlap score a candidate must exceed.
const DefaultThreshold = 0.5

// Result describes a successful match.
type Result struct {
	Index    int
	Strategy Strategy
	Score    float64
	// Group is set when the match was made against the fieldset legend
	// rather than the field label.
	Group bool
}

// Matcher finds the catalog entry an answer label refers to.
type Matcher struct {
	Threshold float64
}

// New returns a Matcher with the default threshold.
func New() *Matcher {
	return &Matcher{Threshold: DefaultThreshold}
}

// Match returns the field that label refers to. Labels are compared
// first, then fieldset legends, each with exact, containment and token
// overlap rules in that order.
func (m *Matcher) Match(label string, fields []scanner.FieldRecord) (Result, bool) {
	want := Normalize(label)
	if want == "" || len(fields) == 0 {
		return Result{}, false
	}

	labels := make([]string, len(fields))
	groups := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = Normalize(f.Label)
		groups[i] = Normalize(f.Group)
	}

	if res, ok := m.matchAgainst(want, labels); ok {
		return res, true
	}
	if res, ok := m.matchAgainst(want, groups); ok {
		res.Group = true
		return res, true
	}
	return Result{}, false
}

func (m *Matcher) matchAgainst(want string, candidates []string) (Result, bool) {
	for i, c := range candidates {
		if c != "" && c == want {
			return Result{Index: i, Strategy: StrategyExact, Score: 1}, true
		}
	}

	for i, c := range candidates {
		if c != "" && (strings.Contains(want, c) || strings.Contains(c, want)) {
			return Result{Index: i, Strategy: StrategyContains, Score: 1}, true
		}
	}

	wantTokens := Tokens(want)
	best, bestScore := -1, 0.0
	for i, c := range candidates {
		if c == "" {
			continue
		}
		if score := Overlap(wantTokens, Tokens(c)); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 && bestScore > m.Threshold {
		return Result{Index: best, Strategy: StrategyOverlap, Score: bestScore}, true
	}
	return Result{}, false
}

// Match uses a default Matcher.
func Match(label string, fields []scanner.FieldRecord) (Result, bool) {
	return New().Match(label, fields)
}
