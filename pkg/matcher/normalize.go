package matcher

import (
	"strings"
	"unicode"
)

// stopWords are dropped before token overlap scoring. Tokens of two
// characters or fewer are dropped regardless.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"into": true, "onto": true, "your": true, "you": true, "our": true,
	"their": true, "this": true, "that": true, "these": true, "those": true,
	"please": true, "enter": true, "provide": true, "here": true, "what": true,
	"which": true, "are": true, "was": true, "were": true, "will": true,
	"would": true, "should": true, "about": true, "any": true, "all": true,
	"select": true, "choose": true,
}

// Normalize lowercases s, removes everything that is not a letter, digit
// or space, and collapses whitespace.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens splits a normalized string into scoring tokens.
func Tokens(normalized string) []string {
	var tokens []string
	for _, tok := range strings.Fields(normalized) {
		if len([]rune(tok)) <= 2 || stopWords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Overlap scores two token lists: tokens of a that equal or contain,
// or are contained by, some token of b, divided by the longer list.
func Overlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	matched := 0
	for _, ta := range a {
		for _, tb := range b {
			if ta == tb || strings.Contains(ta, tb) || strings.Contains(tb, ta) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(max(len(a), len(b)))
}
