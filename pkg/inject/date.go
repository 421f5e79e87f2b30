package inject

import (
	"regexp"
	"strings"
	"time"
)

// connectives are dropped from date answers before parsing.
var connectives = map[string]bool{
	"on": true, "at": true, "in": true, "the": true, "of": true, "by": true,
}

var ordinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)

// dateLayouts are tried in order. Day-first numeric forms come before
// month-first ones.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"2 January 2006 15:04",
	"2 January 2006",
	"2 Jan 2006",
	"January 2 2006 15:04",
	"January 2 2006",
	"Jan 2 2006",
	"Monday 2 January 2006",
	"Monday January 2 2006",
	"Mon 2 Jan 2006",
	"Mon Jan 2 2006",
	"02.01.2006",
	"02/01/2006",
	"01/02/2006",
	"2-Jan-2006",
	"20060102",
}

// cleanDate strips connective words, ordinal suffixes and commas.
func cleanDate(s string) string {
	s = strings.ReplaceAll(s, ",", " ")
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if !connectives[strings.ToLower(w)] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// ParseDate reads a calendar date from free text such as
// "on 5 March 2024" or "March 5th, 2024".
func ParseDate(s string) (time.Time, error) {
	cleaned := cleanDate(s)
	if cleaned != "" {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, cleaned); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, &ParseError{Kind: "date", Input: s}
}
