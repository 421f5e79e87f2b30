package inject

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/entrhq/formpilot/pkg/dom"
	"github.com/entrhq/formpilot/pkg/matcher"
	"github.com/entrhq/formpilot/pkg/scanner"
)

// Value is a coerced answer ready to be written to one control.
type Value interface {
	// String renders the value the way it is stored in the control.
	String() string
	isValue()
}

// TextValue is written verbatim into text inputs and textareas.
type TextValue struct {
	Text      string
	Truncated bool
}

// CheckValue is the target state of a checkbox.
type CheckValue struct {
	Checked bool
}

// SelectValue lists the option indices to select.
type SelectValue struct {
	Indices []int
	Values  []string
}

// RadioValue names the radio button to check.
type RadioValue struct {
	Handle dom.Handle
	Label  string
	Value  string
}

// DateValue is written as YYYY-MM-DD.
type DateValue struct {
	Date time.Time
}

// NumberValue keeps the literal read from the answer.
type NumberValue struct {
	Literal string
	Number  float64
}

func (v TextValue) String() string { return v.Text }

func (v CheckValue) String() string { return strconv.FormatBool(v.Checked) }

func (v SelectValue) String() string { return strings.Join(v.Values, ", ") }

func (v RadioValue) String() string { return v.Value }

func (v DateValue) String() string { return v.Date.Format(time.DateOnly) }

func (v NumberValue) String() string { return v.Literal }

func (TextValue) isValue()   {}
func (CheckValue) isValue()  {}
func (SelectValue) isValue() {}
func (RadioValue) isValue()  {}
func (DateValue) isValue()   {}
func (NumberValue) isValue() {}

// affirmative answers check a checkbox. Anything else unchecks it.
var affirmative = map[string]bool{
	"yes": true, "true": true, "1": true, "checked": true, "on": true, "agree": true,
}

// radioGroup is replaced in tests.
var radioGroup = scanner.RadioGroup

var numberToken = regexp.MustCompile(`-?(?:\d+(?:\.\d+)?|\.\d+)`)

// Coerce converts content to the value a control of record's type accepts.
// el must be the live element behind record.
func Coerce(el *dom.Element, record scanner.FieldRecord, content string) (Value, error) {
	typ := record.Type
	if typ == "" {
		typ = scanner.Classify(el.Type())
	}

	switch typ {
	case scanner.TypeText, scanner.TypeEmail, scanner.TypePassword, scanner.TypePhone,
		scanner.TypeURL, scanner.TypeSearch, scanner.TypeTextarea:
		return coerceText(record, content), nil
	case scanner.TypeCheckbox:
		return CheckValue{Checked: affirmative[matcher.Normalize(content)]}, nil
	case scanner.TypeSelectOne:
		return coerceSelect(el, []string{content})
	case scanner.TypeSelectMultiple:
		return coerceSelect(el, splitList(content))
	case scanner.TypeRadio:
		return coerceRadio(el, content)
	case scanner.TypeDate, scanner.TypeDatetime:
		t, err := ParseDate(content)
		if err != nil {
			return nil, err
		}
		return DateValue{Date: t}, nil
	case scanner.TypeNumber:
		return coerceNumber(el, content)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, typ)
}

func coerceText(record scanner.FieldRecord, content string) TextValue {
	if record.HasMaxLength() {
		runes := []rune(content)
		if len(runes) > record.MaxLength {
			return TextValue{Text: string(runes[:record.MaxLength]), Truncated: true}
		}
	}
	return TextValue{Text: content}
}

func splitList(content string) []string {
	parts := strings.FieldsFunc(content, func(r rune) bool { return r == ',' || r == ';' })
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// optionExact compares content to an option's visible text or value,
// ignoring case.
func optionExact(opt *dom.Element, content string) bool {
	want := strings.TrimSpace(content)
	if want == "" {
		return false
	}
	return strings.EqualFold(opt.OptionText(), want) || strings.EqualFold(opt.OptionValue(), want)
}

// optionMatches compares content to an option's visible text by
// containment in either direction, or to its value exactly.
func optionMatches(opt *dom.Element, content string) bool {
	want := strings.ToLower(strings.TrimSpace(content))
	if want == "" {
		return false
	}
	text := strings.ToLower(opt.OptionText())
	if text != "" && (strings.Contains(text, want) || strings.Contains(want, text)) {
		return true
	}
	return opt.OptionValue() == strings.TrimSpace(content)
}

// findOption returns the index of the option for want: an exact text or
// value match first, then optionMatches. It returns -1 when none fits.
func findOption(opts []*dom.Element, want string) int {
	for i, opt := range opts {
		if optionExact(opt, want) {
			return i
		}
	}
	for i, opt := range opts {
		if optionMatches(opt, want) {
			return i
		}
	}
	return -1
}

func coerceSelect(el *dom.Element, wanted []string) (Value, error) {
	opts := el.Options()
	var v SelectValue
	seen := make(map[int]bool)
	for _, want := range wanted {
		i := findOption(opts, want)
		if i < 0 || seen[i] {
			continue
		}
		seen[i] = true
		v.Indices = append(v.Indices, i)
		v.Values = append(v.Values, opts[i].OptionValue())
	}
	if len(v.Indices) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoOption, strings.Join(wanted, ", "))
	}
	return v, nil
}

// coerceRadio picks a button from el's group: an exact label or value
// match first, then label containment in either direction.
func coerceRadio(el *dom.Element, content string) (Value, error) {
	group, err := radioGroup(el)
	if err != nil {
		return nil, err
	}
	want := strings.ToLower(strings.TrimSpace(content))
	if want == "" {
		return nil, fmt.Errorf("%w: empty answer", ErrNoOption)
	}

	labels := make([]string, len(group))
	for i, r := range group {
		if labels[i], err = scanner.ChoiceLabel(r); err != nil {
			return nil, err
		}
	}

	choose := func(i int) Value {
		r := group[i]
		return RadioValue{Handle: r.Handle(), Label: labels[i], Value: r.GetAttr("value")}
	}
	for i, r := range group {
		if strings.ToLower(labels[i]) == want || strings.EqualFold(r.GetAttr("value"), want) {
			return choose(i), nil
		}
	}
	for i, r := range group {
		label := strings.ToLower(labels[i])
		if label != "" && (strings.Contains(label, want) || strings.Contains(want, label)) {
			return choose(i), nil
		}
		if strings.EqualFold(r.GetAttr("value"), want) {
			return choose(i), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoOption, content)
}

// ExtractNumber returns the first numeric token in s. A minus sign counts
// only at the start of s or after whitespace.
func ExtractNumber(s string) (string, float64, error) {
	loc := numberToken.FindStringIndex(s)
	if loc == nil {
		return "", 0, &ParseError{Kind: "number", Input: s}
	}
	start := loc[0]
	if s[start] == '-' && start > 0 && !unicode.IsSpace(rune(s[start-1])) {
		start++
	}
	literal := s[start:loc[1]]
	n, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return "", 0, &ParseError{Kind: "number", Input: s}
	}
	return literal, n, nil
}

func coerceNumber(el *dom.Element, content string) (Value, error) {
	literal, n, err := ExtractNumber(content)
	if err != nil {
		return nil, err
	}
	if lo, ok := numericAttr(el, "min"); ok && n < lo {
		return nil, fmt.Errorf("%w: %s below min %s", ErrOutOfRange, literal, el.GetAttr("min"))
	}
	if hi, ok := numericAttr(el, "max"); ok && n > hi {
		return nil, fmt.Errorf("%w: %s above max %s", ErrOutOfRange, literal, el.GetAttr("max"))
	}
	return NumberValue{Literal: literal, Number: n}, nil
}

func numericAttr(el *dom.Element, key string) (float64, bool) {
	raw, ok := el.Attr(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
