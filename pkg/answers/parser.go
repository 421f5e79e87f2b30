package answers

import (
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/entrhq/formpilot/pkg/llm/parser"
)

// ErrNoAnswers is returned when no strategy finds any answer in a reply.
var ErrNoAnswers = errors.New("no answers found in response")

// DefaultConfidence is assigned to parsed answers that carry none.
const DefaultConfidence = 0.5

// Strategy extracts answers from one reply format.
type Strategy interface {
	Name() string
	Parse(text string) []Answer
}

// Parser tries each strategy in order. The first one to produce answers
// wins.
type Parser struct {
	strategies []Strategy

	// DefaultConfidence replaces a missing confidence.
	DefaultConfidence float64
}

// NewParser creates a parser. Without strategies it uses JSON, markdown
// table and key-value lines in that order.
func NewParser(strategies ...Strategy) *Parser {
	if len(strategies) == 0 {
		strategies = []Strategy{JSONStrategy{}, TableStrategy{}, KeyValueStrategy{}}
	}
	return &Parser{strategies: strategies, DefaultConfidence: DefaultConfidence}
}

// Parse strips reasoning blocks from text and extracts answers. It also
// returns the name of the strategy that matched.
func (p *Parser) Parse(text string) ([]Answer, string, error) {
	text = parser.StripThinking(text)
	for _, s := range p.strategies {
		found := s.Parse(text)
		for i := range found {
			found[i].FieldLabel = strings.TrimSpace(found[i].FieldLabel)
			found[i].Answer = strings.TrimSpace(found[i].Answer)
			if found[i].Confidence <= 0 {
				found[i].Confidence = p.DefaultConfidence
			}
		}
		if found = clean(found); len(found) > 0 {
			return found, s.Name(), nil
		}
	}
	return nil, "", ErrNoAnswers
}

// JSONStrategy reads a JSON array or object, fenced or bare.
type JSONStrategy struct{}

func (JSONStrategy) Name() string { return "json" }

var fence = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(.*?)```")

func (JSONStrategy) Parse(text string) []Answer {
	var candidates []string
	for _, m := range fence.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	if block := balancedJSON(text); block != "" {
		candidates = append(candidates, block)
	}

	for _, c := range candidates {
		var raw interface{}
		if err := json.Unmarshal([]byte(strings.TrimSpace(c)), &raw); err != nil {
			continue
		}
		if found := answersFromJSON(raw); len(found) > 0 {
			return found
		}
	}
	return nil
}

// balancedJSON returns the first bracketed JSON value in text.
func balancedJSON(text string) string {
	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return ""
	}
	depth, inString, escaped := 0, false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '[' || c == '{':
			depth++
		case c == ']' || c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func answersFromJSON(raw interface{}) []Answer {
	switch v := raw.(type) {
	case []interface{}:
		var out []Answer
		for _, item := range v {
			if obj, ok := item.(map[string]interface{}); ok {
				if a, ok := answerFromObject(obj); ok {
					out = append(out, a)
				}
			}
		}
		return out
	case map[string]interface{}:
		for _, key := range []string{"answers", "fields", "results"} {
			if inner, ok := v[key]; ok {
				return answersFromJSON(inner)
			}
		}
		if a, ok := answerFromObject(v); ok {
			return []Answer{a}
		}
		// A flat {"Label": "value"} object.
		var out []Answer
		for label, val := range v {
			if s, ok := scalar(val); ok {
				out = append(out, Answer{FieldLabel: label, Answer: s})
			}
		}
		sortByLabel(out)
		return out
	}
	return nil
}

func answerFromObject(obj map[string]interface{}) (Answer, bool) {
	label, ok := firstString(obj, "fieldLabel", "field_label", "label", "field", "name")
	if !ok {
		return Answer{}, false
	}
	value, ok := firstString(obj, "answer", "value", "suggestion")
	if !ok {
		return Answer{}, false
	}
	a := Answer{FieldLabel: label, Answer: value}
	a.FieldType, _ = firstString(obj, "fieldType", "field_type", "type")
	if c, ok := obj["confidence"]; ok {
		switch c := c.(type) {
		case float64:
			a.Confidence = c
		case string:
			a.Confidence, _ = strconv.ParseFloat(strings.TrimSpace(c), 64)
		}
	}
	return a, true
}

func firstString(obj map[string]interface{}, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			if s, ok := scalar(v); ok {
				return s, true
			}
		}
	}
	return "", false
}

func scalar(v interface{}) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

func sortByLabel(list []Answer) {
	sort.Slice(list, func(i, j int) bool { return list[i].FieldLabel < list[j].FieldLabel })
}

// TableStrategy reads a markdown table. Columns are chosen from the header
// row; without a recognisable header the first two columns are label and
// answer.
type TableStrategy struct{}

func (TableStrategy) Name() string { return "table" }

var separatorRow = regexp.MustCompile(`^\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)*\|?$`)

func (TableStrategy) Parse(text string) []Answer {
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") {
			continue
		}
		if separatorRow.MatchString(line) {
			continue
		}
		rows = append(rows, splitRow(line))
	}
	if len(rows) == 0 {
		return nil
	}

	cols := tableColumns{label: 0, answer: 1, typ: -1, confidence: -1}
	if header, ok := readHeader(rows[0]); ok {
		cols = header
		rows = rows[1:]
	}

	var out []Answer
	for _, row := range rows {
		if cols.label >= len(row) || cols.answer >= len(row) {
			continue
		}
		a := Answer{FieldLabel: stripMarkdown(row[cols.label]), Answer: stripMarkdown(row[cols.answer])}
		if cols.typ >= 0 && cols.typ < len(row) {
			a.FieldType = row[cols.typ]
		}
		if cols.confidence >= 0 && cols.confidence < len(row) {
			a.Confidence = parseConfidence(row[cols.confidence])
		}
		out = append(out, a)
	}
	return out
}

type tableColumns struct {
	label, answer, typ, confidence int
}

func readHeader(row []string) (tableColumns, bool) {
	cols := tableColumns{label: -1, answer: -1, typ: -1, confidence: -1}
	for i, cell := range row {
		h := strings.ToLower(stripMarkdown(cell))
		switch {
		case strings.Contains(h, "confidence"):
			cols.confidence = i
		case strings.Contains(h, "type"):
			cols.typ = i
		case strings.Contains(h, "answer") || strings.Contains(h, "value") || strings.Contains(h, "suggest"):
			cols.answer = i
		case strings.Contains(h, "field") || strings.Contains(h, "label") || h == "name" || h == "question":
			cols.label = i
		}
	}
	return cols, cols.label >= 0 && cols.answer >= 0
}

func splitRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// KeyValueStrategy reads "Label: value" lines, with optional list
// markers, bold labels and a trailing "(confidence 0.8)".
type KeyValueStrategy struct{}

func (KeyValueStrategy) Name() string { return "key-value" }

var (
	listMarker     = regexp.MustCompile(`^(?:[-*+•]|\d+[.)])\s+`)
	boldLabel      = regexp.MustCompile(`^\*\*(.+?)\*\*\s*[:\-–=]?\s*(.*)$`)
	trailingConf   = regexp.MustCompile(`(?i)\s*\((?:confidence[:=]?\s*(\d*\.?\d+%?)|(0?\.\d+|\d{1,3}%))\)\s*$`)
	keyValueSplits = []string{": ", " - ", " – ", " = ", ":"}
)

func (KeyValueStrategy) Parse(text string) []Answer {
	var out []Answer
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = listMarker.ReplaceAllString(line, "")
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "|") {
			continue
		}

		var label, value string
		if m := boldLabel.FindStringSubmatch(line); m != nil {
			label, value = m[1], m[2]
		} else {
			for _, sep := range keyValueSplits {
				if l, v, ok := strings.Cut(line, sep); ok {
					label, value = l, v
					break
				}
			}
		}
		label = strings.TrimRight(stripMarkdown(label), ":")
		if label == "" || strings.TrimSpace(value) == "" || len(strings.Fields(label)) > 8 {
			continue
		}

		a := Answer{FieldLabel: label}
		if m := trailingConf.FindStringSubmatch(value); m != nil {
			a.Confidence = parseConfidence(m[1] + m[2])
			value = strings.TrimSuffix(value, m[0])
		}
		a.Answer = stripMarkdown(value)
		out = append(out, a)
	}
	return out
}

func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, mark := range []string{"**", "__", "`", "*", "_"} {
		if len(s) >= 2*len(mark) && strings.HasPrefix(s, mark) && strings.HasSuffix(s, mark) {
			s = strings.TrimSpace(s[len(mark) : len(s)-len(mark)])
		}
	}
	return strings.Trim(s, `"`)
}

// parseConfidence reads "0.8", ".8" or "80%".
func parseConfidence(s string) float64 {
	s = strings.TrimSpace(s)
	percent := strings.HasSuffix(s, "%")
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0
	}
	if percent || f > 1 {
		f /= 100
	}
	return min(max(f, 0), 1)
}
