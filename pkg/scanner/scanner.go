// Package scanner walks a document and builds the catalog of fillable form
// fields: eligibility filtering, semantic typing, label resolution, required
// and length detection.
package scanner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/entrhq/formpilot/pkg/dom"
	"github.com/entrhq/formpilot/pkg/logging"
)

const controlQuery = "//*[self::input or self::textarea or self::select]"

// patternLength finds a {n,m} quantifier in a pattern attribute.
var patternLength = regexp.MustCompile(`\{\d*,(\d+)\}`)

// Labeler resolves the human-readable label of a control.
type Labeler interface {
	Resolve(el *dom.Element) (Label, error)
}

// Scanner produces field catalogs. A Scanner holds no per-document state;
// every Scan reads the DOM afresh.
type Scanner struct {
	labels   Labeler
	denylist *Denylist
	logger   *logging.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the scanner's logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// WithDenylist replaces the default denylist.
func WithDenylist(d *Denylist) Option {
	return func(s *Scanner) { s.denylist = d }
}

// WithLabelResolver replaces the default label resolver.
func WithLabelResolver(r Labeler) Option {
	return func(s *Scanner) { s.labels = r }
}

// New creates a Scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		labels:   NewLabelResolver(),
		denylist: &Denylist{},
		logger:   logging.Discard("scanner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan returns the catalog for doc: controls of each form in document
// order, then controls without a form owner. Controls whose metadata
// cannot be read are logged and skipped; Scan itself never fails.
func (s *Scanner) Scan(doc *dom.Document) []FieldRecord {
	candidates, err := s.candidates(doc)
	if err != nil {
		s.logger.Errorf("failed to enumerate controls: %v", err)
		return nil
	}

	seen := make(map[dom.Handle]bool, len(candidates))
	records := make([]FieldRecord, 0, len(candidates))
	for i, el := range candidates {
		if seen[el.Handle()] {
			continue
		}
		seen[el.Handle()] = true

		rec, ok, err := s.extract(el)
		if err != nil {
			extractErr := &ExtractionError{Index: i, Tag: el.Tag(), Err: err}
			s.logger.Warnf("skipping field: %v", extractErr)
			continue
		}
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	catalog := records[:0]
	for _, rec := range records {
		if rec.Type.IsControl() {
			continue
		}
		catalog = append(catalog, rec)
	}

	s.logger.Infof("scan found %d fields (%d candidates)", len(catalog), len(candidates))
	return catalog
}

// candidates orders controls form by form, then the unowned ones.
func (s *Scanner) candidates(doc *dom.Document) ([]*dom.Element, error) {
	forms, err := doc.QueryAll("//form")
	if err != nil {
		return nil, err
	}
	controls, err := doc.QueryAll(controlQuery)
	if err != nil {
		return nil, err
	}

	byForm := make(map[dom.Handle][]*dom.Element, len(forms))
	var standalone []*dom.Element
	for _, el := range controls {
		if owner := el.Form(); owner != nil {
			byForm[owner.Handle()] = append(byForm[owner.Handle()], el)
			continue
		}
		standalone = append(standalone, el)
	}

	ordered := make([]*dom.Element, 0, len(controls))
	for _, f := range forms {
		ordered = append(ordered, byForm[f.Handle()]...)
	}
	return append(ordered, standalone...), nil
}

// extract reads one control. ok is false when the control is ineligible.
func (s *Scanner) extract(el *dom.Element) (rec FieldRecord, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while reading metadata: %v", r)
		}
	}()

	if reason := s.rejection(el); reason != "" {
		s.logger.Debugf("rejected <%s name=%q id=%q>: %s", el.Tag(), el.Name(), el.ID(), reason)
		return FieldRecord{}, false, nil
	}

	label, err := s.labels.Resolve(el)
	if err != nil {
		return FieldRecord{}, false, fmt.Errorf("resolve label: %w", err)
	}

	rec = FieldRecord{
		Handle:      el.Handle(),
		Label:       label.Text,
		Type:        Classify(el.Type()),
		Required:    isRequired(el, label),
		Placeholder: strings.TrimSpace(el.GetAttr("placeholder")),
		MaxLength:   maxLength(el),
		Name:        el.Name(),
		ID:          el.ID(),
		Group:       groupLabel(el),
	}

	switch rec.Type {
	case TypeSelectOne, TypeSelectMultiple:
		for _, opt := range el.Options() {
			if text := opt.OptionText(); text != "" {
				rec.Options = append(rec.Options, text)
			}
		}
	case TypeRadio:
		group, err := RadioGroup(el)
		if err != nil {
			return FieldRecord{}, false, fmt.Errorf("resolve radio group: %w", err)
		}
		for _, radio := range group {
			choice, err := ChoiceLabel(radio)
			if err != nil {
				return FieldRecord{}, false, fmt.Errorf("resolve radio choice: %w", err)
			}
			rec.Options = append(rec.Options, choice)
		}
	}

	s.logger.Debugf("field %q type=%s required=%t source=%s", rec.Label, rec.Type, rec.Required, label.Source)
	return rec, true, nil
}

// rejection returns why el is not a user-fillable field, or "".
func (s *Scanner) rejection(el *dom.Element) string {
	raw := el.Type()
	switch {
	case raw == "hidden":
		return "hidden input"
	case el.Disabled():
		return "disabled"
	case el.ReadOnly() && raw != "text":
		return "read-only"
	case el.Style().Hidden():
		return "not displayed"
	case s.denylist.Blocks(el.Name(), el.ID()):
		return "system field"
	}
	return ""
}

func isRequired(el *dom.Element, label Label) bool {
	if el.HasAttr("required") {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(el.GetAttr("aria-required")), "true") {
		return true
	}
	raw := strings.ToLower(label.Raw)
	return strings.Contains(raw, "*") || strings.Contains(raw, "required")
}

func maxLength(el *dom.Element) int {
	if v, ok := el.Attr("maxlength"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	if m := patternLength.FindStringSubmatch(el.GetAttr("pattern")); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

// groupLabel returns the legend of the enclosing fieldset. Radio buttons
// outside a labelled fieldset fall back to their humanized group name.
func groupLabel(el *dom.Element) string {
	if legend := legendText(el); legend != "" {
		return legend
	}
	if el.Type() == "radio" && el.Name() != "" {
		return HumanizeName(el.Name())
	}
	return ""
}

func legendText(el *dom.Element) string {
	fs := el.Closest("fieldset")
	if fs == nil {
		return ""
	}
	legends, err := fs.QueryAll("./legend")
	if err != nil || len(legends) == 0 {
		return ""
	}
	return CleanLabel(legends[0].Text())
}

// RadioGroup returns the radio buttons sharing el's name and form owner,
// in document order. Radios without a form owner group with the other
// unowned radios of the same name.
func RadioGroup(el *dom.Element) ([]*dom.Element, error) {
	name := el.Name()
	if name == "" {
		return []*dom.Element{el}, nil
	}
	inputs, err := el.Document().QueryAll("//input[@name=" + dom.XPathLiteral(name) + "]")
	if err != nil {
		return nil, err
	}

	owner := el.Form()
	var group []*dom.Element
	for _, in := range inputs {
		if in.Type() != "radio" {
			continue
		}
		if sameOwner(in.Form(), owner) {
			group = append(group, in)
		}
	}
	return group, nil
}

func sameOwner(a, b *dom.Element) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Handle() == b.Handle()
}

// ChoiceLabel resolves the text shown next to a radio button: its
// explicit label, a wrapping label, the text node after it, or its value.
func ChoiceLabel(radio *dom.Element) (string, error) {
	text, err := labelFor(radio)
	if err != nil {
		return "", err
	}
	if text = CleanLabel(text); text != "" {
		return text, nil
	}
	if text, _ = wrappingLabel(radio); CleanLabel(text) != "" {
		return CleanLabel(text), nil
	}
	if text = CleanLabel(radio.NextTextSibling()); text != "" {
		return text, nil
	}
	return radio.GetAttr("value"), nil
}
