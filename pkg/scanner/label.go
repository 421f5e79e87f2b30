package scanner

import (
	"strings"
	"unicode"

	"github.com/entrhq/formpilot/pkg/dom"
	"golang.org/x/net/html"
)

// FallbackLabel is used when no strategy yields text.
const FallbackLabel = "Unlabeled field"

// LabelSource names the waterfall step that produced a label.
type LabelSource string

// Label waterfall steps, in evaluation order.
const (
	SourceLabelFor       LabelSource = "label-for"
	SourceWrappingLabel  LabelSource = "wrapping-label"
	SourceAriaLabel      LabelSource = "aria-label"
	SourceAriaLabelledBy LabelSource = "aria-labelledby"
	SourceTitle          LabelSource = "title"
	SourcePlaceholder    LabelSource = "placeholder"
	SourceName           LabelSource = "name"
	SourceNearby         LabelSource = "nearby-text"
	SourceFallback       LabelSource = "fallback"
)

// Label is a resolved label. Raw keeps the text before decoration was
// stripped so required markers can still be seen.
type Label struct {
	Text   string
	Raw    string
	Source LabelSource
}

// LabelResolver runs the label waterfall. The first non-empty result wins.
type LabelResolver struct {
	// SiblingLimit is how many preceding sibling elements are inspected.
	SiblingLimit int
	// NearbyMaxChars bounds the length of sibling text accepted as a label.
	NearbyMaxChars int
	// ParentMaxWords bounds the parent text accepted as a label.
	ParentMaxWords int
}

// NewLabelResolver returns a resolver with the default bounds.
func NewLabelResolver() *LabelResolver {
	return &LabelResolver{
		SiblingLimit:   3,
		NearbyMaxChars: 100,
		ParentMaxWords: 10,
	}
}

// Resolve finds the label for el.
func (r *LabelResolver) Resolve(el *dom.Element) (Label, error) {
	steps := []struct {
		source LabelSource
		fn     func(*dom.Element) (string, error)
	}{
		{SourceLabelFor, labelFor},
		{SourceWrappingLabel, wrappingLabel},
		{SourceAriaLabel, attrText("aria-label")},
		{SourceAriaLabelledBy, labelledBy},
		{SourceTitle, attrText("title")},
		{SourcePlaceholder, attrText("placeholder")},
		{SourceName, func(e *dom.Element) (string, error) { return HumanizeName(e.Name()), nil }},
		{SourceNearby, r.nearbyText},
	}

	for _, step := range steps {
		raw, err := step.fn(el)
		if err != nil {
			return Label{}, err
		}
		if text := CleanLabel(raw); text != "" {
			return Label{Text: text, Raw: dom.CollapseSpace(raw), Source: step.source}, nil
		}
	}
	return Label{Text: FallbackLabel, Raw: FallbackLabel, Source: SourceFallback}, nil
}

func labelFor(el *dom.Element) (string, error) {
	id := el.ID()
	if id == "" {
		return "", nil
	}
	labels, err := el.Document().QueryAll("//label[@for=" + dom.XPathLiteral(id) + "]")
	if err != nil {
		return "", err
	}
	for _, l := range labels {
		if text := labelText(l); text != "" {
			return text, nil
		}
	}
	return "", nil
}

func wrappingLabel(el *dom.Element) (string, error) {
	if l := el.Closest("label"); l != nil {
		return labelText(l), nil
	}
	return "", nil
}

func labelledBy(el *dom.Element) (string, error) {
	var parts []string
	for _, id := range strings.Fields(el.GetAttr("aria-labelledby")) {
		if ref := el.Document().ByID(id); ref != nil {
			if text := ref.Text(); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, " "), nil
}

func attrText(key string) func(*dom.Element) (string, error) {
	return func(el *dom.Element) (string, error) {
		return el.GetAttr(key), nil
	}
}

func (r *LabelResolver) nearbyText(el *dom.Element) (string, error) {
	for _, sib := range el.PreviousElementSiblings(r.SiblingLimit) {
		if isControlNode(sib.Node()) {
			continue
		}
		text := CleanLabel(labelText(sib))
		if text != "" && len([]rune(text)) <= r.NearbyMaxChars {
			return text, nil
		}
	}

	if parent := el.Parent(); parent != nil {
		text := CleanLabel(labelText(parent))
		if text != "" && len(strings.Fields(text)) <= r.ParentMaxWords {
			return text, nil
		}
	}
	return "", nil
}

// labelText is the element's text without the text of nested controls,
// so a wrapping label does not pick up its select's options.
func labelText(el *dom.Element) string {
	return dom.CollapseSpace(dom.TextContent(el.Node(), isControlNode))
}

func isControlNode(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "select", "option", "textarea", "datalist", "input", "button":
		return true
	}
	return false
}

// CleanLabel trims and collapses whitespace and strips trailing "*" and
// ":" decoration.
func CleanLabel(s string) string {
	s = dom.CollapseSpace(s)
	s = strings.TrimRight(s, "*: ")
	return strings.TrimSpace(s)
}

// HumanizeName turns a control name into words: separators become spaces,
// camelCase is split and the first letter is capitalised.
func HumanizeName(name string) string {
	name = strings.NewReplacer("_", " ", "-", " ", "[", " ", "]", " ", ".", " ").Replace(name)

	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}

	words := dom.CollapseSpace(b.String())
	if words == "" {
		return ""
	}
	first := []rune(words)
	first[0] = unicode.ToUpper(first[0])
	return string(first)
}
