package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// HiddenMarker is set by the live browser bridge on controls the real
// cascade hides, including rules that come from stylesheets.
const HiddenMarker = "data-formpilot-hidden"

// Style is the subset of computed style the form engine consults.
type Style struct {
	Display    string
	Visibility string
}

// Hidden reports whether the style removes the element from view.
func (s Style) Hidden() bool {
	return s.Display == "none" || s.Visibility == "hidden" || s.Visibility == "collapse"
}

// ComputedStyle approximates the browser cascade from inline style
// declarations, the hidden attribute and HiddenMarker. display:none on any
// ancestor hides the element; visibility inherits from the nearest
// declaration. Stylesheets are only seen through HiddenMarker.
func (d *Document) ComputedStyle(e *Element) Style {
	style := Style{Display: "inline", Visibility: "visible"}
	own := ParseStyle(e.GetAttr("style"))
	if v, ok := own["display"]; ok {
		style.Display = v
	}
	if e.HasAttr(HiddenMarker) {
		style.Display = "none"
	}

	visibilitySet := false
	for n := e.node; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		decls := ParseStyle(attr(n, "style"))
		if hasAttr(n, "hidden") || decls["display"] == "none" {
			style.Display = "none"
		}
		if v, ok := decls["visibility"]; ok && !visibilitySet {
			style.Visibility = v
			visibilitySet = true
		}
	}
	return style
}

// Style is a shorthand for the owning document's ComputedStyle.
func (e *Element) Style() Style {
	return e.doc.ComputedStyle(e)
}

// ParseStyle splits an inline style attribute into lower-cased property
// names and values. !important markers are dropped.
func ParseStyle(s string) map[string]string {
	decls := make(map[string]string)
	for _, part := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		value = strings.TrimSpace(strings.TrimSuffix(value, "!important"))
		if name == "" {
			continue
		}
		decls[name] = strings.ToLower(value)
	}
	return decls
}
