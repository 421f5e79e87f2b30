package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Element is a tracked element node. Elements are cheap views; two Elements
// for the same node share a Handle.
type Element struct {
	doc    *Document
	node   *html.Node
	handle Handle
}

// Handle returns the element's identity in its document.
func (e *Element) Handle() Handle { return e.handle }

// Node returns the underlying html node.
func (e *Element) Node() *html.Node { return e.node }

// Document returns the owning document.
func (e *Element) Document() *Document { return e.doc }

// Tag returns the lower-case tag name.
func (e *Element) Tag() string { return strings.ToLower(e.node.Data) }

// Attr returns the attribute value and whether it is present.
func (e *Element) Attr(key string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// GetAttr returns the attribute value, or "" when absent.
func (e *Element) GetAttr(key string) string {
	v, _ := e.Attr(key)
	return v
}

// HasAttr reports whether the attribute is present.
func (e *Element) HasAttr(key string) bool {
	_, ok := e.Attr(key)
	return ok
}

// SetAttr sets or replaces an attribute.
func (e *Element) SetAttr(key, val string) {
	for i, a := range e.node.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			e.node.Attr[i].Val = val
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(key string) {
	attrs := e.node.Attr[:0]
	for _, a := range e.node.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			continue
		}
		attrs = append(attrs, a)
	}
	e.node.Attr = attrs
}

// ID returns the id attribute.
func (e *Element) ID() string { return e.GetAttr("id") }

// Name returns the name attribute.
func (e *Element) Name() string { return e.GetAttr("name") }

// Type mirrors the DOM type property of form controls: the lower-cased
// input type (default "text"), "textarea", "select-one" or
// "select-multiple". Other elements report their tag name.
func (e *Element) Type() string {
	switch e.Tag() {
	case "input":
		t := strings.ToLower(strings.TrimSpace(e.GetAttr("type")))
		if t == "" {
			return "text"
		}
		return t
	case "textarea":
		return "textarea"
	case "select":
		if e.HasAttr("multiple") {
			return "select-multiple"
		}
		return "select-one"
	}
	return e.Tag()
}

// Value returns the control's current value.
func (e *Element) Value() string {
	switch e.Tag() {
	case "textarea":
		return rawText(e.node)
	case "select":
		opts := e.Options()
		for _, o := range opts {
			if o.HasAttr("selected") {
				return o.OptionValue()
			}
		}
		if len(opts) > 0 && !e.HasAttr("multiple") {
			return opts[0].OptionValue()
		}
		return ""
	}
	return e.GetAttr("value")
}

// SetValue replaces the control's value. For a select, the option whose
// value equals v becomes the only selected option.
func (e *Element) SetValue(v string) {
	switch e.Tag() {
	case "textarea":
		for c := e.node.FirstChild; c != nil; {
			next := c.NextSibling
			e.node.RemoveChild(c)
			c = next
		}
		if v != "" {
			e.node.AppendChild(&html.Node{Type: html.TextNode, Data: v})
		}
	case "select":
		for _, o := range e.Options() {
			if o.OptionValue() == v {
				o.SetAttr("selected", "")
			} else {
				o.RemoveAttr("selected")
			}
		}
	default:
		e.SetAttr("value", v)
	}
}

// Checked reports the checked state of a checkbox or radio button.
func (e *Element) Checked() bool { return e.HasAttr("checked") }

// SetChecked sets the checked state.
func (e *Element) SetChecked(checked bool) {
	if checked {
		e.SetAttr("checked", "")
		return
	}
	e.RemoveAttr("checked")
}

// Disabled reports whether the control is disabled directly or through a
// disabled ancestor fieldset.
func (e *Element) Disabled() bool {
	if e.HasAttr("disabled") {
		return true
	}
	for p := e.node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "fieldset" && hasAttr(p, "disabled") {
			return true
		}
	}
	return false
}

// ReadOnly reports whether the readonly attribute is set.
func (e *Element) ReadOnly() bool { return e.HasAttr("readonly") }

// Form returns the control's form owner: the form named by the form
// attribute, otherwise the nearest ancestor form.
func (e *Element) Form() *Element {
	if id, ok := e.Attr("form"); ok && id != "" {
		if f := e.doc.ByID(id); f != nil && f.Tag() == "form" {
			return f
		}
		return nil
	}
	return e.Closest("form")
}

// Closest returns the nearest ancestor with the given tag.
func (e *Element) Closest(tag string) *Element {
	for p := e.node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return e.doc.Wrap(p)
		}
	}
	return nil
}

// Parent returns the parent element, or nil at the top of the tree.
func (e *Element) Parent() *Element {
	if e.node.Parent == nil || e.node.Parent.Type != html.ElementNode {
		return nil
	}
	return e.doc.Wrap(e.node.Parent)
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	if other == nil {
		return false
	}
	for n := other.node; n != nil; n = n.Parent {
		if n == e.node {
			return true
		}
	}
	return false
}

// QueryAll evaluates an XPath expression relative to e.
func (e *Element) QueryAll(expr string) ([]*Element, error) {
	return e.doc.queryFrom(e.node, expr)
}

// Options returns the option elements of a select, including those inside
// optgroups, in document order.
func (e *Element) Options() []*Element {
	var opts []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "option":
			opts = append(opts, e.doc.Wrap(c))
		case "optgroup":
			for g := c.FirstChild; g != nil; g = g.NextSibling {
				if g.Type == html.ElementNode && g.Data == "option" {
					opts = append(opts, e.doc.Wrap(g))
				}
			}
		}
	}
	return opts
}

// OptionText returns an option's visible text.
func (e *Element) OptionText() string {
	if label, ok := e.Attr("label"); ok && strings.TrimSpace(label) != "" {
		return CollapseSpace(label)
	}
	return e.Text()
}

// OptionValue returns an option's value, falling back to its text.
func (e *Element) OptionValue() string {
	if v, ok := e.Attr("value"); ok {
		return v
	}
	return e.Text()
}

// Text returns the element's text content with whitespace collapsed.
func (e *Element) Text() string {
	return CollapseSpace(TextContent(e.node, nil))
}

// PreviousElementSiblings returns up to limit preceding sibling elements,
// nearest first.
func (e *Element) PreviousElementSiblings(limit int) []*Element {
	var sibs []*Element
	for s := e.node.PrevSibling; s != nil && len(sibs) < limit; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			sibs = append(sibs, e.doc.Wrap(s))
		}
	}
	return sibs
}

// NextTextSibling returns the trimmed text of the node directly following e
// when that node is a text node.
func (e *Element) NextTextSibling() string {
	if s := e.node.NextSibling; s != nil && s.Type == html.TextNode {
		return CollapseSpace(s.Data)
	}
	return ""
}

// AddEventListener registers fn for events of type typ targeted at or
// bubbling through e.
func (e *Element) AddEventListener(typ string, fn Listener) ListenerID {
	return e.doc.AddEventListener(e.handle, typ, fn)
}

// TextContent concatenates the text beneath n, skipping script and style
// content and any subtree for which skip returns true.
func TextContent(n *html.Node, skip func(*html.Node) bool) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
			return
		case html.ElementNode:
			if c.Data == "script" || c.Data == "style" || c.Data == "template" {
				return
			}
			if skip != nil && skip(c) {
				return
			}
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			visit(k)
		}
	}
	visit(n)
	return b.String()
}

// CollapseSpace trims s and folds internal whitespace runs into one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func rawText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
