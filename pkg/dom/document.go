// Package dom models the page document the form engine reads and mutates.
//
// A Document wraps a golang.org/x/net/html tree and adds what a content
// script gets from the browser: stable element handles, an approximated
// computed style, focus, event listeners with bubbling dispatch and a
// cooperative timer queue. A Document is not safe for concurrent use; like
// the page it stands in for, it is driven from a single goroutine.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Document is a parsed HTML document.
type Document struct {
	root      *html.Node
	nodes     *NodeTable
	listeners map[Handle][]listener
	nextID    ListenerID
	active    Handle
	sched     *Scheduler
}

// Option configures a Document.
type Option func(*Document)

// WithClock drives the document's scheduler from c.
func WithClock(c Clock) Option {
	return func(d *Document) {
		d.sched = NewScheduler(c)
	}
}

// Parse reads an HTML document from r.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return FromNode(root, opts...), nil
}

// ParseString parses an HTML document held in s.
func ParseString(s string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

// FromNode wraps an already parsed tree.
func FromNode(root *html.Node, opts ...Option) *Document {
	d := &Document{
		root:      root,
		nodes:     NewNodeTable(),
		listeners: make(map[Handle][]listener),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.sched == nil {
		d.sched = NewScheduler(SystemClock())
	}
	d.nodes.Track(root)
	return d
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Handle returns the handle of the document node itself, used to listen at
// the top of the bubbling path.
func (d *Document) Handle() Handle {
	return d.nodes.Track(d.root)
}

// Scheduler returns the document's timer queue.
func (d *Document) Scheduler() *Scheduler {
	return d.sched
}

// Render writes the document back out as HTML.
func (d *Document) Render(w io.Writer) error {
	if err := html.Render(w, d.root); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	return nil
}

// String renders the document, returning an empty string on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Wrap returns the element for n, tracking it. Non-element nodes yield nil.
func (d *Document) Wrap(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	return &Element{doc: d, node: n, handle: d.nodes.Track(n)}
}

// Element resolves h. It returns nil when the node was collected or is no
// longer attached to this document.
func (d *Document) Element(h Handle) *Element {
	n := d.nodes.Resolve(h)
	if n == nil || n.Type != html.ElementNode || !d.attached(n) {
		return nil
	}
	return &Element{doc: d, node: n, handle: h}
}

func (d *Document) attached(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

// QueryAll evaluates an XPath expression against the whole document and
// returns the matching elements in document order.
func (d *Document) QueryAll(expr string) ([]*Element, error) {
	return d.queryFrom(d.root, expr)
}

func (d *Document) queryFrom(top *html.Node, expr string) ([]*Element, error) {
	nodes, err := htmlquery.QueryAll(top, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", expr, err)
	}
	sortDocumentOrder(top, nodes)
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		if el := d.Wrap(n); el != nil {
			out = append(out, el)
		}
	}
	return out, nil
}

// sortDocumentOrder orders nodes by position in the tree containing top.
// XPath unions and predicates do not preserve that order.
func sortDocumentOrder(top *html.Node, nodes []*html.Node) {
	if len(nodes) < 2 {
		return
	}
	root := top
	for root.Parent != nil {
		root = root.Parent
	}
	pos := make(map[*html.Node]int)
	walk(root, func(n *html.Node) bool {
		pos[n] = len(pos)
		return true
	})
	sort.SliceStable(nodes, func(i, j int) bool { return pos[nodes[i]] < pos[nodes[j]] })
}

// ByID returns the first element whose id attribute equals id.
func (d *Document) ByID(id string) *Element {
	if id == "" {
		return nil
	}
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	return d.Wrap(found)
}

// ActiveElement returns the focused element, if any.
func (d *Document) ActiveElement() *Element {
	if d.active == NoHandle {
		return nil
	}
	return d.Element(d.active)
}

// Focus moves focus to el and fires focus and focusin.
func (d *Document) Focus(el *Element) {
	if el == nil || d.active == el.handle {
		return
	}
	d.active = el.handle
	d.Dispatch(el, NewEvent("focus", false, false))
	d.Dispatch(el, NewEvent("focusin", true, false))
}

// XPathLiteral quotes s for use inside an XPath expression.
func XPathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// walk visits n and its descendants depth-first in document order until fn
// returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}
