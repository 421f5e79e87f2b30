package dom

import (
	"weak"

	"golang.org/x/net/html"
)

// Handle is an opaque reference to a node tracked by a Document.
// The zero value refers to nothing.
type Handle uint32

// NoHandle is the invalid handle.
const NoHandle Handle = 0

// NodeTable maps handles to nodes without keeping the nodes alive.
// The host page owns the tree; a handle whose node has been collected
// resolves to nil.
type NodeTable struct {
	entries []weak.Pointer[html.Node]
	index   map[weak.Pointer[html.Node]]Handle
}

// NewNodeTable creates an empty node table.
func NewNodeTable() *NodeTable {
	return &NodeTable{
		index: make(map[weak.Pointer[html.Node]]Handle),
	}
}

// Track returns the handle for n, registering it on first sight.
func (t *NodeTable) Track(n *html.Node) Handle {
	if n == nil {
		return NoHandle
	}
	wp := weak.Make(n)
	if h, ok := t.index[wp]; ok {
		return h
	}
	t.entries = append(t.entries, wp)
	h := Handle(len(t.entries))
	t.index[wp] = h
	return h
}

// Lookup returns the handle for n without registering it.
func (t *NodeTable) Lookup(n *html.Node) (Handle, bool) {
	if n == nil {
		return NoHandle, false
	}
	h, ok := t.index[weak.Make(n)]
	return h, ok
}

// Resolve returns the node behind h, or nil if it is unknown or collected.
func (t *NodeTable) Resolve(h Handle) *html.Node {
	if h == NoHandle || int(h) > len(t.entries) {
		return nil
	}
	return t.entries[h-1].Value()
}

// Len returns the number of handles ever issued.
func (t *NodeTable) Len() int {
	return len(t.entries)
}
