package dom

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var cssIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Selector returns a CSS selector that addresses e in a rendering of the
// same document: "#id" when the id is unique, otherwise a chain of
// nth-of-type steps anchored at the nearest uniquely identified ancestor.
func Selector(e *Element) string {
	var steps []string
	for n := e.node; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if id := attr(n, "id"); id != "" && cssIdent.MatchString(id) && e.doc.idCount(id) == 1 {
			steps = append(steps, "#"+id)
			break
		}
		steps = append(steps, fmt.Sprintf("%s:nth-of-type(%d)", n.Data, nthOfType(n)))
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return strings.Join(steps, " > ")
}

func nthOfType(n *html.Node) int {
	idx := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode && s.Data == n.Data {
			idx++
		}
	}
	return idx
}

func (d *Document) idCount(id string) int {
	count := 0
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			count++
		}
		return true
	})
	return count
}
