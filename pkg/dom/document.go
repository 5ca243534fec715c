// Package dom provides the small document model spa binds to.
//
// Nodes are golang.org/x/net/html nodes. A Document adds what the html
// package does not have: event listeners, stable node ids and the handful of
// text/value accessors directives need. Documents are not safe for
// concurrent use; like stores they belong to the run loop goroutine.
package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/oklog/ulid/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IDAttr holds the stable id assigned by Document.ID.
const IDAttr = "data-sp-id"

// registry holds the listener and id tables. Documents that adopt each
// other share one registry.
type registry struct {
	listeners map[*html.Node][]listener
	ids       map[string]*html.Node
	seq       ListenerID
}

// Document owns listeners and ids for a set of node trees.
type Document struct {
	reg  *registry
	root *html.Node
}

// New creates an empty document.
func New() *Document {
	return &Document{
		reg: &registry{
			listeners: make(map[*html.Node][]listener),
			ids:       make(map[string]*html.Node),
		},
	}
}

// ParseFragment parses src into a new document and returns its root.
func ParseFragment(src string) (*Document, *html.Node, error) {
	d := New()
	root, err := d.Parse(src)
	if err != nil {
		return nil, nil, err
	}
	return d, root, nil
}

// Parse parses an HTML fragment. When the trimmed fragment is a single
// element that element is returned, otherwise the top-level nodes are
// wrapped in a div. The first tree parsed becomes the document root.
func (d *Document) Parse(src string) (*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(strings.TrimSpace(src)), context)
	if err != nil {
		return nil, fmt.Errorf("dom.Parse: %w", err)
	}

	var root *html.Node
	if len(nodes) == 1 && nodes[0].Type == html.ElementNode {
		root = nodes[0]
	} else {
		root = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
		for _, n := range nodes {
			root.AppendChild(n)
		}
	}
	if d.root == nil {
		d.root = root
	}
	return root, nil
}

// Root returns the first tree parsed into the document, or nil.
func (d *Document) Root() *html.Node {
	return d.root
}

// SetRoot replaces the document root.
func (d *Document) SetRoot(n *html.Node) {
	d.root = n
}

// Adopt merges other's listeners and ids into d. Afterwards both documents
// share the same tables, so listeners added through either are visible to
// both.
func (d *Document) Adopt(other *Document) {
	if other == nil || other.reg == d.reg {
		return
	}
	for n, ls := range other.reg.listeners {
		d.reg.listeners[n] = append(d.reg.listeners[n], ls...)
	}
	for id, n := range other.reg.ids {
		d.reg.ids[id] = n
	}
	if other.reg.seq > d.reg.seq {
		d.reg.seq = other.reg.seq
	}
	other.reg = d.reg
}

// ID returns the stable id of n, assigning a new ULID on first use.
func (d *Document) ID(n *html.Node) string {
	if id, ok := Attr(n, IDAttr); ok && id != "" {
		d.reg.ids[id] = n
		return id
	}
	id := strings.ToLower(ulid.Make().String())
	SetAttr(n, IDAttr, id)
	d.reg.ids[id] = n
	return id
}

// ByID returns the node with the given id. Nodes whose id was never
// requested are found by walking the document root.
func (d *Document) ByID(id string) (*html.Node, bool) {
	if n, ok := d.reg.ids[id]; ok {
		return n, true
	}
	var found *html.Node
	Walk(d.root, func(n *html.Node) bool {
		if v, ok := Attr(n, IDAttr); ok && v == id {
			found = n
			return false
		}
		return true
	})
	if found != nil {
		d.reg.ids[id] = found
	}
	return found, found != nil
}

// Render writes n as HTML.
func Render(w io.Writer, n *html.Node) error {
	return html.Render(w, n)
}

// RenderString renders n to a string. Rendering errors yield "".
func RenderString(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}
