package testing

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/go-drift/spa/pkg/directive"
	"github.com/go-drift/spa/pkg/dom"
)

// Finder locates nodes in a document.
type Finder interface {
	// Evaluate returns all matching elements under root (depth-first pre-order).
	Evaluate(root *html.Node) []*html.Node
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	nodes  []*html.Node
	finder Finder
}

func (r FinderResult) description() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *html.Node {
	if len(r.nodes) == 0 {
		panic(fmt.Sprintf("Finder found no nodes: %s", r.description()))
	}
	return r.nodes[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *html.Node {
	if len(r.nodes) == 0 {
		return nil
	}
	return r.nodes[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *html.Node {
	if index < 0 || index >= len(r.nodes) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.nodes), r.description()))
	}
	return r.nodes[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []*html.Node {
	return r.nodes
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.nodes)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.nodes) > 0
}

// Text returns the text content of the first match. Panics if no matches.
func (r FinderResult) Text() string {
	return dom.Text(r.First())
}

// Value returns the form value of the first match. Panics if no matches.
func (r FinderResult) Value() string {
	return dom.Value(r.First())
}

// --- Concrete finders ---

type tagFinder struct {
	tag string
}

func (f *tagFinder) Evaluate(root *html.Node) []*html.Node {
	return collectMatches(root, func(n *html.Node) bool {
		return n.Data == f.tag
	})
}

func (f *tagFinder) Description() string {
	return fmt.Sprintf("ByTag(%s)", f.tag)
}

// ByTag matches elements by tag name.
func ByTag(tag string) Finder {
	return &tagFinder{tag: strings.ToLower(tag)}
}

type attrFinder struct {
	key, value string
}

func (f *attrFinder) Evaluate(root *html.Node) []*html.Node {
	return collectMatches(root, func(n *html.Node) bool {
		v, ok := dom.Attr(n, f.key)
		return ok && v == f.value
	})
}

func (f *attrFinder) Description() string {
	return fmt.Sprintf("ByAttr(%s=%q)", f.key, f.value)
}

// ByAttr matches elements whose attribute key equals value.
func ByAttr(key, value string) Finder {
	return &attrFinder{key: key, value: value}
}

// ByID matches elements by their id attribute.
func ByID(id string) Finder {
	return &attrFinder{key: "id", value: id}
}

// ByDirective matches elements carrying the directive of kind bound to
// expr, e.g. ByDirective(directive.KindText, "user.name") for
// sp-text="user.name".
func ByDirective(kind directive.Kind, expr string) Finder {
	return &attrFinder{key: directive.Prefix + kind.String(), value: expr}
}

type textFinder struct {
	text     string
	contains bool
}

func (f *textFinder) Evaluate(root *html.Node) []*html.Node {
	return collectMatches(root, func(n *html.Node) bool {
		// Only the innermost element holding the text matches.
		if len(dom.Children(n)) > 0 {
			return false
		}
		text := strings.TrimSpace(dom.Text(n))
		if f.contains {
			return strings.Contains(text, f.text)
		}
		return text == f.text
	})
}

func (f *textFinder) Description() string {
	if f.contains {
		return fmt.Sprintf("ByTextContaining(%q)", f.text)
	}
	return fmt.Sprintf("ByText(%q)", f.text)
}

// ByText matches leaf elements whose trimmed text equals text.
func ByText(text string) Finder {
	return &textFinder{text: text}
}

// ByTextContaining matches leaf elements whose text contains substring.
func ByTextContaining(substring string) Finder {
	return &textFinder{text: substring, contains: true}
}

type predicateFinder struct {
	fn   func(*html.Node) bool
	desc string
}

func (f *predicateFinder) Evaluate(root *html.Node) []*html.Node {
	return collectMatches(root, f.fn)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByPredicate matches elements satisfying fn.
func ByPredicate(fn func(*html.Node) bool) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate(...)"}
}

// descendantFinder finds elements matching 'matching' that are descendants
// of elements matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(root *html.Node) []*html.Node {
	var results []*html.Node
	seen := make(map[*html.Node]bool)
	for _, ancestor := range f.of.Evaluate(root) {
		for c := ancestor.FirstChild; c != nil; c = c.NextSibling {
			for _, match := range f.matching.Evaluate(c) {
				if !seen[match] {
					seen[match] = true
					results = append(results, match)
				}
			}
		}
	}
	return results
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant returns a finder that matches elements satisfying 'matching'
// that are descendants of elements matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

// collectMatches performs depth-first pre-order traversal, collecting
// elements that satisfy the predicate.
func collectMatches(root *html.Node, predicate func(*html.Node) bool) []*html.Node {
	var results []*html.Node
	dom.Walk(root, func(n *html.Node) bool {
		if predicate(n) {
			results = append(results, n)
		}
		return true
	})
	return results
}
