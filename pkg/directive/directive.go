// Package directive binds DOM nodes to store key-paths.
//
// A directive is declared as an attribute on an element: the attribute name
// selects the variant, the attribute value is its expression.
//
//	<span sp-text="user.name"></span>    render user.name into the node text
//	<input sp-bind="user.name">          two-way bind the input value
//	<button sp-click="save">Save</button> call the store command "save"
//
// Bind renders the current value and subscribes to the store; from then on
// the node is written directly whenever a change event for the key-path is
// delivered. Unbind removes every subscription and listener the directive
// installed, and is safe to call more than once.
package directive

import (
	"fmt"
	"log/slog"
	"regexp"

	"golang.org/x/net/html"

	"github.com/go-drift/spa/pkg/dom"
	"github.com/go-drift/spa/pkg/observe"
)

// Prefix marks directive attributes.
const Prefix = "sp-"

var attrPattern = regexp.MustCompile(`^` + regexp.QuoteMeta(Prefix) + `(\w+)$`)

// Parse returns the directive identifier of attr, "text" for "sp-text".
func Parse(attr string) (name string, ok bool) {
	m := attrPattern.FindStringSubmatch(attr)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Kind identifies a directive variant.
type Kind int

const (
	KindText Kind = iota
	KindBind
	KindClick
)

// String returns the directive identifier for k.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBind:
		return "bind"
	case KindClick:
		return "click"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Scope locates the node a directive is attached to.
type Scope struct {
	Doc    *dom.Document
	Node   *html.Node
	Parent *html.Node
	Next   *html.Node
	Logger *slog.Logger
}

// Directive is a binding between one node and a store.
type Directive interface {
	// Bind renders the initial state and installs subscriptions.
	Bind(store *observe.Store) error
	// Unbind removes subscriptions and listeners.
	Unbind()
	Kind() Kind
	// Expression returns the attribute value the directive was built from.
	Expression() string
}

// format renders a store value as node text.
func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *observe.Object:
		return fmt.Sprint(x.Snapshot())
	case *observe.Array:
		return fmt.Sprint(x.Snapshot())
	}
	return fmt.Sprint(v)
}
