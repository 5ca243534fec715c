// Package template compiles directive attributes in a DOM subtree into
// bound directives.
package template

import (
	stderrors "errors"
	"fmt"
	"log/slog"

	"golang.org/x/net/html"

	"github.com/go-drift/spa/pkg/directive"
	"github.com/go-drift/spa/pkg/dom"
	"github.com/go-drift/spa/pkg/errors"
	"github.com/go-drift/spa/pkg/logging"
	"github.com/go-drift/spa/pkg/observe"
)

// Option configures Compile.
type Option func(*compiler)

// WithRegistry sets the directive registry. Defaults to directive.Default.
func WithRegistry(r *directive.Registry) Option {
	return func(c *compiler) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithLogger sets the logger handed to directives.
func WithLogger(l *slog.Logger) Option {
	return func(c *compiler) {
		c.logger = l
	}
}

type compiler struct {
	doc      *dom.Document
	store    *observe.Store
	registry *directive.Registry
	logger   *slog.Logger
	bound    []directive.Directive
}

// Compile walks the element descendants of root in pre-order, builds one
// directive per recognised attribute and binds it to store. root itself is
// not scanned. Unknown directive identifiers are ignored.
//
// If a directive fails to bind, the directives bound so far are unbound and
// the error is returned.
func Compile(doc *dom.Document, root *html.Node, store *observe.Store, opts ...Option) ([]directive.Directive, error) {
	c := &compiler{
		doc:      doc,
		store:    store,
		registry: directive.Default,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDefault(c.logger)

	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if err := c.walk(child); err != nil {
			for _, d := range c.bound {
				d.Unbind()
			}
			return nil, err
		}
	}
	return c.bound, nil
}

func (c *compiler) walk(n *html.Node) error {
	if n.Type != html.ElementNode {
		return nil
	}
	// Attributes are copied since binding may add attributes to n.
	attrs := append([]html.Attribute(nil), n.Attr...)
	for _, attr := range attrs {
		name, ok := directive.Parse(attr.Key)
		if !ok {
			continue
		}
		ctor, ok := c.registry.Lookup(name)
		if !ok {
			continue
		}
		d := ctor(directive.Scope{
			Doc:    c.doc,
			Node:   n,
			Parent: n.Parent,
			Next:   dom.NextElement(n),
			Logger: c.logger,
		}, attr.Val)
		if err := d.Bind(c.store); err != nil {
			return &errors.Error{
				Op:   "template.Compile",
				Kind: kindOf(err),
				Err:  fmt.Errorf("%s=%q on <%s>: %w", attr.Key, attr.Val, n.Data, err),
				Key:  attr.Val,
			}
		}
		c.bound = append(c.bound, d)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if err := c.walk(child); err != nil {
			return err
		}
	}
	return nil
}

func kindOf(err error) errors.ErrorKind {
	var accessErr *errors.PropertyAccessError
	var typeErr *errors.TypeError
	switch {
	case stderrors.As(err, &accessErr):
		return errors.KindPropertyAccess
	case stderrors.As(err, &typeErr):
		return errors.KindType
	}
	return errors.KindUnknown
}
