package router

import (
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/go-drift/spa/pkg/dom"
	"github.com/go-drift/spa/pkg/errors"
	"github.com/go-drift/spa/pkg/logging"
	"github.com/go-drift/spa/pkg/mvvm"
)

// FallbackPattern is mounted when no route matches.
const FallbackPattern = "/"

var errNoPlaceholder = stderrors.New("no <" + PlaceholderTag + "> placeholder in document")

// Route maps a hash pattern to a view model.
type Route struct {
	// Pattern is a path pattern such as "/user/:id".
	Pattern string
	View    *mvvm.ViewModel
}

// Option configures Router.
type Option func(*routerMiddleware)

// WithLogger sets the router logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *routerMiddleware) {
		r.logger = l
	}
}

type routerMiddleware struct {
	routes []Route
	slot   *Slot
	logger *slog.Logger
}

// Router returns the middleware that mounts the view model of the matching
// route into the router-view slot of doc. An empty hash routes to "/".
// Routes are tried in order, the first whose pattern equals the hash
// rewritten by Rest wins, and unmatched hashes mount the "/" route.
func Router(doc *dom.Document, routes []Route, opts ...Option) (Middleware, error) {
	if len(routes) == 0 {
		return nil, &errors.TypeError{Op: "router.Router", Want: "[]router.Route", Got: routes}
	}
	for _, r := range routes {
		if r.View == nil {
			return nil, &errors.TypeError{Op: "router.Router", Want: "*mvvm.ViewModel", Got: r.View}
		}
	}
	slot, err := NewSlot(doc, FindPlaceholder(doc.Root()))
	if err != nil {
		return nil, err
	}

	rm := &routerMiddleware{
		routes: append([]Route(nil), routes...),
		slot:   slot,
	}
	for _, opt := range opts {
		opt(rm)
	}
	rm.logger = logging.OrDefault(rm.logger)

	patterns := make([]string, len(routes))
	for i, r := range routes {
		patterns[i] = r.Pattern
	}
	return Chain(Rest(patterns), rm.mount), nil
}

func (rm *routerMiddleware) mount(ctx *Context, next Next) {
	hash := ctx.Hash
	if hash == "" {
		hash = FallbackPattern
	}
	rm.slot.Unmount()

	route, ok := rm.lookup(hash)
	if !ok {
		route, ok = rm.lookup(FallbackPattern)
	}
	if !ok {
		errors.Report(&errors.Error{
			Op:   "router.mount",
			Kind: errors.KindRouting,
			Err:  fmt.Errorf("no route for %q and no %q fallback", hash, FallbackPattern),
			Key:  hash,
		})
	} else if err := rm.slot.Mount(route.View, mvvm.Context{Params: ctx.RestParams, Query: ctx.Query}); err != nil {
		rm.logger.Error("route mount failed", "pattern", route.Pattern, "error", err)
		errors.Report(&errors.Error{
			Op:   "router.Slot",
			Kind: errors.KindRouting,
			Err:  err,
			Key:  route.Pattern,
		})
	} else {
		rm.logger.Info("route mounted", "pattern", route.Pattern, "params", ctx.RestParams)
	}

	if next != nil {
		next(ctx)
	}
}

func (rm *routerMiddleware) lookup(pattern string) (Route, bool) {
	for _, r := range rm.routes {
		if r.Pattern == pattern {
			return r, true
		}
	}
	return Route{}, false
}
