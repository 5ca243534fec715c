// Package project assembles an spa application from a resolved spa.yaml:
// the page layout, one view model per route and the router app that
// mounts them.
package project

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-drift/spa/cmd/spa/internal/config"
	"github.com/go-drift/spa/pkg/dom"
	"github.com/go-drift/spa/pkg/errors"
	"github.com/go-drift/spa/pkg/logging"
	"github.com/go-drift/spa/pkg/mvvm"
	"github.com/go-drift/spa/pkg/router"
	"github.com/go-drift/spa/pkg/runloop"
	"github.com/go-drift/spa/pkg/script"
)

// Project is a loaded application. Like the stores it owns, it belongs to
// the goroutine pumping Loop.
type Project struct {
	Config   *config.Resolved
	Loop     *runloop.Loop
	Location router.Location
	Document *dom.Document
	App      *router.App
	// Views holds one view model per route pattern.
	Views map[string]*mvvm.ViewModel

	logger *slog.Logger
}

// Option configures Load.
type Option func(*Project)

// WithLoop sets the run loop. Defaults to a loop on the system clock.
func WithLoop(l *runloop.Loop) Option {
	return func(p *Project) {
		p.Loop = l
	}
}

// WithLocation sets the location the app reads. Defaults to a memory
// location at "/".
func WithLocation(loc router.Location) Option {
	return func(p *Project) {
		p.Location = loc
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(l *slog.Logger) Option {
	return func(p *Project) {
		p.logger = l
	}
}

// Load reads every route template and model script and wires the router.
func Load(cfg *config.Resolved, opts ...Option) (*Project, error) {
	p := &Project{
		Config: cfg,
		Views:  make(map[string]*mvvm.ViewModel, len(cfg.Routes)),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.OrDefault(p.logger)
	if p.Loop == nil {
		p.Loop = runloop.New()
	}
	if p.Location == nil {
		p.Location = router.NewMemoryLocation(router.FallbackPattern)
	}
	if len(cfg.Routes) == 0 {
		return nil, &errors.Error{
			Op:   "project.Load",
			Kind: errors.KindConfig,
			Err:  fmt.Errorf("no routes in %s", config.FileName),
			Key:  cfg.Root,
		}
	}

	p.Document = dom.New()
	if _, err := p.Document.Parse(cfg.Layout); err != nil {
		return nil, err
	}

	routes := make([]router.Route, 0, len(cfg.Routes))
	for _, rc := range cfg.Routes {
		vm, err := p.view(rc)
		if err != nil {
			return nil, err
		}
		p.Views[rc.Pattern] = vm
		routes = append(routes, router.Route{Pattern: rc.Pattern, View: vm})
	}

	mw, err := router.Router(p.Document, routes, router.WithLogger(p.logger))
	if err != nil {
		return nil, err
	}
	p.App = router.NewApp(p.Location,
		router.WithPollInterval(cfg.PollInterval),
		router.WithAppLogger(p.logger),
	).Use(mw).Init()

	p.logger.Debug("project loaded", "app", cfg.AppName, "routes", len(routes))
	return p, nil
}

func (p *Project) view(rc config.RouteConfig) (*mvvm.ViewModel, error) {
	tmpl, err := os.ReadFile(rc.Template)
	if err != nil {
		return nil, &errors.Error{Op: "project.Load", Kind: errors.KindConfig, Err: err, Key: rc.Pattern}
	}

	factory := mvvm.Factory(func() mvvm.Model { return mvvm.Model{} })
	if rc.Model != "" {
		factory, err = script.Load(rc.Model, nil, script.WithLogger(p.logger))
		if err != nil {
			return nil, err
		}
	}

	return mvvm.New(string(tmpl), factory,
		mvvm.WithLoop(p.Loop),
		mvvm.WithInterval(p.Config.DispatchInterval),
		mvvm.WithLogger(p.logger),
		mvvm.WithDocument(p.Document),
	)
}

// Start polls the location on the loop.
func (p *Project) Start() {
	p.App.Start(p.Loop)
}

// Navigate sets the location hash and routes it immediately.
func (p *Project) Navigate(hash string) {
	p.Location.SetHash(hash)
	p.App.Poll()
}

// Settle runs queued loop tasks and delivers every queued change event of
// every created view model, without waiting for dispatch ticks.
func (p *Project) Settle() int {
	p.Loop.Pump()
	n := 0
	for _, vm := range p.Views {
		if vm.Created() {
			n += vm.Store().Flush()
		}
	}
	return n
}

// Pending returns the number of undelivered change events.
func (p *Project) Pending() int {
	n := 0
	for _, vm := range p.Views {
		if vm.Created() {
			n += vm.Store().Pending()
		}
	}
	return n
}

// HTML renders the page.
func (p *Project) HTML() string {
	return dom.RenderString(p.Document.Root())
}

// Close stops polling and destroys every view model.
func (p *Project) Close() {
	p.App.Stop()
	for _, vm := range p.Views {
		vm.Destroy()
	}
}
