// Package mvvm ties a template, a model and a store together into a view
// model with a create / mount / unmount / destroy lifecycle.
//
// A ViewModel is lazy: New only parses the template. Create builds the
// model from its factory, wraps the data in an observe.Store, compiles the
// template against it and starts observation. Mount and Unmount run the
// model's hooks; attaching the element to a page is the caller's job (the
// router's Slot does it). Destroy tears everything down, after which the
// view model may be created again with a fresh model.
package mvvm

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/net/html"

	"github.com/go-drift/spa/pkg/directive"
	"github.com/go-drift/spa/pkg/dom"
	"github.com/go-drift/spa/pkg/errors"
	"github.com/go-drift/spa/pkg/logging"
	"github.com/go-drift/spa/pkg/observe"
	"github.com/go-drift/spa/pkg/runloop"
	"github.com/go-drift/spa/pkg/template"
)

// Context carries route parameters into OnCreate.
type Context struct {
	// Params holds the rest parameters captured by the route pattern.
	Params map[string]string
	// Query holds the parsed query string.
	Query map[string]string
}

// Model describes the data, commands and hooks of a view model.
type Model struct {
	Data     map[string]any
	Commands map[string]observe.Command

	OnCreate  func(store *observe.Store, ctx Context)
	OnMount   func(store *observe.Store)
	OnUnmount func(store *observe.Store)
	OnDestroy func(store *observe.Store)
}

// Factory builds a fresh Model for every Create.
type Factory func() Model

// State is the lifecycle state of a ViewModel.
type State int

const (
	StateUncreated State = iota
	StateCreated
	StateMounted
	StateUnmounted
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUncreated:
		return "uncreated"
	case StateCreated:
		return "created"
	case StateMounted:
		return "mounted"
	case StateUnmounted:
		return "unmounted"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures a ViewModel.
type Option func(*ViewModel)

// WithLoop sets the run loop the store is observed on. Without a loop the
// store is never drained automatically; call Store().Flush.
func WithLoop(l *runloop.Loop) Option {
	return func(vm *ViewModel) {
		vm.loop = l
	}
}

// WithInterval sets the store dispatch interval.
func WithInterval(d time.Duration) Option {
	return func(vm *ViewModel) {
		vm.interval = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(vm *ViewModel) {
		vm.logger = l
	}
}

// WithRegistry sets the directive registry used to compile the template.
func WithRegistry(r *directive.Registry) Option {
	return func(vm *ViewModel) {
		vm.registry = r
	}
}

// WithDocument parses the template into doc instead of a new document.
func WithDocument(doc *dom.Document) Option {
	return func(vm *ViewModel) {
		vm.doc = doc
	}
}

// ViewModel is a template bound to a store built from a model factory.
// Like the store it owns, a ViewModel belongs to the run loop goroutine.
type ViewModel struct {
	template string
	factory  Factory
	loop     *runloop.Loop
	interval time.Duration
	logger   *slog.Logger
	registry *directive.Registry

	doc        *dom.Document
	element    *html.Node
	store      *observe.Store
	directives []directive.Directive
	state      State

	onMount   func(*observe.Store)
	onUnmount func(*observe.Store)
	onDestroy func(*observe.Store)
}

// New parses template and returns an uncreated view model.
func New(template string, factory Factory, opts ...Option) (*ViewModel, error) {
	if factory == nil {
		return nil, &errors.TypeError{Op: "mvvm.New", Want: "mvvm.Factory", Got: factory}
	}
	vm := &ViewModel{
		template: template,
		factory:  factory,
		interval: observe.DefaultInterval,
	}
	for _, opt := range opts {
		opt(vm)
	}
	vm.logger = logging.OrDefault(vm.logger)
	if vm.doc == nil {
		vm.doc = dom.New()
	}

	el, err := vm.doc.Parse(template)
	if err != nil {
		return nil, err
	}
	vm.element = el
	return vm, nil
}

// Create builds the model, binds the template and calls OnCreate.
// It is a no-op while the view model is created.
func (vm *ViewModel) Create(ctx Context) error {
	if vm.Created() {
		return nil
	}
	model := vm.factory()
	data := model.Data
	if data == nil {
		data = map[string]any{}
	}

	store, err := observe.New(data,
		observe.WithInterval(vm.interval),
		observe.WithLogger(vm.logger),
	)
	if err != nil {
		return err
	}
	for name, cmd := range model.Commands {
		store.Define(name, cmd)
	}

	directives, err := template.Compile(vm.doc, vm.element, store,
		template.WithRegistry(vm.registry),
		template.WithLogger(vm.logger),
	)
	if err != nil {
		return err
	}

	vm.store = store
	vm.directives = directives
	vm.state = StateCreated
	if vm.loop != nil {
		store.StartObserve(vm.loop)
	}

	if model.OnCreate != nil {
		model.OnCreate(store, ctx)
	}
	vm.onMount = model.OnMount
	vm.onUnmount = model.OnUnmount
	vm.onDestroy = model.OnDestroy

	vm.logger.Debug("view model created", "directives", len(directives))
	return nil
}

// Mount runs the OnMount hook.
func (vm *ViewModel) Mount() {
	if !vm.Created() {
		return
	}
	if vm.onMount != nil {
		vm.onMount(vm.store)
	}
	vm.state = StateMounted
	vm.logger.Debug("view model mounted")
}

// Unmount runs the OnUnmount hook.
func (vm *ViewModel) Unmount() {
	if !vm.Created() {
		return
	}
	if vm.onUnmount != nil {
		vm.onUnmount(vm.store)
	}
	vm.state = StateUnmounted
	vm.logger.Debug("view model unmounted")
}

// Destroy stops observation, unbinds every directive and runs the OnDestroy
// hook. Calling it on a view model that is not created is a no-op.
func (vm *ViewModel) Destroy() {
	if !vm.Created() {
		return
	}
	vm.store.StopObserve()
	for _, d := range vm.directives {
		d.Unbind()
	}
	onDestroy := vm.onDestroy
	vm.onMount, vm.onUnmount, vm.onDestroy = nil, nil, nil
	if onDestroy != nil {
		onDestroy(vm.store)
	}
	vm.store.Teardown()

	vm.directives = nil
	vm.state = StateDestroyed
	vm.logger.Debug("view model destroyed")
}

// Created reports whether the view model has a live store.
func (vm *ViewModel) Created() bool {
	switch vm.state {
	case StateCreated, StateMounted, StateUnmounted:
		return true
	}
	return false
}

// State returns the lifecycle state.
func (vm *ViewModel) State() State {
	return vm.state
}

// Element returns the root element of the template.
func (vm *ViewModel) Element() *html.Node {
	return vm.element
}

// Document returns the document the template was parsed into.
func (vm *ViewModel) Document() *dom.Document {
	return vm.doc
}

// Store returns the store of the current model, or nil before Create.
// After Destroy it returns the torn down store.
func (vm *ViewModel) Store() *observe.Store {
	return vm.store
}

// Directives returns the bound directives.
func (vm *ViewModel) Directives() []directive.Directive {
	return vm.directives
}

// Template returns the template source.
func (vm *ViewModel) Template() string {
	return vm.template
}
