// Package observe implements the observable store behind spa view models.
//
// A Store wraps one plain data object (map[string]any). Nested objects become
// *Object handles and slices become *Array handles; every write through a
// handle that changes a value queues a ChangeEvent. Events are delivered
// later, one per dispatch tick, to the handlers registered for the changed
// key-path and then, most specific first, to the handlers of its ancestors.
//
//	store, err := observe.New(map[string]any{
//	    "user": map[string]any{"name": "sal"},
//	})
//	store.OnChange("user", func(ev *observe.ChangeEvent) {
//	    fmt.Println("changed:", ev.Key)
//	})
//	store.Set("user.name", "bob") // queued, not delivered yet
//	store.Tick()                  // changed: user.name
//
// Arrays are observed shallowly: index writes and the mutator methods queue
// events keyed by the array's path, but values stored inside array elements
// are plain data and changing them is invisible to the store.
//
// Store is NOT thread-safe. It must only be used from the run loop goroutine;
// other goroutines hand work over with runloop.Loop.Dispatch.
package observe

import (
	"log/slog"
	"sort"
	"time"

	"github.com/go-drift/spa/pkg/errors"
	"github.com/go-drift/spa/pkg/keypath"
	"github.com/go-drift/spa/pkg/logging"
	"github.com/go-drift/spa/pkg/runloop"
)

// DefaultInterval is the default dispatch tick interval.
const DefaultInterval = 100 * time.Millisecond

// Handler receives change events.
type Handler func(ev *ChangeEvent)

// Command is a model-defined function callable by name, typically from a
// click directive. event is whatever the caller passes along, for
// directives a dom.Event.
type Command func(store *Store, event any)

// Option configures a Store.
type Option func(*Store)

// WithInterval sets the dispatch tick interval used by StartObserve.
func WithInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithQueueLimit bounds the event queue. When full, the oldest event is
// dropped. Zero means unbounded.
func WithQueueLimit(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.queueLimit = n
		}
	}
}

type subscription struct {
	handler Handler
	active  bool
}

// Store is an observable data model.
type Store struct {
	root       *Object
	queue      []*ChangeEvent
	handlers   map[string][]*subscription
	commands   map[string]Command
	interval   time.Duration
	queueLimit int
	logger     *slog.Logger
	ticker     *runloop.Ticker
}

// New wraps data in a Store. data must be a map[string]any (or a map with
// string keys); anything else is a *errors.TypeError. Field names that cannot
// be used as key-path segments are a *errors.ReservedNameError.
func New(data any, opts ...Option) (*Store, error) {
	s := &Store{
		handlers: make(map[string][]*subscription),
		commands: make(map[string]Command),
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDefault(s.logger)

	m, ok := normalize(data).(map[string]any)
	if !ok || m == nil {
		return nil, &errors.TypeError{Op: "observe.New", Want: "map[string]any", Got: data}
	}
	root, err := s.newObject("", m)
	if err != nil {
		return nil, err
	}
	s.root = root
	return s, nil
}

// Root returns the root object.
func (s *Store) Root() *Object {
	return s.root
}

// Interval returns the dispatch tick interval.
func (s *Store) Interval() time.Duration {
	return s.interval
}

// Get reads the value at path. Nested objects and arrays are returned as
// *Object and *Array handles.
func (s *Store) Get(path string) (any, error) {
	return keypath.Get(s.root, path)
}

// MustGet is like Get but panics on error. Use it for paths known to exist.
func (s *Store) MustGet(path string) any {
	v, err := s.Get(path)
	if err != nil {
		panic(err)
	}
	return v
}

// Set writes value at path. Writes that do not change the value are no-ops
// and queue nothing.
func (s *Store) Set(path string, value any) error {
	return keypath.Set(s.root, path, value)
}

// Snapshot returns a deep copy of the data as plain maps and slices.
func (s *Store) Snapshot() map[string]any {
	return s.root.Snapshot()
}

// Define registers a command under name, replacing any previous one.
func (s *Store) Define(name string, cmd Command) {
	if cmd == nil {
		delete(s.commands, name)
		return
	}
	s.commands[name] = cmd
}

// Call runs the command registered under name. Unknown names are a
// *errors.PropertyAccessError.
func (s *Store) Call(name string, event any) error {
	cmd, ok := s.commands[name]
	if !ok {
		return &errors.PropertyAccessError{Path: name, Segment: name}
	}
	cmd(s, event)
	return nil
}

// Commands returns the registered command names, sorted.
func (s *Store) Commands() []string {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OnChange registers handler for changes at key and, through bubbling, for
// changes below key. Handlers for the same key run in registration order.
// The returned function removes the handler.
func (s *Store) OnChange(key string, handler Handler) func() {
	if handler == nil {
		return func() {}
	}
	sub := &subscription{handler: handler, active: true}
	s.handlers[key] = append(s.handlers[key], sub)
	return func() {
		if !sub.active {
			return
		}
		sub.active = false
		subs := s.handlers[key]
		for i, other := range subs {
			if other == sub {
				subs = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
		if len(subs) == 0 {
			delete(s.handlers, key)
		} else {
			s.handlers[key] = subs
		}
	}
}

// StartObserve starts draining the queue, one event per tick, on loop.
// Calling it while already observing is a no-op.
func (s *Store) StartObserve(loop *runloop.Loop) *Store {
	if s.ticker != nil {
		return s
	}
	s.ticker = loop.NewTicker(s.interval, func() { s.Tick() })
	s.ticker.Start()
	return s
}

// StopObserve stops the dispatch ticker. Events still queued stay queued
// and are not delivered unless observation restarts.
func (s *Store) StopObserve() *Store {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	return s
}

// Teardown stops observation, drops queued events and detaches the whole
// tree. Handles stay readable and writable as plain storage.
func (s *Store) Teardown() {
	s.StopObserve()
	s.root.detach()
	clear(s.queue)
	s.queue = nil
}

// Observing reports whether a dispatch ticker is running.
func (s *Store) Observing() bool {
	return s.ticker != nil && s.ticker.IsActive()
}
