// Package runloop provides the cooperative single-threaded loop that drives
// spa.
//
// Every callback, whether a dispatched task or a ticker firing, runs on the
// goroutine calling Pump or Run. Stores, documents and view models are not
// thread-safe; other goroutines hand work to the loop with Dispatch:
//
//	go func() {
//	    value := readInput()
//	    loop.Dispatch(func() {
//	        store.Set("username", value) // runs on the loop goroutine
//	    })
//	}()
//
// Tickers are fixed-interval timers measured against the loop's Clock.
// Tests substitute a fake clock and call Pump directly to get
// deterministic ticks.
package runloop

import (
	"context"
	"sync"
	"time"

	"github.com/go-drift/spa/pkg/errors"
)

// DefaultResolution is how often Run pumps the loop.
const DefaultResolution = 10 * time.Millisecond

// maxTasksPerPump bounds how many tasks a single Pump drains, so a task
// that keeps dispatching itself cannot starve the tickers.
const maxTasksPerPump = 1024

// Clock provides time for tickers.
type Clock interface {
	Now() time.Time
}

// SystemClock uses system time.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Option configures a Loop.
type Option func(*Loop)

// WithClock replaces the loop clock.
func WithClock(c Clock) Option {
	return func(l *Loop) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithResolution sets how often Run pumps the loop.
func WithResolution(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.resolution = d
		}
	}
}

// Loop is a cooperative run loop.
type Loop struct {
	clock      Clock
	resolution time.Duration

	mu      sync.Mutex
	tasks   []func()
	tickers []*Ticker
	wake    chan struct{}
}

// New creates a loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		clock:      SystemClock{},
		resolution: DefaultResolution,
		wake:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now returns the loop clock's current time.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// Dispatch queues fn to run on the loop goroutine.
// Safe to call from any goroutine. Returns false if fn is nil.
func (l *Loop) Dispatch(fn func()) bool {
	if fn == nil {
		return false
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Pump runs queued tasks, then every ticker whose deadline has passed,
// then the tasks those tickers queued.
func (l *Loop) Pump() {
	l.runTasks()

	now := l.clock.Now()
	l.mu.Lock()
	var due []*Ticker
	for _, t := range l.tickers {
		if now.Before(t.next) {
			continue
		}
		due = append(due, t)
		t.next = t.next.Add(t.interval)
		if !t.next.After(now) {
			t.next = now.Add(t.interval)
		}
	}
	l.mu.Unlock()

	for _, t := range due {
		// An earlier callback in this pump may have stopped t.
		if t.IsActive() {
			run("runloop.ticker", t.callback)
		}
	}

	l.runTasks()
}

// Run pumps the loop every resolution, and whenever a task is dispatched,
// until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	tick := time.NewTicker(l.resolution)
	defer tick.Stop()
	for {
		l.Pump()
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		case <-l.wake:
		}
	}
}

func (l *Loop) runTasks() {
	for i := 0; i < maxTasksPerPump; i++ {
		l.mu.Lock()
		if len(l.tasks) == 0 {
			l.mu.Unlock()
			return
		}
		task := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		l.mu.Unlock()

		run("runloop.task", task)
	}
}

func run(op string, fn func()) {
	errors.Guard(op, "", fn)
}
