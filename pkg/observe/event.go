package observe

import (
	"github.com/go-drift/spa/pkg/errors"
	"github.com/go-drift/spa/pkg/keypath"
)

// ChangeEvent describes one observed mutation.
type ChangeEvent struct {
	// Target is the *Object or *Array whose field changed.
	Target any
	// Key is the full key-path of the change.
	Key string

	stopped bool
}

// StopPropagation prevents delivery to less specific ancestor keys.
// Handlers registered at the level currently being delivered still run.
func (e *ChangeEvent) StopPropagation() {
	e.stopped = true
}

// Stopped reports whether StopPropagation was called.
func (e *ChangeEvent) Stopped() bool {
	return e.stopped
}

// Pending returns the number of queued events.
func (s *Store) Pending() int {
	return len(s.queue)
}

// Tick delivers the oldest queued event. It returns false when the queue
// was empty.
func (s *Store) Tick() bool {
	if len(s.queue) == 0 {
		return false
	}
	ev := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	s.dispatch(ev)
	return true
}

// Flush delivers queued events until the queue is empty, including events
// queued by handlers along the way, and returns how many were delivered.
func (s *Store) Flush() int {
	n := 0
	for s.Tick() {
		n++
	}
	return n
}

func (s *Store) enqueue(ev *ChangeEvent) {
	if s.queueLimit > 0 && len(s.queue) >= s.queueLimit {
		dropped := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.logger.Warn("change queue full, dropping oldest event",
			"key", dropped.Key,
			"limit", s.queueLimit,
		)
	}
	s.queue = append(s.queue, ev)
}

func (s *Store) dispatch(ev *ChangeEvent) {
	s.deliver(ev, ev.Key)

	scope := ev.Key
	for scope != "" {
		scope, _ = keypath.Base(scope)
		if _, ok := s.handlers[scope]; !ok {
			continue
		}
		if ev.stopped {
			return
		}
		s.deliver(ev, scope)
	}
}

// deliver runs every handler registered for key. Handlers may subscribe or
// unsubscribe while running, so it iterates over a copy and skips removed
// subscriptions.
func (s *Store) deliver(ev *ChangeEvent, key string) {
	subs := s.handlers[key]
	if len(subs) == 0 {
		return
	}
	subs = append([]*subscription(nil), subs...)
	for _, sub := range subs {
		if sub.active {
			s.invoke(sub.handler, ev)
		}
	}
}

func (s *Store) invoke(handler Handler, ev *ChangeEvent) {
	if p := errors.Guard("observe.dispatch", ev.Key, func() { handler(ev) }); p != nil {
		s.logger.Error("change handler panicked", "key", ev.Key, "panic", p.Value)
	}
}
