package dom

import (
	"golang.org/x/net/html"

	"github.com/go-drift/spa/pkg/errors"
)

// Event is a DOM event.
type Event struct {
	// Type is the event name, "click" or "input".
	Type string
	// Value carries the new form value of an input event.
	Value string
	// Target is the node the event was emitted on.
	Target *html.Node
}

// Listener handles events.
type Listener func(ev Event)

// ListenerID identifies a registered listener.
type ListenerID uint64

type listener struct {
	id    ListenerID
	event string
	fn    Listener
}

// On registers fn for events of the given type on n.
func (d *Document) On(n *html.Node, event string, fn Listener) ListenerID {
	d.reg.seq++
	id := d.reg.seq
	d.reg.listeners[n] = append(d.reg.listeners[n], listener{id: id, event: event, fn: fn})
	return id
}

// Off removes every listener of the given type on n.
func (d *Document) Off(n *html.Node, event string) {
	ls := d.reg.listeners[n]
	kept := ls[:0]
	for _, l := range ls {
		if l.event != event {
			kept = append(kept, l)
		}
	}
	d.setListeners(n, kept)
}

// RemoveListener removes one listener.
func (d *Document) RemoveListener(n *html.Node, id ListenerID) {
	ls := d.reg.listeners[n]
	for i, l := range ls {
		if l.id == id {
			d.setListeners(n, append(ls[:i:i], ls[i+1:]...))
			return
		}
	}
}

// Listeners returns the number of listeners of the given type on n.
func (d *Document) Listeners(n *html.Node, event string) int {
	count := 0
	for _, l := range d.reg.listeners[n] {
		if l.event == event {
			count++
		}
	}
	return count
}

func (d *Document) setListeners(n *html.Node, ls []listener) {
	if len(ls) == 0 {
		delete(d.reg.listeners, n)
		return
	}
	d.reg.listeners[n] = ls
}

// Emit delivers ev on n and then on each ancestor of n, and returns the
// number of listeners called. An input event first stores ev.Value as the
// node's value, the way a browser updates a field before notifying.
// A panicking listener is reported and does not stop delivery.
func (d *Document) Emit(n *html.Node, ev Event) int {
	if ev.Target == nil {
		ev.Target = n
	}
	if ev.Type == "input" {
		SetValue(n, ev.Value)
	}
	called := 0
	for cur := n; cur != nil; cur = cur.Parent {
		ls := append([]listener(nil), d.reg.listeners[cur]...)
		for _, l := range ls {
			if l.event != ev.Type {
				continue
			}
			called++
			invoke(l.fn, ev)
		}
	}
	return called
}

func invoke(fn Listener, ev Event) {
	errors.Guard("dom.listener", ev.Type, func() { fn(ev) })
}
