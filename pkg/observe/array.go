package observe

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/go-drift/spa/pkg/errors"
	"github.com/go-drift/spa/pkg/keypath"
)

// Array is an observed array. Index writes queue an event keyed by the
// index path ("list.2"); each mutator queues exactly one event keyed by the
// array's own path. Elements are plain values and are not observed.
type Array struct {
	store    *Store
	scope    string
	items    []any
	detached bool
}

func (s *Store) newArray(scope string, items []any) *Array {
	a := &Array{store: s, scope: scope, items: make([]any, len(items))}
	for i, v := range items {
		a.items[i] = normalize(v)
	}
	return a
}

// Scope returns the key-path of the array.
func (a *Array) Scope() string {
	return a.scope
}

// Detached reports whether the array has been severed from its store.
func (a *Array) Detached() bool {
	return a.detached
}

// Len returns the number of elements.
func (a *Array) Len() int {
	return len(a.items)
}

// Index returns element i, or nil when i is out of range.
func (a *Array) Index(i int) any {
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i]
}

// Items returns a shallow copy of the elements.
func (a *Array) Items() []any {
	return slices.Clone(a.items)
}

// Snapshot returns a deep copy of the array as plain data.
func (a *Array) Snapshot() []any {
	s := make([]any, len(a.items))
	for i, v := range a.items {
		s[i] = plain(v)
	}
	return s
}

// Field implements keypath.Container with decimal index names.
func (a *Array) Field(name string) (any, bool) {
	i, err := strconv.Atoi(name)
	if err != nil || i < 0 || i >= len(a.items) {
		return nil, false
	}
	return a.items[i], true
}

// SetField implements keypath.Container with decimal index names.
func (a *Array) SetField(name string, value any) error {
	i, err := strconv.Atoi(name)
	if err != nil {
		return &errors.PropertyAccessError{Path: keypath.Join(a.scope, name), Segment: name}
	}
	return a.SetIndex(i, value)
}

// SetIndex writes element i. Writing at Len appends.
func (a *Array) SetIndex(i int, value any) error {
	if i < 0 || i > len(a.items) {
		name := strconv.Itoa(i)
		return &errors.PropertyAccessError{Path: keypath.Join(a.scope, name), Segment: name}
	}
	if i < len(a.items) && same(a.items[i], value) {
		return nil
	}
	value = normalize(value)
	if i < len(a.items) && same(a.items[i], value) {
		return nil
	}
	if i == len(a.items) {
		a.items = append(a.items, value)
	} else {
		a.items[i] = value
	}
	if !a.detached {
		a.store.enqueue(&ChangeEvent{Target: a, Key: keypath.Join(a.scope, strconv.Itoa(i))})
	}
	return nil
}

// Push appends values and returns the new length.
func (a *Array) Push(values ...any) int {
	a.mutate(func() {
		for _, v := range values {
			a.items = append(a.items, normalize(v))
		}
	})
	return len(a.items)
}

// Pop removes and returns the last element, nil when empty.
func (a *Array) Pop() any {
	var last any
	a.mutate(func() {
		if n := len(a.items); n > 0 {
			last = a.items[n-1]
			a.items[n-1] = nil
			a.items = a.items[:n-1]
		}
	})
	return last
}

// Shift removes and returns the first element, nil when empty.
func (a *Array) Shift() any {
	var first any
	a.mutate(func() {
		if len(a.items) > 0 {
			first = a.items[0]
			a.items = slices.Delete(a.items, 0, 1)
		}
	})
	return first
}

// Unshift prepends values and returns the new length.
func (a *Array) Unshift(values ...any) int {
	a.mutate(func() {
		head := make([]any, len(values))
		for i, v := range values {
			head[i] = normalize(v)
		}
		a.items = slices.Insert(a.items, 0, head...)
	})
	return len(a.items)
}

// Splice removes deleteCount elements at start, inserts values in their
// place and returns the removed elements. A negative start counts from the
// end; start and deleteCount are clamped to the array bounds.
func (a *Array) Splice(start, deleteCount int, values ...any) []any {
	var removed []any
	a.mutate(func() {
		n := len(a.items)
		if start < 0 {
			start = max(n+start, 0)
		}
		start = min(start, n)
		deleteCount = min(max(deleteCount, 0), n-start)

		removed = slices.Clone(a.items[start : start+deleteCount])
		inserted := make([]any, len(values))
		for i, v := range values {
			inserted[i] = normalize(v)
		}
		a.items = slices.Replace(a.items, start, start+deleteCount, inserted...)
	})
	return removed
}

// Sort sorts the elements in place with cmp. A nil cmp compares the
// elements' fmt.Sprint forms.
func (a *Array) Sort(cmp func(x, y any) int) {
	if cmp == nil {
		cmp = func(x, y any) int {
			return strings.Compare(fmt.Sprint(x), fmt.Sprint(y))
		}
	}
	a.mutate(func() {
		slices.SortStableFunc(a.items, cmp)
	})
}

// Reverse reverses the elements in place.
func (a *Array) Reverse() {
	a.mutate(func() {
		slices.Reverse(a.items)
	})
}

// mutate runs op and queues one event for the whole array.
func (a *Array) mutate(op func()) {
	op()
	if !a.detached {
		a.store.enqueue(&ChangeEvent{Target: a, Key: a.scope})
	}
}

func (a *Array) detach() {
	a.detached = true
}
