package observe

import (
	"sort"

	"github.com/go-drift/spa/pkg/errors"
	"github.com/go-drift/spa/pkg/keypath"
)

// Object is an observed nested object. Its field set is fixed when it is
// created; writing a field that does not exist is an error.
//
// Once detached, by reassignment of the field that held it or by the store
// being torn down, an Object keeps working as plain storage but no longer
// queues events.
type Object struct {
	store    *Store
	scope    string
	fields   map[string]any
	detached bool
}

func (s *Store) newObject(scope string, data map[string]any) (*Object, error) {
	o := &Object{
		store:  s,
		scope:  scope,
		fields: make(map[string]any, len(data)),
	}
	for name, value := range data {
		if err := checkName(name, scope); err != nil {
			return nil, err
		}
		wrapped, err := s.wrap(keypath.Join(scope, name), normalize(value))
		if err != nil {
			return nil, err
		}
		o.fields[name] = wrapped
	}
	return o, nil
}

// Scope returns the key-path of the object, "" for the root.
func (o *Object) Scope() string {
	return o.scope
}

// Detached reports whether the object has been severed from its store.
func (o *Object) Detached() bool {
	return o.detached
}

// Keys returns the field names, sorted.
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.fields))
	for k := range o.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Field implements keypath.Container.
func (o *Object) Field(name string) (any, bool) {
	v, ok := o.fields[name]
	return v, ok
}

// SetField implements keypath.Container. It is the single write path for
// observed objects: redundant writes are dropped, a replaced object or
// array is torn down, and the change is queued under the field's key-path.
func (o *Object) SetField(name string, value any) error {
	current, ok := o.fields[name]
	if !ok {
		return &errors.PropertyAccessError{Path: keypath.Join(o.scope, name), Segment: name}
	}
	if same(current, value) {
		return nil
	}
	value = normalize(value)
	if same(current, value) {
		return nil
	}
	if o.detached {
		o.fields[name] = value
		return nil
	}

	key := keypath.Join(o.scope, name)
	wrapped, err := o.store.wrap(key, value)
	if err != nil {
		return err
	}
	detach(current)
	o.fields[name] = wrapped
	o.store.enqueue(&ChangeEvent{Target: o, Key: key})
	return nil
}

// Get reads path relative to the object.
func (o *Object) Get(path string) (any, error) {
	return keypath.Get(o, path)
}

// Set writes path relative to the object.
func (o *Object) Set(path string, value any) error {
	return keypath.Set(o, path, value)
}

// Snapshot returns a deep copy of the object as plain data.
func (o *Object) Snapshot() map[string]any {
	m := make(map[string]any, len(o.fields))
	for k, v := range o.fields {
		m[k] = plain(v)
	}
	return m
}

func (o *Object) detach() {
	if o.detached {
		return
	}
	o.detached = true
	for _, v := range o.fields {
		detach(v)
	}
}
