package script

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/go-drift/spa/pkg/observe"
)

// Store exposes an observe.Store to Starlark with get(path), set(path,
// value), call(name) and keys().
type Store struct {
	store *observe.Store
}

var _ starlark.HasAttrs = (*Store)(nil)

// NewStore wraps store.
func NewStore(store *observe.Store) *Store {
	return &Store{store: store}
}

func (s *Store) String() string        { return "<store>" }
func (s *Store) Type() string          { return "store" }
func (s *Store) Freeze()               {}
func (s *Store) Truth() starlark.Bool  { return starlark.True }
func (s *Store) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: store") }

// AttrNames implements starlark.HasAttrs.
func (s *Store) AttrNames() []string {
	return []string{"call", "get", "keys", "set"}
}

// Attr implements starlark.HasAttrs.
func (s *Store) Attr(name string) (starlark.Value, error) {
	switch name {
	case "get":
		return starlark.NewBuiltin("get", s.get), nil
	case "set":
		return starlark.NewBuiltin("set", s.set), nil
	case "call":
		return starlark.NewBuiltin("call", s.call), nil
	case "keys":
		return starlark.NewBuiltin("keys", s.keys), nil
	}
	return nil, nil
}

func (s *Store) get(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var path string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &path); err != nil {
		return nil, err
	}
	v, err := s.store.Get(path)
	if err != nil {
		return nil, err
	}
	return ToStarlark(v), nil
}

func (s *Store) set(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var path string
	var value starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &path, &value); err != nil {
		return nil, err
	}
	v, err := FromStarlark(value)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(path, v); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

func (s *Store) call(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	if err := s.store.Call(name, nil); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

func (s *Store) keys(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	keys := s.store.Root().Keys()
	elems := make([]starlark.Value, len(keys))
	for i, k := range keys {
		elems[i] = starlark.String(k)
	}
	return starlark.NewList(elems), nil
}
