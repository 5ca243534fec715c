package observe

import (
	"reflect"
	"strings"

	"github.com/go-drift/spa/pkg/errors"
	"github.com/go-drift/spa/pkg/keypath"
)

// normalize converts typed maps and slices into map[string]any and []any so
// the rest of the package only deals with the generic forms. Handles are
// flattened to plain snapshots. Nil maps collapse to nil.
func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case map[string]any:
		if x == nil {
			return nil
		}
		return x
	case []any:
		return x
	case *Object:
		return x.Snapshot()
	case *Array:
		return x.Snapshot()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		if rv.IsNil() {
			return nil
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = normalize(iter.Value().Interface())
		}
		return m
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			// []byte is a leaf.
			return v
		}
		s := make([]any, rv.Len())
		for i := range s {
			s[i] = normalize(rv.Index(i).Interface())
		}
		return s
	}
	return v
}

// plain returns a deep copy of v with every handle replaced by plain data.
func plain(v any) any {
	switch x := v.(type) {
	case *Object:
		return x.Snapshot()
	case *Array:
		return x.Snapshot()
	case map[string]any:
		if x == nil {
			return x
		}
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = plain(e)
		}
		return m
	case []any:
		if x == nil {
			return x
		}
		s := make([]any, len(x))
		for i, e := range x {
			s[i] = plain(e)
		}
		return s
	}
	return v
}

// same reports whether writing next over current would be redundant.
// Handles, maps and slices compare by identity, other values with ==.
func same(current, next any) (eq bool) {
	if current == nil || next == nil {
		return current == nil && next == nil
	}
	cv, nv := reflect.ValueOf(current), reflect.ValueOf(next)
	if cv.Type() != nv.Type() {
		return false
	}
	switch cv.Kind() {
	case reflect.Map:
		return cv.Pointer() == nv.Pointer()
	case reflect.Slice:
		return cv.Pointer() == nv.Pointer() && cv.Len() == nv.Len()
	case reflect.Func:
		return false
	}
	if !cv.Comparable() {
		return false
	}
	defer func() {
		// Interface fields holding uncomparable values panic on ==.
		if recover() != nil {
			eq = false
		}
	}()
	return current == next
}

// checkName validates a user field name.
func checkName(name, scope string) error {
	if name == "" || strings.Contains(name, keypath.Separator) {
		return &errors.ReservedNameError{Name: name, Path: scope}
	}
	return nil
}

// wrap instruments a normalized value at path.
func (s *Store) wrap(path string, v any) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		if x == nil {
			return nil, nil
		}
		return s.newObject(path, x)
	case []any:
		return s.newArray(path, x), nil
	}
	return v, nil
}

// detach tears down instrumentation on v and everything below it.
func detach(v any) {
	switch x := v.(type) {
	case *Object:
		x.detach()
	case *Array:
		x.detach()
	}
}
