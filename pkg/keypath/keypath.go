// Package keypath resolves and writes dotted key-paths ("a.b.c") against
// nested containers.
//
// A container is a map[string]any, a []any addressed by decimal index
// segments, or any value implementing Container. Paths are expected to be
// known when a binding is made, so walking through a missing intermediate
// is an error rather than a silent zero value.
package keypath

import (
	"strconv"
	"strings"

	"github.com/go-drift/spa/pkg/errors"
)

// Separator separates the segments of a key-path.
const Separator = "."

// Container is implemented by values that expose named fields to key-path
// addressing.
type Container interface {
	// Field returns the value of name and whether the field exists.
	Field(name string) (any, bool)
	// SetField writes name.
	SetField(name string, value any) error
}

// Split returns the segments of path.
func Split(path string) []string {
	return strings.Split(path, Separator)
}

// Join appends key to scope. An empty scope yields key.
func Join(scope, key string) string {
	if scope == "" {
		return key
	}
	return scope + Separator + key
}

// Base returns the scope and the last segment of path.
func Base(path string) (scope, key string) {
	i := strings.LastIndex(path, Separator)
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// IsPrefix reports whether prefix is a strict key-path ancestor of path.
// The empty path is an ancestor of every non-empty path.
func IsPrefix(prefix, path string) bool {
	if prefix == path {
		return false
	}
	if prefix == "" {
		return true
	}
	return strings.HasPrefix(path, prefix) && path[len(prefix):len(prefix)+1] == Separator
}

// Get reads path from container. A missing final segment yields nil; a
// missing intermediate yields a *errors.PropertyAccessError.
func Get(container any, path string) (any, error) {
	parent, key, err := Parent(container, path)
	if err != nil {
		return nil, err
	}
	value, ok, accessible := field(parent, key)
	if !accessible {
		return nil, &errors.PropertyAccessError{Path: path, Segment: key}
	}
	if !ok {
		return nil, nil
	}
	return value, nil
}

// Set writes value at path in container.
func Set(container any, path string, value any) error {
	parent, key, err := Parent(container, path)
	if err != nil {
		return err
	}
	switch c := parent.(type) {
	case Container:
		return c.SetField(key, value)
	case map[string]any:
		if c == nil {
			return &errors.PropertyAccessError{Path: path, Segment: key}
		}
		c[key] = value
		return nil
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(c) {
			return &errors.PropertyAccessError{Path: path, Segment: key}
		}
		c[i] = value
		return nil
	}
	return &errors.PropertyAccessError{Path: path, Segment: key}
}

// Parent walks every segment of path but the last and returns the
// container holding the last segment along with that segment.
func Parent(container any, path string) (any, string, error) {
	segments := Split(path)
	current := container
	for _, segment := range segments[:len(segments)-1] {
		value, ok, _ := field(current, segment)
		if !ok || value == nil {
			return nil, "", &errors.PropertyAccessError{Path: path, Segment: segment}
		}
		current = value
	}
	return current, segments[len(segments)-1], nil
}

// field reads name from container. accessible is false when container
// cannot hold fields at all.
func field(container any, name string) (value any, ok bool, accessible bool) {
	switch c := container.(type) {
	case Container:
		value, ok = c.Field(name)
		return value, ok, true
	case map[string]any:
		value, ok = c[name]
		return value, ok, true
	case []any:
		i, err := strconv.Atoi(name)
		if err != nil || i < 0 || i >= len(c) {
			return nil, false, true
		}
		return c[i], true, true
	}
	return nil, false, false
}
