// Package errors provides structured error handling for spa.
//
// Misuse errors (TypeError, ReservedNameError, PropertyAccessError) are
// returned synchronously at the point of misuse and are never recovered
// internally. Failures that happen on the dispatch loop, where there is no
// caller to return to, are sent to the global ErrorHandler instead.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindType indicates a value of the wrong type where an object is required.
	KindType
	// KindReservedName indicates a field name that cannot be addressed.
	KindReservedName
	// KindPropertyAccess indicates a key-path walking through a missing field.
	KindPropertyAccess
	// KindHandler indicates a failing change handler or command.
	KindHandler
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindConfig indicates an invalid configuration.
	KindConfig
	// KindRouting indicates a routing failure.
	KindRouting
)

func (k ErrorKind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindReservedName:
		return "reserved-name"
	case KindPropertyAccess:
		return "property-access"
	case KindHandler:
		return "handler"
	case KindPanic:
		return "panic"
	case KindConfig:
		return "config"
	case KindRouting:
		return "routing"
	default:
		return "unknown"
	}
}

// Error represents a structured error reported by spa.
type Error struct {
	// Op is the operation that failed (e.g., "directive.Click").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Key is the key-path involved, if applicable.
	Key string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s [%s] key=%s: %v", e.Op, e.Kind, e.Key, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "observe.dispatch").
	Op string
	// Key is the key-path being dispatched, if applicable.
	Key string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// TypeError is returned when a value is not of the required type,
// typically a non-object passed where an object is required.
type TypeError struct {
	// Op is the operation that rejected the value.
	Op string
	// Want describes the required type.
	Want string
	// Got is the rejected value.
	Got any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: want %s, got %T", e.Op, e.Want, e.Got)
}

// ReservedNameError is returned when a data field name cannot be used as a
// key-path segment.
type ReservedNameError struct {
	// Name is the offending field name.
	Name string
	// Path is the key-path of the object holding the field.
	Path string
}

func (e *ReservedNameError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("reserved field name %q", e.Name)
	}
	return fmt.Sprintf("reserved field name %q in %s", e.Name, e.Path)
}

// PropertyAccessError is returned when a key-path walks into a missing
// field or through a value that is not a container.
type PropertyAccessError struct {
	// Path is the full key-path being resolved.
	Path string
	// Segment is the segment that could not be resolved.
	Segment string
}

func (e *PropertyAccessError) Error() string {
	return fmt.Sprintf("cannot access %q in key-path %q", e.Segment, e.Path)
}

// ErrorHandler receives errors reported by spa.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *Error)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
