// Package errors provides structured error handling for the perf module.
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
	// KindInvariant indicates a violated event lifecycle invariant.
	KindInvariant
	// KindObserver indicates a debug observer server error.
	KindObserver
	// KindExport indicates a telemetry export error.
	KindExport
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvariant:
		return "invariant"
	case KindObserver:
		return "observer"
	case KindExport:
		return "export"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// PerfError represents a structured error in the perf module.
type PerfError struct {
	// Op is the operation that failed (e.g., "observer.Start").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Tag is the event tag involved, if applicable (0 means none).
	Tag uint64
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *PerfError) Error() string {
	if e.Tag != 0 {
		return fmt.Sprintf("%s [%s] tag=%d: %v", e.Op, e.Kind, e.Tag, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *PerfError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "observer.handleEntries").
	Op string
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

// InvariantError represents a violated contract in the event timing
// lifecycle, such as a processing-end recorded before its processing-start.
type InvariantError struct {
	// Op is the operation that detected the violation (e.g., "eventtiming.OnProcessingEnd").
	Op string
	// Event is the canonical name of the event involved, if known.
	Event string
	// Tag is the event tag involved (0 means none).
	Tag uint64
	// Detail describes the violated invariant.
	Detail string
	// StackTrace contains the call stack at the time of the violation.
	StackTrace string
	// Timestamp is when the violation was detected.
	Timestamp time.Time
}

func (e *InvariantError) Error() string {
	if e.Event != "" {
		return fmt.Sprintf("invariant violation in %s: %s (event=%s, tag=%d)", e.Op, e.Detail, e.Event, e.Tag)
	}
	if e.Tag != 0 {
		return fmt.Sprintf("invariant violation in %s: %s (tag=%d)", e.Op, e.Detail, e.Tag)
	}
	return fmt.Sprintf("invariant violation in %s: %s", e.Op, e.Detail)
}

// ErrorHandler receives errors reported by the perf module.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *PerfError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
	// HandleInvariant is called when a lifecycle invariant is violated.
	HandleInvariant(err *InvariantError)
}
