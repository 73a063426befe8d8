// Package errors provides structured error handling for the Flint engine.
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
	// KindStructural indicates an operation on a stale or unknown element handle.
	KindStructural
	// KindConstraint indicates malformed or unresolvable layout constraints.
	KindConstraint
	// KindRender indicates a rendering backend error.
	KindRender
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindBuild indicates a build-phase widget error.
	KindBuild
	// KindBackpressure indicates the effect queue reached its pending ceiling.
	KindBackpressure
)

func (k ErrorKind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindConstraint:
		return "constraint"
	case KindRender:
		return "render"
	case KindPanic:
		return "panic"
	case KindBuild:
		return "build"
	case KindBackpressure:
		return "backpressure"
	default:
		return "unknown"
	}
}

// EngineError represents a structured error in the Flint engine.
type EngineError struct {
	// Op is the operation that failed (e.g., "layout.RenderViewport").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Phase is the frame phase during which the error occurred, if applicable.
	Phase string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *EngineError) Error() string {
	if e.Phase != "" {
		return fmt.Sprintf("%s [%s] phase=%s: %v", e.Op, e.Kind, e.Phase, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "engine.BuildFrame").
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

// BuildError represents a failure during widget build.
type BuildError struct {
	// Widget is the type name of the widget that failed.
	Widget string
	// Element is the element type (CompositeElement, RenderElement).
	Element string
	// Recovered is the panic value (nil for regular errors).
	Recovered any
	// Err is the underlying error (nil for panics).
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *BuildError) Error() string {
	if e.Recovered != nil {
		return fmt.Sprintf("build of %s (%s) panicked: %v", e.Widget, e.Element, e.Recovered)
	}
	return fmt.Sprintf("build of %s (%s) failed: %v", e.Widget, e.Element, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// ConstraintError describes a constraint violation detected during layout.
// In debug configurations these are fatal; in release the offending value is
// clamped and the error reported through the handler.
type ConstraintError struct {
	// Op is the layout operation that detected the violation.
	Op string
	// Detail describes the violated invariant.
	Detail string
	// Timestamp is when the violation was detected.
	Timestamp time.Time
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: constraint violation: %s", e.Op, e.Detail)
}
