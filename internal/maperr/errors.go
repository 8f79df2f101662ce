// Package maperr defines the error taxonomy shared by the map engine.
//
// Every failure surfaced by the engine matches exactly one of the sentinel
// kinds below through errors.Is. Typed wrappers carry the coordinates,
// indices or renderer identity that caused the failure.
package maperr

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	// ErrOutOfBounds indicates pixel, cursor, rectangle or list coordinates
	// outside the valid range. Always a caller contract violation.
	ErrOutOfBounds = errors.New("out of bounds")

	// ErrInvalidArgument indicates a malformed argument, such as a font
	// missing a glyph that text drawing reached.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates a deleted or unknown view, or an unregistered id.
	ErrNotFound = errors.New("not found")

	// ErrRendererFailure indicates a single renderer failed while drawing.
	ErrRendererFailure = errors.New("renderer failure")

	// ErrInvalidState indicates an operation that the current lifecycle
	// state of a view does not permit.
	ErrInvalidState = errors.New("invalid state")
)

// BoundsError reports a coordinate pair outside a width x height area.
type BoundsError struct {
	Op     string
	X, Y   int
	Width  int
	Height int
}

// NewBoundsError creates a BoundsError.
func NewBoundsError(op string, x, y, width, height int) *BoundsError {
	return &BoundsError{Op: op, X: x, Y: y, Width: width, Height: height}
}

func (e *BoundsError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s (%d,%d) outside %dx%d: %v", e.Op, e.X, e.Y, e.Width, e.Height, ErrOutOfBounds)
}

func (e *BoundsError) Unwrap() error {
	return ErrOutOfBounds
}

// IndexError reports a list or table index outside [0, Len).
type IndexError struct {
	Op    string
	Index int
	Len   int
}

// NewIndexError creates an IndexError.
func NewIndexError(op string, index, length int) *IndexError {
	return &IndexError{Op: op, Index: index, Len: length}
}

func (e *IndexError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s index %d (len %d): %v", e.Op, e.Index, e.Len, ErrOutOfBounds)
}

func (e *IndexError) Unwrap() error {
	return ErrOutOfBounds
}

// OperationError represents an error that occurred during a specific operation.
type OperationError struct {
	Op     string // Operation name (e.g., "createMap", "sendUpdate")
	Target string // Target of the operation (e.g., map id)
	Err    error  // Underlying error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{Op: op, Target: target, Err: err}
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is implements errors.Is for OperationError.
// Matches both the wrapper itself and the wrapped error.
func (e *OperationError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*OperationError); ok {
		return e == t
	}
	return errors.Is(e.Err, target)
}

// RendererError reports the failure of one renderer inside a pipeline run.
type RendererError struct {
	Index int    // Position of the renderer in the pipeline
	Name  string // Renderer description, if any
	Err   error  // Error returned by the renderer, nil when it panicked
	Panic any    // Recovered panic value, nil when it returned an error
}

func (e *RendererError) Error() string {
	if e == nil {
		return ""
	}

	name := e.Name
	if name == "" {
		name = "renderer"
	}
	if e.Panic != nil {
		return fmt.Sprintf("%s #%d panicked: %v", name, e.Index, e.Panic)
	}
	return fmt.Sprintf("%s #%d: %v", name, e.Index, e.Err)
}

func (e *RendererError) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Err != nil {
		return []error{ErrRendererFailure, e.Err}
	}
	return []error{ErrRendererFailure}
}
