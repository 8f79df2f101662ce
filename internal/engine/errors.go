package engine

import (
	"errors"
	"fmt"

	"github.com/dshills/mapcast/internal/maperr"
)

// Errors returned by engine operations.
var (
	// ErrAlreadyRunning indicates Run was called twice.
	ErrAlreadyRunning = errors.New("engine already running")

	// ErrClosed indicates the engine was closed.
	ErrClosed = fmt.Errorf("engine closed: %w", maperr.ErrInvalidState)

	// ErrUnknownMap indicates no map has the given id.
	ErrUnknownMap = fmt.Errorf("unknown map: %w", maperr.ErrNotFound)

	// ErrBadFill indicates the default fill is neither a palette name nor
	// a hex color.
	ErrBadFill = fmt.Errorf("bad default fill: %w", maperr.ErrInvalidArgument)
)
