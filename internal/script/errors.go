package script

import (
	"errors"
	"fmt"

	"github.com/dshills/mapcast/internal/maperr"
)

// Errors for script operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a call outlives its timeout.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrOperationLimit is returned when a render call exceeds its canvas
	// operation budget.
	ErrOperationLimit = errors.New("lua operation limit exceeded")

	// ErrNoRenderFunc is returned for scripts that do not define render.
	ErrNoRenderFunc = fmt.Errorf("script defines no render function: %w", maperr.ErrInvalidArgument)
)
