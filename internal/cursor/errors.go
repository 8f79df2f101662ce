package cursor

import (
	"fmt"

	"github.com/dshills/mapcast/internal/maperr"
)

// Errors returned by cursor operations.
var (
	// ErrUnknownType is returned for cursor type names or ordinals outside
	// the catalog.
	ErrUnknownType = fmt.Errorf("unknown cursor type: %w", maperr.ErrInvalidArgument)

	// ErrInvalidDirection is returned for directions outside 0..15.
	ErrInvalidDirection = fmt.Errorf("cursor direction must be 0..15: %w", maperr.ErrInvalidArgument)

	// ErrRemoved is returned when a handle is used after its cursor was
	// removed from the collection.
	ErrRemoved = fmt.Errorf("cursor removed: %w", maperr.ErrNotFound)
)
