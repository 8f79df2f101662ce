package canvas

import (
	"fmt"

	"github.com/dshills/mapcast/internal/maperr"
)

// Errors returned by canvas operations.
var (
	// ErrInvalidSize is returned for canvases with a non-positive dimension
	// or one too large for the wire format.
	ErrInvalidSize = fmt.Errorf("invalid canvas size: %w", maperr.ErrInvalidArgument)

	// ErrUnknownIndex is returned when a raw pixel index was never issued by
	// the canvas palette.
	ErrUnknownIndex = fmt.Errorf("unknown palette index: %w", maperr.ErrInvalidArgument)

	// ErrCorrupt is returned by UnmarshalBinary for malformed data.
	ErrCorrupt = fmt.Errorf("corrupt canvas data: %w", maperr.ErrInvalidArgument)
)
