package palette

import (
	"fmt"

	"github.com/dshills/mapcast/internal/maperr"
)

// Errors returned by palette operations.
var (
	// ErrOutOfRange is returned by ByIndex for indices never issued.
	ErrOutOfRange = fmt.Errorf("palette index never issued: %w", maperr.ErrOutOfBounds)

	// ErrInvalidPalette is returned when base entries cannot form a palette.
	ErrInvalidPalette = fmt.Errorf("invalid palette: %w", maperr.ErrInvalidArgument)

	// ErrUnknownMatcher is returned by NewMatcher for unknown matcher kinds.
	ErrUnknownMatcher = fmt.Errorf("unknown color matcher: %w", maperr.ErrInvalidArgument)
)
