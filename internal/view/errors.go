package view

import (
	"fmt"

	"github.com/dshills/mapcast/internal/maperr"
)

// Errors returned by view operations.
var (
	// ErrDeleted is returned for any operation on a deleted view.
	ErrDeleted = fmt.Errorf("view deleted: %w", maperr.ErrNotFound)

	// ErrNotActive is returned when a view has not been attached yet.
	ErrNotActive = fmt.Errorf("view not active: %w", maperr.ErrInvalidState)

	// ErrAlreadyActive is returned by Activate on an attached view.
	ErrAlreadyActive = fmt.Errorf("view already active: %w", maperr.ErrInvalidState)
)
