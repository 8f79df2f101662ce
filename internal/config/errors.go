package config

import (
	"fmt"

	"github.com/dshills/mapcast/internal/maperr"
)

// Errors returned by configuration operations.
var (
	// ErrUnknownKey indicates a setting key that does not exist.
	ErrUnknownKey = fmt.Errorf("unknown config key: %w", maperr.ErrNotFound)

	// ErrInvalidValue indicates a value that cannot be parsed or fails
	// validation.
	ErrInvalidValue = fmt.Errorf("invalid config value: %w", maperr.ErrInvalidArgument)

	// ErrUnsupportedFormat indicates a config file extension with no decoder.
	ErrUnsupportedFormat = fmt.Errorf("unsupported config format: %w", maperr.ErrInvalidArgument)
)

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	// Path is the file path that failed to parse.
	Path string
	// Line is the line number where the error occurred (if available).
	Line int
	// Column is the column number where the error occurred (if available).
	Column int
	// Message describes the parse error.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// KeyError reports a bad value for one key.
type KeyError struct {
	Key    string
	Value  string
	Source string
	Err    error
}

// Error implements the error interface.
func (e *KeyError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: %s=%q: %v", e.Source, e.Key, e.Value, e.Err)
	}
	return fmt.Sprintf("%s=%q: %v", e.Key, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *KeyError) Unwrap() error {
	return e.Err
}
